package conf

import (
	"context"
	"errors"
	"testing"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/fault"
	"github.com/harunnryd/musubi/toolbind"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_LaterLayersWin(t *testing.T) {
	defaults := CallConfig{Backend: backend.OpenAI, Model: "a"}

	cfg, err := Resolve(defaults,
		Overlay{Model: Model("a")},
		Overlay{Model: Model("b"), Stream: Stream(true)},
		Overlay{Model: Model("c")},
	)
	require.NoError(t, err)

	assert.Equal(t, "c", cfg.Model)
	assert.True(t, cfg.Stream, "stream set on a lower layer survives layers that do not touch structural fields")
}

func TestResolve_StructuralReset(t *testing.T) {
	schema := map[string]any{"type": "object"}
	defaults := CallConfig{Backend: backend.OpenAI, Model: "m"}

	cfg, err := Resolve(defaults,
		Overlay{Stream: Stream(true)},
		Overlay{ResponseSchema: schema},
	)
	require.NoError(t, err)

	assert.False(t, cfg.Stream, "touching one structural field resets the others")
	assert.Equal(t, schema, cfg.ResponseSchema)
}

func TestResolve_ResponseSchemaClearsTools(t *testing.T) {
	tool := toolbind.FromSchema("lookup", "find things", nil, nil)
	defaults := CallConfig{
		Backend: backend.OpenAI,
		Model:   "m",
		Tools:   []toolbind.Descriptor{tool},
	}

	cfg, err := Resolve(defaults, Overlay{ResponseSchema: map[string]any{"type": "object"}})
	require.NoError(t, err)
	assert.Empty(t, cfg.Tools)
}

func TestResolve_BackendAndModelTravelTogether(t *testing.T) {
	_, err := Resolve(CallConfig{}, Overlay{Backend: Backend(backend.Anthropic)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrConfiguration))

	_, err = Resolve(CallConfig{}, Overlay{Model: Model("m")})
	require.Error(t, err)

	_, err = Resolve(CallConfig{}, Overlay{Backend: Backend(backend.Anthropic), Model: Model("m")})
	assert.NoError(t, err)
}

func TestResolve_ParamsMergeKeywise(t *testing.T) {
	defaults := CallConfig{
		Backend: backend.OpenAI,
		Model:   "m",
		Params:  map[string]any{"temperature": 0.2, "seed": 7},
	}

	cfg, err := Resolve(defaults, Overlay{Params: map[string]any{"temperature": 0.9}})
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Params["temperature"])
	assert.Equal(t, 7, cfg.Params["seed"])
	assert.Equal(t, 0.2, defaults.Params["temperature"], "resolve never mutates its inputs")
}

func TestWithOverride_StacksPerContext(t *testing.T) {
	base := context.Background()
	ctx1 := WithOverride(base, Overlay{Model: Model("one")})
	ctx2 := WithOverride(ctx1, Overlay{Model: Model("two"), Stream: Stream(true)})

	assert.Empty(t, AmbientOverlays(base))
	assert.Len(t, AmbientOverlays(ctx1), 1)
	assert.Len(t, AmbientOverlays(ctx2), 2)

	defaults := CallConfig{Backend: backend.OpenAI, Model: "default"}

	cfg, err := ResolveContext(ctx2, defaults, nil)
	require.NoError(t, err)
	assert.Equal(t, "two", cfg.Model)
	assert.True(t, cfg.Stream)

	// Sibling contexts never observe each other's overlays.
	cfg, err = ResolveContext(ctx1, defaults, nil)
	require.NoError(t, err)
	assert.Equal(t, "one", cfg.Model)
	assert.False(t, cfg.Stream)
}

func TestResolveContext_ExplicitOverrideIsOutermost(t *testing.T) {
	ctx := WithOverride(context.Background(), Overlay{Model: Model("ambient")})
	defaults := CallConfig{Backend: backend.OpenAI, Model: "default"}

	cfg, err := ResolveContext(ctx, defaults, &Overlay{Model: Model("explicit")})
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.Model)
}
