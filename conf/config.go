// Package conf resolves the effective configuration for one backend call by
// merging declared defaults, ambient context overrides and explicit per-call
// overrides.
package conf

import (
	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/fault"
	"github.com/harunnryd/musubi/toolbind"
)

// Parser post-processes a finished response body into a caller-defined value.
type Parser func(raw []byte) (any, error)

// CallConfig is the fully resolved configuration for one call.
//
// Stream, ResponseSchema and OutputParser are structural: their presence
// changes the shape of the result the caller gets back.
type CallConfig struct {
	Backend        backend.Name
	Model          string
	Stream         bool
	Tools          []toolbind.Descriptor
	ResponseSchema map[string]any
	OutputParser   Parser
	JSONMode       bool
	// Client, when set, is a pre-built backend client handle the dispatcher
	// uses instead of constructing one from the registry.
	Client any
	Params map[string]any
}

// Overlay is one override layer. Nil pointer fields are "not set" and leave
// the lower layers' values alone; Params merge key-wise.
type Overlay struct {
	Backend        *backend.Name
	Model          *string
	Stream         *bool
	Tools          []toolbind.Descriptor
	ResponseSchema map[string]any
	OutputParser   Parser
	JSONMode       *bool
	Client         any
	Params         map[string]any
}

// touchesStructural reports whether the layer sets any structural field.
func (o Overlay) touchesStructural() bool {
	return o.Stream != nil || o.ResponseSchema != nil || o.OutputParser != nil
}

// Resolve merges declared defaults with override layers, innermost last and
// winning. It is a pure function of its inputs.
//
// Structural fields follow the reset rule: a layer that sets any of Stream,
// ResponseSchema or OutputParser resets the other two to their zero values
// rather than inheriting them, so the result type stays predictable. A layer
// that sets ResponseSchema additionally clears Tools.
func Resolve(defaults CallConfig, layers ...Overlay) (CallConfig, error) {
	cfg := defaults
	cfg.Tools = append([]toolbind.Descriptor(nil), defaults.Tools...)
	cfg.Params = copyParams(nil, defaults.Params)

	for _, layer := range layers {
		applyOverlay(&cfg, layer)
	}

	if (cfg.Backend == "") != (cfg.Model == "") {
		return CallConfig{}, &fault.ConfigurationError{
			Reason: "backend and model must be set together, never one alone",
		}
	}
	return cfg, nil
}

func applyOverlay(cfg *CallConfig, o Overlay) {
	if o.Backend != nil {
		cfg.Backend = *o.Backend
	}
	if o.Model != nil {
		cfg.Model = *o.Model
	}
	if o.JSONMode != nil {
		cfg.JSONMode = *o.JSONMode
	}
	if o.Client != nil {
		cfg.Client = o.Client
	}
	if o.Tools != nil {
		cfg.Tools = append([]toolbind.Descriptor(nil), o.Tools...)
	}
	cfg.Params = copyParams(cfg.Params, o.Params)

	if !o.touchesStructural() {
		return
	}

	// Structural reset: untouched structural fields drop to their zero
	// values on this layer instead of inheriting.
	if o.Stream != nil {
		cfg.Stream = *o.Stream
	} else {
		cfg.Stream = false
	}
	cfg.ResponseSchema = o.ResponseSchema
	cfg.OutputParser = o.OutputParser

	if o.ResponseSchema != nil {
		cfg.Tools = nil
	}
}

func copyParams(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Helpers for building overlays without pointer boilerplate.

func Backend(n backend.Name) *backend.Name { return &n }
func Model(m string) *string               { return &m }
func Stream(b bool) *bool                  { return &b }
func JSONMode(b bool) *bool                { return &b }
