package backend_test

import (
	"errors"
	"testing"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/backend/anthropic"
	"github.com/harunnryd/musubi/backend/codex"
	"github.com/harunnryd/musubi/backend/deepseek"
	"github.com/harunnryd/musubi/backend/gemini"
	"github.com/harunnryd/musubi/backend/groq"
	"github.com/harunnryd/musubi/backend/ollama"
	"github.com/harunnryd/musubi/backend/openai"
	"github.com/harunnryd/musubi/backend/qwen"
	"github.com/harunnryd/musubi/backend/zai"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every backend table must reject an SVG image: either the image kind is not
// supported at all, or the media allow-list excludes it. Neither path may
// validate silently.
func TestValidate_AllBackendsRejectSVG(t *testing.T) {
	cases := []struct {
		caps      backend.Capabilities
		hasImages bool
	}{
		{anthropic.Caps(), true},
		{openai.Caps(), true},
		{gemini.Caps(), true},
		{codex.Caps(), true},
		{deepseek.Caps(), false},
		{qwen.Caps(), true},
		{zai.Caps(), true},
		{groq.Caps(), true},
		{ollama.Caps(), true},
	}

	part := content.Image{Data: []byte{1}, MediaType: "image/svg+xml"}

	for _, tc := range cases {
		t.Run(string(tc.caps.Backend), func(t *testing.T) {
			err := tc.caps.Validate(part)
			require.Error(t, err)

			var verr *fault.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, string(tc.caps.Backend), verr.Backend)
			assert.Equal(t, "image", verr.Kind)

			if tc.hasImages {
				assert.Equal(t, "image/svg+xml", verr.MediaType)
				assert.NotEmpty(t, verr.Accepted)
				assert.NotContains(t, verr.Accepted, "image/svg+xml")
			} else {
				assert.Empty(t, verr.MediaType, "unsupported kind reports no media detail")
			}
		})
	}
}
