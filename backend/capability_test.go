package backend

import (
	"errors"
	"testing"

	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textOnlyCaps() Capabilities {
	return Capabilities{
		Backend: DeepSeek,
		Parts: map[content.Kind][]string{
			content.KindText:       nil,
			content.KindToolCall:   nil,
			content.KindToolResult: nil,
		},
	}
}

func visionCaps() Capabilities {
	return Capabilities{
		Backend: OpenAI,
		Parts: map[content.Kind][]string{
			content.KindText:  nil,
			content.KindImage: ImageMediaTypes,
		},
	}
}

func TestValidate_UnsupportedKind(t *testing.T) {
	err := textOnlyCaps().Validate(content.Image{Data: []byte{1}, MediaType: "image/png"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrValidation))

	var verr *fault.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "deepseek", verr.Backend)
	assert.Equal(t, "image", verr.Kind)
}

func TestValidate_UnsupportedMediaType(t *testing.T) {
	err := visionCaps().Validate(content.Image{Data: []byte{1}, MediaType: "image/tiff"})
	require.Error(t, err)

	var verr *fault.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "image/tiff", verr.MediaType)
	assert.Equal(t, ImageMediaTypes, verr.Accepted)
	assert.Contains(t, verr.Error(), "image/tiff")
	assert.Contains(t, verr.Error(), "image/png")
}

func TestValidate_AcceptedMediaType(t *testing.T) {
	caps := visionCaps()
	assert.NoError(t, caps.Validate(content.Image{Data: []byte{1}, MediaType: "image/png"}))
	assert.NoError(t, caps.Validate(content.Text{Text: "hi"}))
}

func TestValidateMessages_AllOrNothing(t *testing.T) {
	msgs := []content.Message{
		content.NewText(content.RoleUser, "fine"),
		content.NewParts(content.RoleUser,
			content.Text{Text: "also fine"},
			content.Audio{Data: []byte{1}, MediaType: "audio/wav"},
		),
	}

	err := visionCaps().ValidateMessages(msgs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrValidation))

	// Bare-text messages never need validation.
	assert.NoError(t, textOnlyCaps().ValidateMessages(msgs[:1]))
}

func TestSupports(t *testing.T) {
	caps := textOnlyCaps()
	assert.True(t, caps.Supports(content.KindToolCall))
	assert.False(t, caps.Supports(content.KindDocument))
}

func TestSystemText(t *testing.T) {
	bare := content.NewText(content.RoleSystem, "be terse")
	text, err := SystemText(bare)
	require.NoError(t, err)
	assert.Equal(t, "be terse", text)

	multi := content.NewParts(content.RoleSystem,
		content.Text{Text: "be "},
		content.Text{Text: "terse"},
	)
	text, err = SystemText(multi)
	require.NoError(t, err)
	assert.Equal(t, "be terse", text)

	withImage := content.NewParts(content.RoleSystem,
		content.Text{Text: "look"},
		content.Image{Data: []byte{1}, MediaType: "image/png"},
	)
	_, err = SystemText(withImage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrUnsupported))
}
