package fault

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromSDK_Categories(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"rate limit", errors.New("429 Too Many Requests"), ErrTransient},
		{"overloaded", errors.New("Overloaded, retry later"), ErrTransient},
		{"timeout", errors.New("request timeout after 30s"), ErrTransient},
		{"network", errors.New("connection refused"), ErrTransient},
		{"bad request", errors.New("invalid request: missing field model"), ErrConfiguration},
		{"unsupported", errors.New("feature not supported on this model"), ErrUnsupported},
		{"anything else", errors.New("boom"), ErrInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromSDK(tc.in)
			assert.True(t, errors.Is(got, tc.want), "got %v", got)
		})
	}
}

func TestFromSDK_ContextErrorsPassThrough(t *testing.T) {
	assert.Nil(t, FromSDK(nil))
	assert.True(t, errors.Is(FromSDK(context.Canceled), context.Canceled))
	assert.True(t, errors.Is(FromSDK(context.DeadlineExceeded), ErrTransient))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(FromSDK(errors.New("rate limit exceeded"))))
	assert.False(t, IsRetryable(FromSDK(errors.New("invalid request body"))))
	assert.False(t, IsRetryable(nil))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{
		Backend:   "openai",
		Kind:      "image",
		MediaType: "image/tiff",
		Accepted:  []string{"image/jpeg", "image/png"},
	}
	assert.Equal(t,
		`backend openai does not accept media type "image/tiff" for image parts (accepted: image/jpeg, image/png)`,
		err.Error())
	assert.True(t, errors.Is(err, ErrValidation))

	bare := &ValidationError{Backend: "deepseek", Kind: "audio"}
	assert.Equal(t, "backend deepseek does not support audio parts", bare.Error())
}

func TestWrap_PreservesChain(t *testing.T) {
	base := errors.New("root cause")
	wrapped := Wrap(base, "while doing the thing")

	assert.True(t, errors.Is(wrapped, base))
	assert.Contains(t, wrapped.Error(), "while doing the thing")
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWrapWithCategory(t *testing.T) {
	base := errors.New("root")
	err := WrapWithCategory(base, "context", ErrTransient)

	assert.True(t, errors.Is(err, ErrTransient))
	assert.Contains(t, err.Error(), "root")
	assert.Nil(t, WrapWithCategory(nil, "ignored", ErrTransient))
}
