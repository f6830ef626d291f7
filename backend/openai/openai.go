// Package openai is the OpenAI chat-completions backend.
package openai

import (
	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/backend/oaicompat"
	"github.com/harunnryd/musubi/content"

	"github.com/meguminnnnnnnnn/go-openai"
)

// Caps returns the OpenAI allow-list: text, tools, vision and inline audio.
func Caps() backend.Capabilities {
	caps := oaicompat.VisionCaps(backend.OpenAI)
	caps.Parts[content.KindAudio] = backend.AudioMediaTypes
	return caps
}

// New builds the invoker. An empty baseURL targets the public API.
func New(apiKey, baseURL string) *oaicompat.Invoker {
	return oaicompat.NewInvoker(backend.OpenAI, Caps(), apiKey, baseURL)
}

// NewWithClient wraps a caller-supplied client handle.
func NewWithClient(client *openai.Client) *oaicompat.Invoker {
	return oaicompat.NewInvokerWithClient(backend.OpenAI, Caps(), client)
}

// ToWire converts canonical messages to the OpenAI wire format.
func ToWire(msgs []content.Message) ([]openai.ChatCompletionMessage, error) {
	caps := Caps()
	if err := caps.ValidateMessages(msgs); err != nil {
		return nil, err
	}
	return oaicompat.ToWire(backend.OpenAI, msgs)
}

// FromWire converts OpenAI wire messages back to canonical messages.
func FromWire(ws []openai.ChatCompletionMessage) ([]content.Message, error) {
	return oaicompat.FromWire(Caps(), ws)
}
