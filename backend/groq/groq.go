// Package groq is the Groq backend.
package groq

import (
	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/backend/oaicompat"
	"github.com/harunnryd/musubi/content"

	"github.com/meguminnnnnnnnn/go-openai"
)

const DefaultBaseURL = "https://api.groq.com/openai/v1"

func Caps() backend.Capabilities {
	return oaicompat.VisionCaps(backend.Groq)
}

func New(apiKey, baseURL string) *oaicompat.Invoker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return oaicompat.NewInvoker(backend.Groq, Caps(), apiKey, baseURL)
}

func ToWire(msgs []content.Message) ([]openai.ChatCompletionMessage, error) {
	caps := Caps()
	if err := caps.ValidateMessages(msgs); err != nil {
		return nil, err
	}
	return oaicompat.ToWire(backend.Groq, msgs)
}

func FromWire(ws []openai.ChatCompletionMessage) ([]content.Message, error) {
	return oaicompat.FromWire(Caps(), ws)
}
