// Package ollama is the Ollama local backend, reached through its
// OpenAI-compatible endpoint.
package ollama

import (
	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/backend/oaicompat"
	"github.com/harunnryd/musubi/content"

	"github.com/meguminnnnnnnnn/go-openai"
)

const (
	DefaultBaseURL = "http://localhost:11434/v1"
	// DefaultAPIKey is a placeholder; the local daemon ignores it but the
	// client refuses an empty key.
	DefaultAPIKey = "ollama"
)

func Caps() backend.Capabilities {
	return oaicompat.VisionCaps(backend.Ollama)
}

func New(apiKey, baseURL string) *oaicompat.Invoker {
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return oaicompat.NewInvoker(backend.Ollama, Caps(), apiKey, baseURL)
}

func ToWire(msgs []content.Message) ([]openai.ChatCompletionMessage, error) {
	caps := Caps()
	if err := caps.ValidateMessages(msgs); err != nil {
		return nil, err
	}
	return oaicompat.ToWire(backend.Ollama, msgs)
}

func FromWire(ws []openai.ChatCompletionMessage) ([]content.Message, error) {
	return oaicompat.FromWire(Caps(), ws)
}
