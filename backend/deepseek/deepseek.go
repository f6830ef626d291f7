// Package deepseek is the DeepSeek backend, an OpenAI-dialect API without
// vision support.
package deepseek

import (
	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/backend/oaicompat"
	"github.com/harunnryd/musubi/content"

	"github.com/meguminnnnnnnnn/go-openai"
)

const DefaultBaseURL = "https://api.deepseek.com"

func Caps() backend.Capabilities {
	return oaicompat.TextCaps(backend.DeepSeek)
}

func New(apiKey, baseURL string) *oaicompat.Invoker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return oaicompat.NewInvoker(backend.DeepSeek, Caps(), apiKey, baseURL)
}

func ToWire(msgs []content.Message) ([]openai.ChatCompletionMessage, error) {
	caps := Caps()
	if err := caps.ValidateMessages(msgs); err != nil {
		return nil, err
	}
	return oaicompat.ToWire(backend.DeepSeek, msgs)
}

func FromWire(ws []openai.ChatCompletionMessage) ([]content.Message, error) {
	return oaicompat.FromWire(Caps(), ws)
}
