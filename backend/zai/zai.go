// Package zai is the Z.AI GLM backend.
package zai

import (
	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/backend/oaicompat"
	"github.com/harunnryd/musubi/content"

	"github.com/meguminnnnnnnnn/go-openai"
)

const (
	DefaultBaseURL = "https://api.z.ai/api/paas/v4/"
	CodingBaseURL  = "https://api.z.ai/api/coding/paas/v4/"
)

func Caps() backend.Capabilities {
	return oaicompat.VisionCaps(backend.ZAI)
}

func New(apiKey, baseURL string) *oaicompat.Invoker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return oaicompat.NewInvoker(backend.ZAI, Caps(), apiKey, baseURL)
}

func ToWire(msgs []content.Message) ([]openai.ChatCompletionMessage, error) {
	caps := Caps()
	if err := caps.ValidateMessages(msgs); err != nil {
		return nil, err
	}
	return oaicompat.ToWire(backend.ZAI, msgs)
}

func FromWire(ws []openai.ChatCompletionMessage) ([]content.Message, error) {
	return oaicompat.FromWire(Caps(), ws)
}
