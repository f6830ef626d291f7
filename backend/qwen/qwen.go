// Package qwen is the Qwen (DashScope compatible-mode) backend.
package qwen

import (
	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/backend/oaicompat"
	"github.com/harunnryd/musubi/content"

	"github.com/meguminnnnnnnnn/go-openai"
)

const DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

// Caps returns the Qwen allow-list. The vision-language models accept the
// usual raster image types.
func Caps() backend.Capabilities {
	return oaicompat.VisionCaps(backend.Qwen)
}

func New(apiKey, baseURL string) *oaicompat.Invoker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return oaicompat.NewInvoker(backend.Qwen, Caps(), apiKey, baseURL)
}

func ToWire(msgs []content.Message) ([]openai.ChatCompletionMessage, error) {
	caps := Caps()
	if err := caps.ValidateMessages(msgs); err != nil {
		return nil, err
	}
	return oaicompat.ToWire(backend.Qwen, msgs)
}

func FromWire(ws []openai.ChatCompletionMessage) ([]content.Message, error) {
	return oaicompat.FromWire(Caps(), ws)
}
