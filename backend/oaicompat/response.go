package oaicompat

import (
	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"

	"github.com/meguminnnnnnnnn/go-openai"
)

// FromResponse converts a finished chat completion into a canonical result.
func FromResponse(resp openai.ChatCompletionResponse) (*backend.Result, error) {
	if len(resp.Choices) == 0 {
		return nil, fault.Internal("backend returned no choices")
	}

	choice := resp.Choices[0]

	var parts []content.Part
	if choice.Message.Content != "" || len(choice.Message.ToolCalls) == 0 {
		parts = append(parts, content.Text{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		args, err := content.ParseArgs([]byte(tc.Function.Arguments))
		if err != nil {
			return nil, fault.Wrap(err, "decode tool call arguments")
		}
		parts = append(parts, content.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}

	msg := content.Message{Role: content.RoleAssistant, Parts: parts}.Collapse()

	return &backend.Result{
		Message:      msg,
		Usage:        usageFrom(&resp.Usage),
		Model:        resp.Model,
		ResponseID:   resp.ID,
		FinishReason: finishReason(string(choice.FinishReason)),
	}, nil
}

func usageFrom(u *openai.Usage) content.Usage {
	if u == nil {
		return content.Usage{}
	}
	out := content.Usage{
		InputTokens:  int64(u.PromptTokens),
		OutputTokens: int64(u.CompletionTokens),
	}
	if u.PromptTokensDetails != nil {
		out.CachedTokens = int64(u.PromptTokensDetails.CachedTokens)
	}
	return out
}

func finishReason(raw string) content.FinishReason {
	switch raw {
	case "stop":
		return content.FinishStop
	case "length":
		return content.FinishLength
	case "tool_calls", "function_call":
		return content.FinishToolCalls
	case "content_filter":
		return content.FinishFiltered
	default:
		return content.FinishReason(raw)
	}
}
