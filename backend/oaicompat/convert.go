// Package oaicompat converts between the canonical message model and the
// OpenAI chat-completions wire format. It is the shared core for every
// backend that speaks that dialect: openai itself plus deepseek, qwen, zai,
// groq and ollama.
package oaicompat

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"

	"github.com/meguminnnnnnnnn/go-openai"
)

// ToWire converts canonical messages to chat-completion messages. One
// canonical message may fan out into several wire messages: tool results get
// a dedicated tool-role envelope, while assistant tool calls share one
// envelope with any pending text, which is how this dialect wants them.
func ToWire(name backend.Name, msgs []content.Message) ([]openai.ChatCompletionMessage, error) {
	var out []openai.ChatCompletionMessage

	for i, m := range msgs {
		if m.IsText() {
			out = append(out, openai.ChatCompletionMessage{
				Role:    string(m.Role),
				Content: m.Text,
			})
			continue
		}

		wire, err := convertParts(name, m)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		out = append(out, wire...)
	}

	return out, nil
}

func convertParts(name backend.Name, m content.Message) ([]openai.ChatCompletionMessage, error) {
	var (
		out       []openai.ChatCompletionMessage
		pending   []openai.ChatMessagePart
		toolCalls []openai.ToolCall
	)

	flushPending := func() {
		if len(pending) == 0 {
			return
		}
		out = append(out, pendingToMessage(string(m.Role), pending))
		pending = nil
	}

	for _, p := range m.Parts {
		switch v := p.(type) {
		case content.Text:
			pending = append(pending, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: v.Text,
			})

		case content.Image:
			pending = append(pending, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(v.MediaType, v.Data),
					Detail: openai.ImageURLDetail(v.Detail),
				},
			})

		case content.ImageRef:
			pending = append(pending, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    v.URL,
					Detail: openai.ImageURLDetail(v.Detail),
				},
			})

		case content.Audio:
			format, err := audioFormat(name, v.MediaType)
			if err != nil {
				return nil, err
			}
			pending = append(pending, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeInputAudio,
				InputAudio: &openai.ChatMessageInputAudio{
					Data:   base64.StdEncoding.EncodeToString(v.Data),
					Format: format,
				},
			})

		case content.ToolCall:
			if m.Role != content.RoleAssistant {
				return nil, fault.Configurationf("backend %s: tool call on %s message, only assistant messages may call tools", name, m.Role)
			}
			args, err := json.Marshal(v.Args)
			if err != nil {
				return nil, fault.Wrap(err, "encode tool call arguments")
			}
			toolCalls = append(toolCalls, openai.ToolCall{
				ID:   v.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      v.Name,
					Arguments: string(args),
				},
			})

		case content.ToolResult:
			flushPending()
			body, err := encodeToolValue(v.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    body,
				Name:       v.Name,
				ToolCallID: v.ID,
			})

		default:
			// Includes CacheHint, AudioRef and Document, which this wire has
			// no representation for. Capability validation rejects them
			// first; this arm keeps the match exhaustive for new kinds too.
			return nil, fault.Unsupportedf("backend %s: no wire form for part kind %q", name, content.KindOf(p))
		}
	}

	if len(toolCalls) > 0 {
		// Pending text rides the tool-call envelope.
		msg := pendingToMessage(string(content.RoleAssistant), pending)
		msg.ToolCalls = toolCalls
		out = append(out, msg)
		return out, nil
	}

	flushPending()
	if len(out) == 0 {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role)})
	}
	return out, nil
}

// pendingToMessage collapses an all-text pending buffer into a plain Content
// string; anything with media stays MultiContent.
func pendingToMessage(role string, pending []openai.ChatMessagePart) openai.ChatCompletionMessage {
	allText := true
	for _, p := range pending {
		if p.Type != openai.ChatMessagePartTypeText {
			allText = false
			break
		}
	}

	if allText {
		var b strings.Builder
		for _, p := range pending {
			b.WriteString(p.Text)
		}
		return openai.ChatCompletionMessage{Role: role, Content: b.String()}
	}
	return openai.ChatCompletionMessage{Role: role, MultiContent: pending}
}

func dataURL(mediaType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}

func audioFormat(name backend.Name, mediaType string) (string, error) {
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return "mp3", nil
	case "audio/wav":
		return "wav", nil
	default:
		return "", &fault.ValidationError{
			Backend:   string(name),
			Kind:      string(content.KindAudio),
			MediaType: mediaType,
			Accepted:  backend.AudioMediaTypes,
		}
	}
}

func encodeToolValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", fault.Wrap(err, "encode tool result")
		}
		return string(b), nil
	}
}
