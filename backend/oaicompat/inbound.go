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

// FromWire converts chat-completion messages back to the canonical model.
// Inline media is validated against the same allow-list used outbound. A
// message carrying a content part this decoder does not recognize fails the
// whole batch; nothing is dropped.
func FromWire(caps backend.Capabilities, ws []openai.ChatCompletionMessage) ([]content.Message, error) {
	out := make([]content.Message, 0, len(ws))

	for i, w := range ws {
		m, err := fromWireMessage(caps, w)
		if err != nil {
			return nil, fmt.Errorf("wire message %d: %w", i, err)
		}
		out = append(out, m.Collapse())
	}

	return out, nil
}

func fromWireMessage(caps backend.Capabilities, w openai.ChatCompletionMessage) (content.Message, error) {
	if w.Role == openai.ChatMessageRoleTool {
		return content.NewParts(content.RoleTool, content.ToolResult{
			ID:    w.ToolCallID,
			Name:  w.Name,
			Value: decodeToolValue(w.Content),
		}), nil
	}

	var parts []content.Part

	for _, p := range w.MultiContent {
		part, err := fromWirePart(caps, p)
		if err != nil {
			return content.Message{}, err
		}
		parts = append(parts, part)
	}

	if w.Content != "" {
		parts = append(parts, content.Text{Text: w.Content})
	}

	for _, tc := range w.ToolCalls {
		args, err := content.ParseArgs([]byte(tc.Function.Arguments))
		if err != nil {
			return content.Message{}, fault.Wrap(err, "decode tool call arguments")
		}
		parts = append(parts, content.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}

	if parts == nil {
		parts = []content.Part{content.Text{}}
	}
	return content.Message{Role: content.Role(w.Role), Parts: parts}, nil
}

func fromWirePart(caps backend.Capabilities, p openai.ChatMessagePart) (content.Part, error) {
	switch p.Type {
	case openai.ChatMessagePartTypeText:
		return content.Text{Text: p.Text}, nil

	case openai.ChatMessagePartTypeImageURL:
		if p.ImageURL == nil {
			return nil, fault.Internal("image part without image_url payload")
		}
		if media, data, ok := parseDataURL(p.ImageURL.URL); ok {
			part := content.Image{Data: data, MediaType: media, Detail: string(p.ImageURL.Detail)}
			if err := caps.Validate(part); err != nil {
				return nil, err
			}
			return part, nil
		}
		return content.ImageRef{URL: p.ImageURL.URL, Detail: string(p.ImageURL.Detail)}, nil

	case openai.ChatMessagePartTypeInputAudio:
		if p.InputAudio == nil {
			return nil, fault.Internal("audio part without input_audio payload")
		}
		data, err := base64.StdEncoding.DecodeString(p.InputAudio.Data)
		if err != nil {
			return nil, fault.Wrap(err, "decode audio payload")
		}
		part := content.Audio{Data: data, MediaType: audioMediaType(p.InputAudio.Format)}
		if err := caps.Validate(part); err != nil {
			return nil, err
		}
		return part, nil

	default:
		return nil, fault.Unsupportedf("backend %s: unrecognized wire content part %q", caps.Backend, p.Type)
	}
}

func parseDataURL(url string) (mediaType string, data []byte, ok bool) {
	if !strings.HasPrefix(url, "data:") {
		return "", nil, false
	}
	rest := strings.TrimPrefix(url, "data:")
	idx := strings.Index(rest, ";base64,")
	if idx < 0 {
		return "", nil, false
	}
	decoded, err := base64.StdEncoding.DecodeString(rest[idx+len(";base64,"):])
	if err != nil {
		return "", nil, false
	}
	return rest[:idx], decoded, true
}

func audioMediaType(format string) string {
	switch format {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	default:
		return format
	}
}

func decodeToolValue(body string) any {
	trimmed := strings.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return body
}
