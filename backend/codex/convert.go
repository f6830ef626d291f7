package codex

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"
)

// ToWire converts canonical messages to Responses-API input items. System
// text is returned separately as the request's instructions string.
func ToWire(msgs []content.Message) (instructions string, items []InputItem, err error) {
	for i, m := range msgs {
		if m.Role == content.RoleSystem {
			text, err := backend.SystemText(m)
			if err != nil {
				return "", nil, fmt.Errorf("message %d: %w", i, err)
			}
			instructions += text
			continue
		}

		wire, err := convertMessage(i, m)
		if err != nil {
			return "", nil, fmt.Errorf("message %d: %w", i, err)
		}
		items = append(items, wire...)
	}
	return instructions, items, nil
}

func convertMessage(seq int, m content.Message) ([]InputItem, error) {
	var (
		items   []InputItem
		pending []InputContent
	)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		switch m.Role {
		case content.RoleAssistant:
			items = append(items, InputItem{
				Type:    "message",
				Role:    "assistant",
				Status:  "completed",
				ID:      fmt.Sprintf("msg_%d", seq),
				Content: pending,
			})
		default:
			items = append(items, InputItem{Role: "user", Content: pending})
		}
		pending = nil
	}

	contentType := "input_text"
	if m.Role == content.RoleAssistant {
		contentType = "output_text"
	}

	for _, p := range m.AsParts() {
		switch v := p.(type) {
		case content.Text:
			pending = append(pending, InputContent{Type: contentType, Text: v.Text})

		case content.Image:
			pending = append(pending, InputContent{
				Type:     "input_image",
				ImageURL: dataURL(v.MediaType, v.Data),
				Detail:   v.Detail,
			})

		case content.ImageRef:
			pending = append(pending, InputContent{
				Type:     "input_image",
				ImageURL: v.URL,
				Detail:   v.Detail,
			})

		case content.ToolCall:
			if m.Role != content.RoleAssistant {
				return nil, fault.Configurationf("tool_call part on role %q", m.Role)
			}
			flush()
			args, err := json.Marshal(v.Args)
			if err != nil {
				return nil, fault.Wrap(err, "marshal tool arguments")
			}
			items = append(items, InputItem{
				Type:      "function_call",
				CallID:    v.ID,
				Name:      toolName(v.Name),
				Arguments: normalizeArguments(string(args)),
			})

		case content.ToolResult:
			flush()
			items = append(items, InputItem{
				Type:   "function_call_output",
				CallID: v.ID,
				Output: encodeToolValue(v),
			})

		default:
			return nil, fault.Unsupportedf("backend %s: no wire form for part kind %q", backend.Codex, content.KindOf(p))
		}
	}

	flush()
	return items, nil
}

func encodeToolValue(v content.ToolResult) string {
	if s, ok := v.Value.(string); ok {
		return s
	}
	raw, err := json.Marshal(v.Value)
	if err != nil {
		return fmt.Sprint(v.Value)
	}
	return string(raw)
}

// FromWire converts Responses-API input items back to canonical messages.
func FromWire(items []InputItem) ([]content.Message, error) {
	caps := Caps()
	var out []content.Message

	for i, item := range items {
		switch item.Type {
		case "function_call":
			args, err := content.ParseArgs([]byte(normalizeArguments(item.Arguments)))
			if err != nil {
				return nil, fmt.Errorf("input item %d: tool arguments: %w", i, err)
			}
			out = append(out, content.NewParts(content.RoleAssistant, content.ToolCall{
				ID:   item.CallID,
				Name: item.Name,
				Args: args,
			}))

		case "function_call_output":
			out = append(out, content.NewParts(content.RoleTool, content.ToolResult{
				ID:    item.CallID,
				Value: decodeToolValue(item.Output),
			}))

		case "", "message":
			role := content.RoleUser
			if item.Role == "assistant" {
				role = content.RoleAssistant
			}
			var parts []content.Part
			for _, c := range item.Content {
				part, err := fromWireContent(caps, c)
				if err != nil {
					return nil, fmt.Errorf("input item %d: %w", i, err)
				}
				parts = append(parts, part)
			}
			if parts == nil {
				return nil, fmt.Errorf("input item %d: no recognizable content", i)
			}
			out = append(out, content.Message{Role: role, Parts: parts}.Collapse())

		default:
			return nil, fmt.Errorf("input item %d: unrecognized type %q", i, item.Type)
		}
	}
	return out, nil
}

func fromWireContent(caps backend.Capabilities, c InputContent) (content.Part, error) {
	switch c.Type {
	case "input_text", "output_text", "text":
		return content.Text{Text: c.Text}, nil
	case "input_image":
		if mediaType, data, ok := parseDataURL(c.ImageURL); ok {
			part := content.Image{Data: data, MediaType: mediaType, Detail: c.Detail}
			if err := caps.Validate(part); err != nil {
				return nil, err
			}
			return part, nil
		}
		return content.ImageRef{URL: c.ImageURL, Detail: c.Detail}, nil
	default:
		return nil, fmt.Errorf("unrecognized content type %q", c.Type)
	}
}

func decodeToolValue(s string) any {
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err == nil {
		switch decoded.(type) {
		case map[string]any, []any:
			return decoded
		}
	}
	return s
}

func dataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func parseDataURL(s string) (mediaType string, data []byte, ok bool) {
	const prefix = "data:"
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return "", nil, false
	}
	rest := s[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == ',' {
			meta := rest[:i]
			const marker = ";base64"
			if len(meta) < len(marker) || meta[len(meta)-len(marker):] != marker {
				return "", nil, false
			}
			decoded, err := base64.StdEncoding.DecodeString(rest[i+1:])
			if err != nil {
				return "", nil, false
			}
			return meta[:len(meta)-len(marker)], decoded, true
		}
	}
	return "", nil, false
}
