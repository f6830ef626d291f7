package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"

	"google.golang.org/genai"
)

// Role names on this wire: the assistant is "model", tool results ride a
// dedicated "function" role.
const (
	roleUser     = "user"
	roleModel    = "model"
	roleFunction = "function"
)

// ToWire converts canonical messages to genai contents. System messages are
// returned separately for the request's system instruction. Tool results
// split into dedicated function-role contents.
func ToWire(msgs []content.Message) (system string, out []*genai.Content, err error) {
	for i, m := range msgs {
		if m.Role == content.RoleSystem {
			text, err := backend.SystemText(m)
			if err != nil {
				return "", nil, fmt.Errorf("message %d: %w", i, err)
			}
			system += text
			continue
		}

		wire, err := convertMessage(m)
		if err != nil {
			return "", nil, fmt.Errorf("message %d: %w", i, err)
		}
		out = append(out, wire...)
	}
	return system, out, nil
}

func wireRole(r content.Role) string {
	if r == content.RoleAssistant {
		return roleModel
	}
	return roleUser
}

func convertMessage(m content.Message) ([]*genai.Content, error) {
	if m.IsText() {
		return []*genai.Content{{Role: wireRole(m.Role), Parts: []*genai.Part{{Text: m.Text}}}}, nil
	}

	var (
		out     []*genai.Content
		pending []*genai.Part
	)

	flush := func(role string) {
		if len(pending) == 0 {
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: pending})
		pending = nil
	}

	for _, p := range m.Parts {
		switch v := p.(type) {
		case content.Text:
			pending = append(pending, &genai.Part{Text: v.Text})

		case content.Image:
			pending = append(pending, &genai.Part{
				InlineData: &genai.Blob{MIMEType: v.MediaType, Data: append([]byte(nil), v.Data...)},
			})

		case content.ImageRef:
			pending = append(pending, &genai.Part{
				FileData: &genai.FileData{FileURI: v.URL},
			})

		case content.Audio:
			pending = append(pending, &genai.Part{
				InlineData: &genai.Blob{MIMEType: v.MediaType, Data: append([]byte(nil), v.Data...)},
			})

		case content.AudioRef:
			pending = append(pending, &genai.Part{
				FileData: &genai.FileData{FileURI: v.URL},
			})

		case content.Document:
			pending = append(pending, &genai.Part{
				InlineData: &genai.Blob{MIMEType: v.MediaType, Data: append([]byte(nil), v.Data...)},
			})

		case content.ToolCall:
			pending = append(pending, &genai.Part{
				FunctionCall: &genai.FunctionCall{ID: v.ID, Name: v.Name, Args: v.Args.Map()},
			})

		case content.ToolResult:
			flush(wireRole(m.Role))
			out = append(out, &genai.Content{
				Role: roleFunction,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       v.ID,
						Name:     v.Name,
						Response: toolResponseMap(v),
					},
				}},
			})

		default:
			return nil, fault.Unsupportedf("backend %s: no wire form for part kind %q", backend.Gemini, content.KindOf(p))
		}
	}

	flush(wireRole(m.Role))
	if len(out) == 0 {
		out = append(out, &genai.Content{Role: wireRole(m.Role), Parts: []*genai.Part{{Text: ""}}})
	}
	return out, nil
}

// toolResponseMap wraps a tool result the way this wire wants it: a JSON
// object, with scalar outputs nested under "output" and failures under
// "error".
func toolResponseMap(v content.ToolResult) map[string]any {
	if v.IsError {
		return map[string]any{"error": fmt.Sprint(v.Value)}
	}
	if m, ok := v.Value.(map[string]any); ok {
		return m
	}
	if s, ok := v.Value.(string); ok {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			return decoded
		}
	}
	return map[string]any{"output": v.Value}
}

// FromWire converts genai contents back to canonical messages.
func FromWire(ws []*genai.Content) ([]content.Message, error) {
	caps := Caps()
	out := make([]content.Message, 0, len(ws))

	for i, w := range ws {
		var parts []content.Part
		role := content.RoleUser
		switch w.Role {
		case roleModel:
			role = content.RoleAssistant
		case roleFunction:
			role = content.RoleTool
		}

		for _, p := range w.Parts {
			part, err := fromWirePart(caps, p)
			if err != nil {
				return nil, fmt.Errorf("wire content %d: %w", i, err)
			}
			parts = append(parts, part)
		}

		if parts == nil {
			return nil, fmt.Errorf("wire content %d: no recognizable parts", i)
		}
		out = append(out, content.Message{Role: role, Parts: parts}.Collapse())
	}
	return out, nil
}

func fromWirePart(caps backend.Capabilities, p *genai.Part) (content.Part, error) {
	switch {
	case p.FunctionCall != nil:
		return content.ToolCall{
			ID:   p.FunctionCall.ID,
			Name: p.FunctionCall.Name,
			Args: argsFromMap(p.FunctionCall.Args),
		}, nil

	case p.FunctionResponse != nil:
		fr := p.FunctionResponse
		result := content.ToolResult{ID: fr.ID, Name: fr.Name}
		if errVal, ok := fr.Response["error"]; ok && len(fr.Response) == 1 {
			result.IsError = true
			result.Value = errVal
		} else if out, ok := fr.Response["output"]; ok && len(fr.Response) == 1 {
			result.Value = out
		} else {
			result.Value = map[string]any(fr.Response)
		}
		return result, nil

	case p.InlineData != nil:
		return inlinePart(caps, p.InlineData)

	case p.FileData != nil:
		return content.ImageRef{URL: p.FileData.FileURI}, nil

	case p.Text != "":
		return content.Text{Text: p.Text}, nil

	default:
		// Executable-code and video-metadata parts have no canonical
		// counterpart; dropping them would lose content.
		return nil, fault.Unsupported("wire part carries no recognized payload")
	}
}

func inlinePart(caps backend.Capabilities, blob *genai.Blob) (content.Part, error) {
	data := append([]byte(nil), blob.Data...)
	var part content.Part
	switch {
	case blob.MIMEType == "application/pdf":
		part = content.Document{Data: data, MediaType: blob.MIMEType}
	case len(blob.MIMEType) >= 6 && blob.MIMEType[:6] == "audio/":
		part = content.Audio{Data: data, MediaType: blob.MIMEType}
	default:
		part = content.Image{Data: data, MediaType: blob.MIMEType}
	}
	if err := caps.Validate(part); err != nil {
		return nil, err
	}
	return part, nil
}

// argsFromMap imposes a stable order on an unordered wire map. This wire
// format hands back plain JSON objects, so insertion order is lost; sorted
// keys keep conversion deterministic.
func argsFromMap(m map[string]any) content.Args {
	if len(m) == 0 {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	args, err := content.ParseArgs(raw)
	if err != nil {
		return nil
	}
	return args
}
