package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

// ToWire converts canonical messages to Anthropic message params. System
// messages have no wire envelope here; they are returned separately for the
// request's system field. Tool results move to user-role envelopes, which is
// where this wire format wants them.
func ToWire(msgs []content.Message) (system string, out []anthropic.MessageParam, err error) {
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

func convertMessage(m content.Message) ([]anthropic.MessageParam, error) {
	if m.IsText() {
		block := anthropic.NewTextBlock(m.Text)
		if m.Role == content.RoleAssistant {
			return []anthropic.MessageParam{anthropic.NewAssistantMessage(block)}, nil
		}
		return []anthropic.MessageParam{anthropic.NewUserMessage(block)}, nil
	}

	var (
		out     []anthropic.MessageParam
		pending []anthropic.ContentBlockParamUnion
	)

	role := m.Role
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if role == content.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(pending...))
		} else {
			out = append(out, anthropic.NewUserMessage(pending...))
		}
		pending = nil
	}

	for _, p := range m.Parts {
		switch v := p.(type) {
		case content.Text:
			pending = append(pending, anthropic.NewTextBlock(v.Text))

		case content.Image:
			pending = append(pending, anthropic.NewImageBlockBase64(v.MediaType, base64Of(v.Data)))

		case content.ImageRef:
			pending = append(pending, anthropic.ContentBlockParamUnion{
				OfImage: &anthropic.ImageBlockParam{
					Source: anthropic.ImageBlockParamSourceUnion{
						OfURL: &anthropic.URLImageSourceParam{URL: v.URL},
					},
				},
			})

		case content.Document:
			pending = append(pending, anthropic.ContentBlockParamUnion{
				OfDocument: &anthropic.DocumentBlockParam{
					Source: anthropic.DocumentBlockParamSourceUnion{
						OfBase64: &anthropic.Base64PDFSourceParam{Data: base64Of(v.Data)},
					},
				},
			})

		case content.ToolCall:
			// Tool calls share the assistant envelope with pending text, as
			// this wire format groups blocks inside one message.
			args, err := json.Marshal(v.Args)
			if err != nil {
				return nil, fault.Wrap(err, "encode tool call arguments")
			}
			pending = append(pending, anthropic.NewToolUseBlock(v.ID, json.RawMessage(args), v.Name))

		case content.ToolResult:
			// Tool results ride user-role envelopes of their own.
			flush()
			body, err := encodeToolValue(v.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(v.ID, body, v.IsError)))

		case content.CacheHint:
			if len(pending) == 0 {
				return nil, fault.Configurationf("backend %s: cache hint with no preceding part", backend.Anthropic)
			}
			applyCacheControl(&pending[len(pending)-1])

		default:
			return nil, fault.Unsupportedf("backend %s: no wire form for part kind %q", backend.Anthropic, content.KindOf(p))
		}
	}

	flush()
	return out, nil
}

// applyCacheControl attaches an ephemeral cache_control marker to whichever
// block the union holds.
func applyCacheControl(block *anthropic.ContentBlockParamUnion) {
	cc := anthropic.NewCacheControlEphemeralParam()
	switch {
	case block.OfText != nil:
		block.OfText.CacheControl = cc
	case block.OfImage != nil:
		block.OfImage.CacheControl = cc
	case block.OfDocument != nil:
		block.OfDocument.CacheControl = cc
	case block.OfToolUse != nil:
		block.OfToolUse.CacheControl = cc
	case block.OfToolResult != nil:
		block.OfToolResult.CacheControl = cc
	}
}

// FromWire converts Anthropic message params back to canonical messages.
// Blocks of one wire message merge into one canonical message; a lone text
// block collapses to the bare-string form.
func FromWire(ws []anthropic.MessageParam) ([]content.Message, error) {
	caps := Caps()
	out := make([]content.Message, 0, len(ws))

	for i, w := range ws {
		var parts []content.Part
		role := content.Role(w.Role)

		for _, block := range w.Content {
			part, err := fromWireBlock(caps, block)
			if err != nil {
				return nil, fmt.Errorf("wire message %d: %w", i, err)
			}
			if _, ok := part.(content.ToolResult); ok {
				role = content.RoleTool
			}
			parts = append(parts, part)
		}

		if parts == nil {
			return nil, fmt.Errorf("wire message %d: no recognizable content blocks", i)
		}
		out = append(out, content.Message{Role: role, Parts: parts}.Collapse())
	}
	return out, nil
}

func fromWireBlock(caps backend.Capabilities, block anthropic.ContentBlockParamUnion) (content.Part, error) {
	switch {
	case block.OfText != nil:
		return content.Text{Text: block.OfText.Text}, nil

	case block.OfImage != nil:
		src := block.OfImage.Source
		switch {
		case src.OfBase64 != nil:
			data, err := debase64(src.OfBase64.Data)
			if err != nil {
				return nil, err
			}
			part := content.Image{Data: data, MediaType: string(src.OfBase64.MediaType)}
			if err := caps.Validate(part); err != nil {
				return nil, err
			}
			return part, nil
		case src.OfURL != nil:
			return content.ImageRef{URL: src.OfURL.URL}, nil
		default:
			return nil, fault.Unsupportedf("backend %s: unrecognized image source", backend.Anthropic)
		}

	case block.OfDocument != nil:
		src := block.OfDocument.Source
		if src.OfBase64 == nil {
			return nil, fault.Unsupportedf("backend %s: unrecognized document source", backend.Anthropic)
		}
		data, err := debase64(src.OfBase64.Data)
		if err != nil {
			return nil, err
		}
		return content.Document{Data: data, MediaType: "application/pdf"}, nil

	case block.OfToolUse != nil:
		tu := block.OfToolUse
		raw, err := json.Marshal(tu.Input)
		if err != nil {
			return nil, fault.Wrap(err, "decode tool use input")
		}
		args, err := content.ParseArgs(raw)
		if err != nil {
			return nil, fault.Wrap(err, "decode tool use input")
		}
		return content.ToolCall{ID: tu.ID, Name: tu.Name, Args: args}, nil

	case block.OfToolResult != nil:
		tr := block.OfToolResult
		var text string
		for _, c := range tr.Content {
			if c.OfText != nil {
				text += c.OfText.Text
			}
		}
		return content.ToolResult{
			ID:      tr.ToolUseID,
			Value:   text,
			IsError: tr.IsError.Or(false),
		}, nil

	default:
		return nil, fault.Unsupportedf("backend %s: unrecognized wire content block", backend.Anthropic)
	}
}

// FromMessage converts a finished SDK response message to a canonical result.
func FromMessage(msg *anthropic.Message) (*backend.Result, error) {
	var parts []content.Part

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			parts = append(parts, content.Text{Text: b.Text})
		case anthropic.ToolUseBlock:
			raw, err := json.Marshal(b.Input)
			if err != nil {
				return nil, fault.Wrap(err, "decode tool use input")
			}
			args, err := content.ParseArgs(raw)
			if err != nil {
				return nil, fault.Wrap(err, "decode tool use input")
			}
			parts = append(parts, content.ToolCall{ID: b.ID, Name: b.Name, Args: args})
		default:
			return nil, fault.Unsupportedf("backend %s: unrecognized response block %T", backend.Anthropic, b)
		}
	}

	if parts == nil {
		parts = []content.Part{content.Text{}}
	}

	return &backend.Result{
		Message: content.Message{Role: content.RoleAssistant, Parts: parts}.Collapse(),
		Usage: content.Usage{
			InputTokens:  msg.Usage.InputTokens,
			CachedTokens: msg.Usage.CacheReadInputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
		Model:        string(msg.Model),
		ResponseID:   msg.ID,
		FinishReason: finishReason(string(msg.StopReason)),
	}, nil
}

func finishReason(raw string) content.FinishReason {
	switch raw {
	case "end_turn", "stop_sequence":
		return content.FinishStop
	case "max_tokens":
		return content.FinishLength
	case "tool_use":
		return content.FinishToolCalls
	case "refusal":
		return content.FinishFiltered
	default:
		return content.FinishReason(raw)
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
