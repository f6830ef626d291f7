// Package anthropic is the Anthropic Messages backend.
package anthropic

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"
	"github.com/harunnryd/musubi/streaming"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 4096

// Caps returns the Anthropic allow-list: text, tools, raster images, PDF
// documents and cache hints. No audio.
func Caps() backend.Capabilities {
	return backend.Capabilities{
		Backend: backend.Anthropic,
		Parts: map[content.Kind][]string{
			content.KindText:       nil,
			content.KindImage:      backend.ImageMediaTypes,
			content.KindImageRef:   nil,
			content.KindDocument:   backend.PDFMediaTypes,
			content.KindToolCall:   nil,
			content.KindToolResult: nil,
			content.KindCacheHint:  nil,
		},
	}
}

// Invoker drives the Anthropic Messages API.
type Invoker struct {
	client anthropic.Client
	caps   backend.Capabilities
}

func New(apiKey string) *Invoker {
	return &Invoker{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		caps:   Caps(),
	}
}

// NewWithClient wraps a caller-supplied client handle.
func NewWithClient(client anthropic.Client) *Invoker {
	return &Invoker{client: client, caps: Caps()}
}

func (i *Invoker) Name() backend.Name                 { return backend.Anthropic }
func (i *Invoker) Capabilities() backend.Capabilities { return i.caps }

func (i *Invoker) Complete(ctx context.Context, req backend.Request) (*backend.Result, error) {
	params, err := i.prepare(req)
	if err != nil {
		return nil, err
	}

	msg, err := i.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fault.FromSDK(err)
	}

	result, err := FromMessage(msg)
	if err != nil {
		return nil, err
	}
	slog.Debug("completion finished", "backend", backend.Anthropic, "model", result.Model, "finish", result.FinishReason)
	return result, nil
}

func (i *Invoker) Stream(ctx context.Context, req backend.Request) (streaming.Stream, error) {
	params, err := i.prepare(req)
	if err != nil {
		return nil, err
	}
	return wrapStream(i.client.Messages.NewStreaming(ctx, params)), nil
}

func (i *Invoker) prepare(req backend.Request) (anthropic.MessageNewParams, error) {
	if err := i.caps.ValidateMessages(req.Messages); err != nil {
		return anthropic.MessageNewParams{}, err
	}

	system, msgs, err := ToWire(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: defaultMaxTokens,
		Messages:  msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	for _, d := range req.Tools {
		tool := anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: anthropic.ToolInputSchemaParam{Properties: map[string]any{}},
		}
		if props, ok := d.Parameters["properties"].(map[string]any); ok {
			tool.InputSchema = anthropic.ToolInputSchemaParam{Properties: props}
			if req2, ok := d.Parameters["required"]; ok {
				tool.InputSchema.Required = stringSlice(req2)
			}
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &tool})
	}

	switch req.ToolChoice.Mode {
	case backend.TCNone:
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
	case backend.TCRequired:
		if req.ToolChoice.Name != "" {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfTool: &anthropic.ToolChoiceToolParam{Name: req.ToolChoice.Name},
			}
		} else {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
		}
	}

	if err := applyParams(&params, req.Params); err != nil {
		return anthropic.MessageNewParams{}, err
	}
	return params, nil
}

func applyParams(params *anthropic.MessageNewParams, raw map[string]any) error {
	for key, val := range raw {
		switch key {
		case "max_tokens":
			n, err := intParam(key, val)
			if err != nil {
				return err
			}
			params.MaxTokens = int64(n)
		case "temperature":
			f, err := floatParam(key, val)
			if err != nil {
				return err
			}
			params.Temperature = anthropic.Float(f)
		case "top_p":
			f, err := floatParam(key, val)
			if err != nil {
				return err
			}
			params.TopP = anthropic.Float(f)
		case "top_k":
			n, err := intParam(key, val)
			if err != nil {
				return err
			}
			params.TopK = anthropic.Int(int64(n))
		case "stop":
			switch s := val.(type) {
			case string:
				params.StopSequences = []string{s}
			case []string:
				params.StopSequences = s
			default:
				return fault.Configurationf("param stop: expected string or string list, got %T", val)
			}
		default:
			return fault.Configurationf("unknown backend param %q", key)
		}
	}
	return nil
}

func floatParam(key string, v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return 0, fault.Configurationf("param %s: expected number, got %T", key, v)
	}
}

func intParam(key string, v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	default:
		return 0, fault.Configurationf("param %s: expected integer, got %T", key, v)
	}
}

func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func base64Of(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func debase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fault.Wrap(err, "decode base64 payload")
	}
	return b, nil
}
