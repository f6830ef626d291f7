// Package gemini is the Google Gemini backend.
package gemini

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"
	"github.com/harunnryd/musubi/streaming"

	"google.golang.org/genai"
)

// Caps returns the Gemini allow-list. Widest media surface of the pack:
// raster images, inline audio, PDF documents and file references, plus
// strict structured output.
func Caps() backend.Capabilities {
	return backend.Capabilities{
		Backend:    backend.Gemini,
		StrictJSON: true,
		Parts: map[content.Kind][]string{
			content.KindText:       nil,
			content.KindImage:      backend.ImageMediaTypes,
			content.KindImageRef:   nil,
			content.KindAudio:      backend.AudioMediaTypes,
			content.KindAudioRef:   nil,
			content.KindDocument:   backend.PDFMediaTypes,
			content.KindToolCall:   nil,
			content.KindToolResult: nil,
		},
	}
}

// Invoker drives the Gemini generateContent API.
type Invoker struct {
	client *genai.Client
	caps   backend.Capabilities
}

func New(ctx context.Context, apiKey string) (*Invoker, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fault.Wrap(err, "create gemini client")
	}
	return &Invoker{client: client, caps: Caps()}, nil
}

// NewWithClient wraps a caller-supplied client handle.
func NewWithClient(client *genai.Client) *Invoker {
	return &Invoker{client: client, caps: Caps()}
}

func (i *Invoker) Name() backend.Name                 { return backend.Gemini }
func (i *Invoker) Capabilities() backend.Capabilities { return i.caps }

func (i *Invoker) Complete(ctx context.Context, req backend.Request) (*backend.Result, error) {
	contents, config, err := i.prepare(req)
	if err != nil {
		return nil, err
	}

	resp, err := i.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fault.FromSDK(err)
	}

	result, err := FromResponse(resp)
	if err != nil {
		return nil, err
	}
	slog.Debug("completion finished", "backend", backend.Gemini, "model", result.Model, "finish", result.FinishReason)
	return result, nil
}

func (i *Invoker) Stream(ctx context.Context, req backend.Request) (streaming.Stream, error) {
	contents, config, err := i.prepare(req)
	if err != nil {
		return nil, err
	}
	return wrapStream(i.client.Models.GenerateContentStream(ctx, req.Model, contents, config)), nil
}

func (i *Invoker) prepare(req backend.Request) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	if err := i.caps.ValidateMessages(req.Messages); err != nil {
		return nil, nil, err
	}

	system, contents, err := ToWire(req.Messages)
	if err != nil {
		return nil, nil, err
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, d := range req.Tools {
			schema, err := schemaOf(d.Name, d.Parameters)
			if err != nil {
				return nil, nil, err
			}
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  schema,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	switch req.ToolChoice.Mode {
	case backend.TCNone:
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeNone},
		}
	case backend.TCRequired:
		fcc := &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAny}
		if req.ToolChoice.Name != "" {
			fcc.AllowedFunctionNames = []string{req.ToolChoice.Name}
		}
		config.ToolConfig = &genai.ToolConfig{FunctionCallingConfig: fcc}
	}

	if req.JSONMode {
		config.ResponseMIMEType = "application/json"
		if req.JSONSchema != nil {
			schema, err := schemaOf("response", req.JSONSchema)
			if err != nil {
				return nil, nil, err
			}
			config.ResponseSchema = schema
		}
	}

	if err := applyParams(config, req.Params); err != nil {
		return nil, nil, err
	}
	return contents, config, nil
}

// schemaOf rebuilds a JSON-schema map as the SDK's typed schema by round-
// tripping through JSON.
func schemaOf(name string, params map[string]any) (*genai.Schema, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fault.Configurationf("tool %s: marshal schema: %v", name, err)
	}
	var schema genai.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fault.Configurationf("tool %s: schema not expressible on this wire: %v", name, err)
	}
	return &schema, nil
}

func applyParams(config *genai.GenerateContentConfig, raw map[string]any) error {
	for key, val := range raw {
		switch key {
		case "temperature":
			f, err := floatParam(key, val)
			if err != nil {
				return err
			}
			config.Temperature = genai.Ptr(float32(f))
		case "top_p":
			f, err := floatParam(key, val)
			if err != nil {
				return err
			}
			config.TopP = genai.Ptr(float32(f))
		case "top_k":
			f, err := floatParam(key, val)
			if err != nil {
				return err
			}
			config.TopK = genai.Ptr(float32(f))
		case "max_tokens":
			n, err := intParam(key, val)
			if err != nil {
				return err
			}
			config.MaxOutputTokens = int32(n)
		case "seed":
			n, err := intParam(key, val)
			if err != nil {
				return err
			}
			config.Seed = genai.Ptr(int32(n))
		case "stop":
			switch s := val.(type) {
			case string:
				config.StopSequences = []string{s}
			case []string:
				config.StopSequences = s
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

// FromResponse converts a finished generateContent response to a canonical
// result.
func FromResponse(resp *genai.GenerateContentResponse) (*backend.Result, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fault.Internal("empty response")
	}

	cand := resp.Candidates[0]
	var parts []content.Part
	if cand.Content != nil {
		// Live replies keep text and function calls only. Auxiliary parts
		// the model may attach (thought summaries, executable code) have no
		// canonical counterpart and are elided here, unlike FromWire, which
		// treats an unrecognized stored part as an error.
		for _, p := range cand.Content.Parts {
			switch {
			case p.FunctionCall != nil:
				parts = append(parts, content.ToolCall{
					ID:   toolCallID(p.FunctionCall),
					Name: p.FunctionCall.Name,
					Args: argsFromMap(p.FunctionCall.Args),
				})
			case p.Text != "":
				parts = append(parts, content.Text{Text: p.Text})
			}
		}
	}
	if parts == nil {
		parts = []content.Part{content.Text{}}
	}

	result := &backend.Result{
		Message:      content.Message{Role: content.RoleAssistant, Parts: parts}.Collapse(),
		Model:        resp.ModelVersion,
		ResponseID:   resp.ResponseID,
		FinishReason: finishReason(cand.FinishReason, len(content.Message{Parts: parts}.ToolCalls()) > 0),
	}
	if resp.UsageMetadata != nil {
		result.Usage = usageFrom(resp.UsageMetadata)
	}
	return result, nil
}

// toolCallID falls back to the function name when the wire omits an ID, so
// results can be correlated on the way back.
func toolCallID(fc *genai.FunctionCall) string {
	if fc.ID != "" {
		return fc.ID
	}
	return fc.Name
}

func usageFrom(u *genai.GenerateContentResponseUsageMetadata) content.Usage {
	return content.Usage{
		InputTokens:  int64(u.PromptTokenCount),
		CachedTokens: int64(u.CachedContentTokenCount),
		OutputTokens: int64(u.CandidatesTokenCount),
	}
}

func finishReason(fr genai.FinishReason, sawToolCall bool) content.FinishReason {
	switch fr {
	case genai.FinishReasonStop:
		if sawToolCall {
			return content.FinishToolCalls
		}
		return content.FinishStop
	case genai.FinishReasonMaxTokens:
		return content.FinishLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation,
		genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent:
		return content.FinishFiltered
	default:
		return ""
	}
}
