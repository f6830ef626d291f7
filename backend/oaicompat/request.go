package oaicompat

import (
	"encoding/json"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/fault"

	"github.com/meguminnnnnnnnn/go-openai"
)

// BuildRequest merges converted messages, tool schemas, structured-output
// settings and backend params into one chat-completion request.
func BuildRequest(name backend.Name, req backend.Request) (openai.ChatCompletionRequest, error) {
	msgs, err := ToWire(name, req.Messages)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}

	out := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: msgs,
	}

	for _, d := range req.Tools {
		params := d.Parameters
		if params == nil {
			params = map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			}
		}
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}

	switch req.ToolChoice.Mode {
	case backend.TCNone:
		out.ToolChoice = "none"
	case backend.TCRequired:
		if req.ToolChoice.Name != "" {
			out.ToolChoice = openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: req.ToolChoice.Name},
			}
		} else {
			out.ToolChoice = "required"
		}
	}

	if req.JSONMode {
		if len(req.JSONSchema) > 0 {
			raw, err := json.Marshal(req.JSONSchema)
			if err != nil {
				return openai.ChatCompletionRequest{}, fault.Wrap(err, "encode response schema")
			}
			out.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   "response",
					Schema: json.RawMessage(raw),
					Strict: true,
				},
			}
		} else {
			out.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		}
	}

	if err := applyParams(&out, req.Params); err != nil {
		return openai.ChatCompletionRequest{}, err
	}
	return out, nil
}

// applyParams maps the backend-neutral param bag onto request fields. Unknown
// keys fail loudly so typos do not silently change call behavior.
func applyParams(req *openai.ChatCompletionRequest, params map[string]any) error {
	for key, val := range params {
		switch key {
		case "temperature":
			f, err := floatParam(key, val)
			if err != nil {
				return err
			}
			t := float32(f)
			req.Temperature = &t
		case "top_p":
			f, err := floatParam(key, val)
			if err != nil {
				return err
			}
			req.TopP = float32(f)
		case "max_tokens":
			n, err := intParam(key, val)
			if err != nil {
				return err
			}
			req.MaxTokens = n
		case "max_completion_tokens":
			n, err := intParam(key, val)
			if err != nil {
				return err
			}
			req.MaxCompletionTokens = n
		case "frequency_penalty":
			f, err := floatParam(key, val)
			if err != nil {
				return err
			}
			req.FrequencyPenalty = float32(f)
		case "presence_penalty":
			f, err := floatParam(key, val)
			if err != nil {
				return err
			}
			req.PresencePenalty = float32(f)
		case "seed":
			n, err := intParam(key, val)
			if err != nil {
				return err
			}
			req.Seed = &n
		case "stop":
			switch s := val.(type) {
			case string:
				req.Stop = []string{s}
			case []string:
				req.Stop = s
			case []any:
				for _, item := range s {
					str, ok := item.(string)
					if !ok {
						return fault.Configurationf("param stop: expected strings, got %T", item)
					}
					req.Stop = append(req.Stop, str)
				}
			default:
				return fault.Configurationf("param stop: expected string or string list, got %T", val)
			}
		case "user":
			s, ok := val.(string)
			if !ok {
				return fault.Configurationf("param user: expected string, got %T", val)
			}
			req.User = s
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
