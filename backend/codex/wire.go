package codex

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Responses-API wire shapes. The official SDKs do not cover this surface, so
// the request body and SSE payloads are modeled by hand.

type wireRequest struct {
	Model             string      `json:"model"`
	Store             bool        `json:"store"`
	Stream            bool        `json:"stream"`
	Instructions      string      `json:"instructions,omitempty"`
	Input             []InputItem `json:"input"`
	Include           []string    `json:"include,omitempty"`
	PromptCacheKey    string      `json:"prompt_cache_key,omitempty"`
	ToolChoice        any         `json:"tool_choice,omitempty"`
	ParallelToolCalls bool        `json:"parallel_tool_calls,omitempty"`
	Tools             []wireTool  `json:"tools,omitempty"`
	Text              *textConfig `json:"text,omitempty"`
	Temperature       *float64    `json:"temperature,omitempty"`
	TopP              *float64    `json:"top_p,omitempty"`
	MaxOutputTokens   *int        `json:"max_output_tokens,omitempty"`
}

type textConfig struct {
	Format *textFormat `json:"format,omitempty"`
}

type textFormat struct {
	Type   string         `json:"type"`
	Name   string         `json:"name,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
	Strict bool           `json:"strict,omitempty"`
}

type wireTool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type forcedTool struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// InputItem is one entry of the request's input list: a role message, a
// replayed function call, or a function call output.
type InputItem struct {
	Type      string         `json:"type,omitempty"`
	Role      string         `json:"role,omitempty"`
	Status    string         `json:"status,omitempty"`
	ID        string         `json:"id,omitempty"`
	Content   []InputContent `json:"content,omitempty"`
	CallID    string         `json:"call_id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments string         `json:"arguments,omitempty"`
	Output    string         `json:"output,omitempty"`
}

// InputContent is one content entry inside a role message.
type InputContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type sseEvent struct {
	Type      string           `json:"type"`
	Delta     string           `json:"delta"`
	Text      string           `json:"text"`
	Name      string           `json:"name"`
	CallID    string           `json:"call_id"`
	ItemID    string           `json:"item_id"`
	Arguments json.RawMessage  `json:"arguments"`
	Item      sseOutputItem    `json:"item"`
	Response  sseResponse      `json:"response"`
	Error     *sseErrorPayload `json:"error"`
}

type sseOutputItem struct {
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	ID        string          `json:"id"`
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Content   []sseOutputText `json:"content"`
}

type sseOutputText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type sseResponse struct {
	ID     string           `json:"id"`
	Model  string           `json:"model"`
	Status string           `json:"status"`
	Output []sseOutputItem  `json:"output"`
	Usage  *sseUsage        `json:"usage"`
	Error  *sseErrorPayload `json:"error"`
}

type sseUsage struct {
	InputTokens        int64 `json:"input_tokens"`
	OutputTokens       int64 `json:"output_tokens"`
	InputTokensDetails struct {
		CachedTokens int64 `json:"cached_tokens"`
	} `json:"input_tokens_details"`
}

type sseErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// toolName normalizes a tool name to the character set this wire accepts.
// Dots become underscores, anything outside [letter digit _ -] is replaced.
func toolName(name string) string {
	normalized := strings.TrimSpace(strings.ReplaceAll(name, ".", "_"))
	if normalized == "" {
		return "tool"
	}

	var sb strings.Builder
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}

	cleaned := sb.String()
	if cleaned == "" {
		return "tool"
	}
	return cleaned
}

// normalizeArguments cleans a streamed arguments payload: some events encode
// it as a JSON string, and partial fragments may not be valid JSON at all.
func normalizeArguments(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "{}"
	}

	var embedded string
	if json.Unmarshal([]byte(s), &embedded) == nil {
		s = strings.TrimSpace(embedded)
		if s == "" {
			return "{}"
		}
	}

	if !json.Valid([]byte(s)) {
		return "{}"
	}
	return s
}
