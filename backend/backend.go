// Package backend defines the contracts every backend package implements:
// capability tables, canonical-to-wire conversion, and the transport surface
// the dispatcher invokes.
package backend

import (
	"context"

	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/streaming"
	"github.com/harunnryd/musubi/toolbind"
)

// Name identifies one backend.
type Name string

const (
	Anthropic Name = "anthropic"
	OpenAI    Name = "openai"
	Gemini    Name = "gemini"
	Codex     Name = "codex"
	DeepSeek  Name = "deepseek"
	Qwen      Name = "qwen"
	ZAI       Name = "zai"
	Groq      Name = "groq"
	Ollama    Name = "ollama"
)

// Request is the backend-independent request the dispatcher hands to an
// invoker. Messages are canonical; the invoker runs its own outbound
// converter before touching the SDK.
type Request struct {
	Model      string
	Messages   []content.Message
	Tools      []toolbind.Descriptor
	ToolChoice ToolChoice
	JSONMode   bool
	// JSONSchema constrains output shape when JSONMode is set and the
	// backend supports strict structured output.
	JSONSchema map[string]any
	// Params are backend-specific knobs merged verbatim into the wire
	// request (temperature, max tokens and the like).
	Params map[string]any
}

// ToolChoice mirrors the three wire-level tool-choice modes.
type ToolChoice struct {
	Mode TCMode
	// Name forces one specific tool when Mode is Required.
	Name string
}

type TCMode string

const (
	TCAuto     TCMode = "auto"
	TCNone     TCMode = "none"
	TCRequired TCMode = "required"
)

// Result is one finished non-streaming call, already converted back to the
// canonical model.
type Result struct {
	Message      content.Message
	Usage        content.Usage
	Model        string
	ResponseID   string
	FinishReason content.FinishReason
}

// Invoker is one configured backend: capability table plus the two transport
// shapes. Complete blocks until the backend answers; Stream returns a
// pull-based chunk sequence. Both run the outbound converter and validation
// before any network-shaped object exists.
type Invoker interface {
	Name() Name
	Capabilities() Capabilities
	Complete(ctx context.Context, req Request) (*Result, error)
	Stream(ctx context.Context, req Request) (streaming.Stream, error)
}
