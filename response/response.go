// Package response wraps one finished backend call behind accessors that do
// not care which backend produced it.
package response

import (
	"encoding/json"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"
	"github.com/harunnryd/musubi/streaming"
)

// CostFunc prices one call from its model name and token usage. Pricing
// tables live with the caller, not here.
type CostFunc func(model string, usage content.Usage) float64

// Renderer turns a canonical message into display text.
type Renderer interface {
	Render(msg content.Message) (string, error)
}

// Response is one finished call.
type Response struct {
	result *backend.Result
	parser func(raw []byte) (any, error)
}

func New(result *backend.Result) *Response {
	return &Response{result: result}
}

// NewParsed attaches an output parser consulted by Parsed.
func NewParsed(result *backend.Result, parser func(raw []byte) (any, error)) *Response {
	return &Response{result: result, parser: parser}
}

// FromStream builds a response from a drained stream.
func FromStream(agg *streaming.Aggregator) (*Response, error) {
	msg, err := agg.Message()
	if err != nil {
		return nil, err
	}
	usage, err := agg.Usage()
	if err != nil {
		return nil, err
	}
	return New(&backend.Result{
		Message:      msg,
		Usage:        usage,
		Model:        agg.Model(),
		ResponseID:   agg.ResponseID(),
		FinishReason: agg.FinishReason(),
	}), nil
}

// Text returns the concatenated text of the reply.
func (r *Response) Text() string { return r.result.Message.PlainText() }

// Canonical returns the reply as a canonical message.
func (r *Response) Canonical() content.Message { return r.result.Message }

// ToolCalls returns the tool calls the model requested, in order.
func (r *Response) ToolCalls() []content.ToolCall { return r.result.Message.ToolCalls() }

func (r *Response) Usage() content.Usage               { return r.result.Usage }
func (r *Response) FinishReason() content.FinishReason { return r.result.FinishReason }
func (r *Response) Model() string                      { return r.result.Model }
func (r *Response) ID() string                         { return r.result.ResponseID }

// Cost prices the call with the supplied function.
func (r *Response) Cost(f CostFunc) float64 {
	return f(r.result.Model, r.result.Usage)
}

// Decode unmarshals the reply text as JSON into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal([]byte(r.Text()), v); err != nil {
		return fault.Wrap(err, "decode response body")
	}
	return nil
}

// Parsed runs the configured output parser over the reply text. Without a
// parser it returns the text unchanged.
func (r *Response) Parsed() (any, error) {
	if r.parser == nil {
		return r.Text(), nil
	}
	return r.parser([]byte(r.Text()))
}

// Render formats the reply with the supplied renderer.
func (r *Response) Render(rd Renderer) (string, error) {
	return rd.Render(r.result.Message)
}
