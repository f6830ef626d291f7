// Package dispatch executes one call against whichever backend the resolved
// configuration selects.
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/conf"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"
	"github.com/harunnryd/musubi/internal/logging"
	"github.com/harunnryd/musubi/response"
	"github.com/harunnryd/musubi/streaming"
	"github.com/harunnryd/musubi/toolbind"
)

// extractionTool is the synthesized tool used to obtain schema-shaped output
// from backends without native strict structured output.
const extractionTool = "structured_response"

// Dispatcher resolves per-call configuration and routes the call to the
// selected backend.
type Dispatcher struct {
	registry *Registry
	defaults conf.CallConfig
}

func New(registry *Registry, defaults conf.CallConfig) *Dispatcher {
	return &Dispatcher{registry: registry, defaults: defaults}
}

// NewFromRegistry wires a dispatcher straight from a loaded registry, using
// its declared defaults. A declared logging level installs the default
// handler.
func NewFromRegistry(reg *conf.Registry) *Dispatcher {
	if reg.Logging.Level != "" {
		logging.Setup(reg.Logging.Level)
	}
	return &Dispatcher{registry: NewRegistry(reg), defaults: reg.DefaultConfig()}
}

// withTrace mints a trace ID when the caller did not attach one, so every
// log line for the call chain carries the same tag.
func withTrace(ctx context.Context) context.Context {
	if logging.GetTraceID(ctx) == "" {
		return logging.WithTraceID(ctx, logging.NewTraceID())
	}
	return ctx
}

// Call runs one non-streaming call. Configuration resolves as declared
// defaults, then ambient context overlays, then the explicit override.
func (d *Dispatcher) Call(ctx context.Context, msgs []content.Message, override *conf.Overlay) (*response.Response, error) {
	ctx = withTrace(ctx)
	cfg, inv, err := d.resolve(ctx, override)
	if err != nil {
		return nil, err
	}
	return d.complete(ctx, inv, cfg, msgs)
}

// CallStream runs one streaming call and hands back the raw chunk stream.
func (d *Dispatcher) CallStream(ctx context.Context, msgs []content.Message, override *conf.Overlay) (streaming.Stream, error) {
	ctx = withTrace(ctx)
	cfg, inv, err := d.resolve(ctx, override)
	if err != nil {
		return nil, err
	}

	req, extracted, err := buildRequest(cfg, inv.Capabilities(), msgs)
	if err != nil {
		return nil, err
	}
	if extracted {
		return nil, errStreamExtraction()
	}

	slog.Info("dispatching call",
		"backend", cfg.Backend, "model", cfg.Model, "stream", true,
		"trace_id", logging.GetTraceID(ctx))
	return inv.Stream(ctx, req)
}

// errStreamExtraction rejects streaming schema output on backends without
// native structured output: the extraction tool's arguments only exist once
// the stream has closed, so there is nothing to stream.
func errStreamExtraction() error {
	return &fault.ConfigurationError{
		Field:  "response_schema",
		Reason: "streaming schema output requires a backend with native structured output",
	}
}

// Dispatch honors the resolved Stream flag: exactly one of the returns is
// non-nil on success.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs []content.Message, override *conf.Overlay) (*response.Response, streaming.Stream, error) {
	ctx = withTrace(ctx)
	cfg, inv, err := d.resolve(ctx, override)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Stream {
		req, extracted, err := buildRequest(cfg, inv.Capabilities(), msgs)
		if err != nil {
			return nil, nil, err
		}
		if extracted {
			return nil, nil, errStreamExtraction()
		}
		slog.Info("dispatching call",
			"backend", cfg.Backend, "model", cfg.Model, "stream", true,
			"trace_id", logging.GetTraceID(ctx))
		stream, err := inv.Stream(ctx, req)
		return nil, stream, err
	}

	resp, err := d.complete(ctx, inv, cfg, msgs)
	return resp, nil, err
}

func (d *Dispatcher) resolve(ctx context.Context, override *conf.Overlay) (conf.CallConfig, backend.Invoker, error) {
	cfg, err := conf.ResolveContext(ctx, d.defaults, override)
	if err != nil {
		return conf.CallConfig{}, nil, err
	}
	if cfg.Backend == "" {
		return conf.CallConfig{}, nil, &fault.ConfigurationError{
			Field:  "backend",
			Reason: "no backend selected by any configuration layer",
		}
	}

	if inv, ok := cfg.Client.(backend.Invoker); ok {
		return cfg, inv, nil
	}
	inv, err := d.registry.Invoker(ctx, cfg.Backend)
	if err != nil {
		return conf.CallConfig{}, nil, err
	}
	return cfg, inv, nil
}

func (d *Dispatcher) complete(ctx context.Context, inv backend.Invoker, cfg conf.CallConfig, msgs []content.Message) (*response.Response, error) {
	req, extracted, err := buildRequest(cfg, inv.Capabilities(), msgs)
	if err != nil {
		return nil, err
	}

	slog.Info("dispatching call",
		"backend", cfg.Backend, "model", cfg.Model, "stream", false,
		"trace_id", logging.GetTraceID(ctx))

	result, err := inv.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if extracted {
		if err := liftExtraction(result); err != nil {
			return nil, err
		}
	}
	return response.NewParsed(result, cfg.OutputParser), nil
}

// buildRequest turns a resolved configuration and canonical messages into a
// backend request. The second return reports whether schema output rides a
// synthesized extraction tool and must be lifted out of the reply.
func buildRequest(cfg conf.CallConfig, caps backend.Capabilities, msgs []content.Message) (backend.Request, bool, error) {
	req := backend.Request{
		Model:    cfg.Model,
		Messages: msgs,
		Tools:    cfg.Tools,
		Params:   cfg.Params,
	}

	if cfg.ResponseSchema != nil {
		if caps.StrictJSON {
			req.JSONMode = true
			req.JSONSchema = cfg.ResponseSchema
			return req, false, nil
		}
		// No native structured output: force a single tool call shaped by
		// the schema and lift its arguments afterwards.
		desc := toolbind.FromSchema(extractionTool,
			"Record the final answer in the required structure.", cfg.ResponseSchema, nil)
		req.Tools = []toolbind.Descriptor{desc}
		req.ToolChoice = backend.ToolChoice{Mode: backend.TCRequired, Name: extractionTool}
		return req, true, nil
	}

	if cfg.JSONMode {
		if caps.StrictJSON {
			req.JSONMode = true
		} else {
			req.Messages = withJSONInstruction(msgs)
		}
	}
	return req, false, nil
}

// withJSONInstruction appends the prompt-level fallback for backends without
// a JSON response mode.
func withJSONInstruction(msgs []content.Message) []content.Message {
	out := make([]content.Message, 0, len(msgs)+1)
	out = append(out, msgs...)
	out = append(out, content.NewText(content.RoleSystem,
		"Respond with a single valid JSON object and nothing else."))
	return out
}

// liftExtraction rewrites the forced extraction tool call into a plain JSON
// text reply.
func liftExtraction(result *backend.Result) error {
	for _, tc := range result.Message.ToolCalls() {
		if tc.Name != extractionTool {
			continue
		}
		raw, err := json.Marshal(tc.Args)
		if err != nil {
			return fault.Wrap(err, "marshal extracted arguments")
		}
		result.Message = content.NewText(content.RoleAssistant, string(raw))
		result.FinishReason = content.FinishStop
		return nil
	}
	return fault.Internal("backend returned no structured extraction call")
}
