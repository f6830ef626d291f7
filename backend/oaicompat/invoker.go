package oaicompat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/fault"
	"github.com/harunnryd/musubi/streaming"

	"github.com/meguminnnnnnnnn/go-openai"
)

// Invoker drives one OpenAI-dialect backend through the go-openai client.
// The thin backend packages construct it with their own name, capability
// table and base URL.
type Invoker struct {
	name   backend.Name
	caps   backend.Capabilities
	client *openai.Client
}

// NewInvoker builds an invoker over a fresh client. An empty baseURL keeps
// the SDK default endpoint.
func NewInvoker(name backend.Name, caps backend.Capabilities, apiKey, baseURL string) *Invoker {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &Invoker{
		name:   name,
		caps:   caps,
		client: openai.NewClientWithConfig(cfg),
	}
}

// NewInvokerWithClient wraps a caller-supplied client handle.
func NewInvokerWithClient(name backend.Name, caps backend.Capabilities, client *openai.Client) *Invoker {
	return &Invoker{name: name, caps: caps, client: client}
}

func (i *Invoker) Name() backend.Name                 { return i.name }
func (i *Invoker) Capabilities() backend.Capabilities { return i.caps }

func (i *Invoker) Complete(ctx context.Context, req backend.Request) (*backend.Result, error) {
	wireReq, err := i.prepare(req)
	if err != nil {
		return nil, err
	}

	resp, err := i.client.CreateChatCompletion(ctx, wireReq)
	if err != nil {
		return nil, fault.FromSDK(err)
	}

	result, err := FromResponse(resp)
	if err != nil {
		return nil, err
	}
	slog.Debug("completion finished", "backend", i.name, "model", result.Model, "finish", result.FinishReason)
	return result, nil
}

func (i *Invoker) Stream(ctx context.Context, req backend.Request) (streaming.Stream, error) {
	wireReq, err := i.prepare(req)
	if err != nil {
		return nil, err
	}
	wireReq.Stream = true
	wireReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	sdk, err := i.client.CreateChatCompletionStream(ctx, wireReq)
	if err != nil {
		return nil, fault.FromSDK(err)
	}
	return WrapStream(sdk), nil
}

func (i *Invoker) prepare(req backend.Request) (openai.ChatCompletionRequest, error) {
	if err := i.caps.ValidateMessages(req.Messages); err != nil {
		return openai.ChatCompletionRequest{}, err
	}
	return BuildRequest(i.name, req)
}
