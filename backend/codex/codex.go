// Package codex is the OpenAI Responses-API backend spoken by the Codex
// service. No official SDK covers this surface; the wire client is built on
// net/http with hand-modeled request and SSE shapes.
package codex

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"
	"github.com/harunnryd/musubi/streaming"
)

const (
	DefaultBaseURL = "https://chatgpt.com/backend-api"

	originator = "codex_cli_rs"
	userAgent  = "musubi (go)"
)

// Caps returns the Codex allow-list: text, images by value or reference, and
// tools. Strict structured output rides the text.format request block.
func Caps() backend.Capabilities {
	return backend.Capabilities{
		Backend:    backend.Codex,
		StrictJSON: true,
		Parts: map[content.Kind][]string{
			content.KindText:       nil,
			content.KindImage:      backend.ImageMediaTypes,
			content.KindImageRef:   nil,
			content.KindToolCall:   nil,
			content.KindToolResult: nil,
		},
	}
}

// Invoker drives the Responses API over SSE. The wire is stream-only;
// Complete drains the stream into one result.
type Invoker struct {
	baseURL   string
	token     string
	accountID string
	client    *http.Client
	caps      backend.Capabilities
}

type Option func(*Invoker)

// WithAccountID attaches the account header some deployments require.
func WithAccountID(id string) Option {
	return func(i *Invoker) { i.accountID = id }
}

// WithHTTPClient replaces the default streaming client.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Invoker) { i.client = c }
}

func New(token, baseURL string, opts ...Option) *Invoker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	inv := &Invoker{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  newStreamingHTTPClient(),
		caps:    Caps(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

func (i *Invoker) Name() backend.Name                 { return backend.Codex }
func (i *Invoker) Capabilities() backend.Capabilities { return i.caps }

func (i *Invoker) Complete(ctx context.Context, req backend.Request) (*backend.Result, error) {
	stream, err := i.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	agg, err := streaming.Drain(stream)
	if err != nil {
		return nil, err
	}

	msg, err := agg.Message()
	if err != nil {
		return nil, err
	}
	usage, err := agg.Usage()
	if err != nil {
		return nil, err
	}

	result := &backend.Result{
		Message:      msg,
		Usage:        usage,
		Model:        agg.Model(),
		ResponseID:   agg.ResponseID(),
		FinishReason: agg.FinishReason(),
	}
	slog.Debug("completion finished", "backend", backend.Codex, "model", result.Model, "finish", result.FinishReason)
	return result, nil
}

func (i *Invoker) Stream(ctx context.Context, req backend.Request) (streaming.Stream, error) {
	body, err := i.prepare(req)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fault.Wrap(err, "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint(), bytes.NewReader(raw))
	if err != nil {
		return nil, fault.Wrap(err, "build request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+i.token)
	if i.accountID != "" {
		httpReq.Header.Set("chatgpt-account-id", i.accountID)
	}
	httpReq.Header.Set("OpenAI-Beta", "responses=experimental")
	httpReq.Header.Set("originator", originator)
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(httpReq)
	if err != nil {
		return nil, fault.FromSDK(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		resp.Body.Close()
		return nil, fault.FromSDK(fmt.Errorf("codex http %d: %s", resp.StatusCode, string(raw)))
	}

	return newSSEStream(resp.Body), nil
}

func (i *Invoker) prepare(req backend.Request) (*wireRequest, error) {
	if err := i.caps.ValidateMessages(req.Messages); err != nil {
		return nil, err
	}

	instructions, items, err := ToWire(req.Messages)
	if err != nil {
		return nil, err
	}

	body := &wireRequest{
		Model:             req.Model,
		Store:             false,
		Stream:            true,
		Instructions:      instructions,
		Input:             items,
		Include:           []string{"reasoning.encrypted_content"},
		PromptCacheKey:    promptCacheKey(req.Messages),
		ParallelToolCalls: true,
	}

	for _, d := range req.Tools {
		body.Tools = append(body.Tools, wireTool{
			Type:        "function",
			Name:        toolName(d.Name),
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}

	switch req.ToolChoice.Mode {
	case backend.TCNone:
		body.ToolChoice = "none"
	case backend.TCRequired:
		if req.ToolChoice.Name != "" {
			body.ToolChoice = forcedTool{Type: "function", Name: toolName(req.ToolChoice.Name)}
		} else {
			body.ToolChoice = "required"
		}
	}

	if req.JSONMode {
		if req.JSONSchema != nil {
			body.Text = &textConfig{Format: &textFormat{
				Type:   "json_schema",
				Name:   "response",
				Schema: req.JSONSchema,
				Strict: true,
			}}
		} else {
			body.Text = &textConfig{Format: &textFormat{Type: "json_object"}}
		}
	}

	if err := applyParams(body, req.Params); err != nil {
		return nil, err
	}
	return body, nil
}

func applyParams(body *wireRequest, raw map[string]any) error {
	for key, val := range raw {
		switch key {
		case "temperature":
			f, err := floatParam(key, val)
			if err != nil {
				return err
			}
			body.Temperature = &f
		case "top_p":
			f, err := floatParam(key, val)
			if err != nil {
				return err
			}
			body.TopP = &f
		case "max_tokens":
			n, err := intParam(key, val)
			if err != nil {
				return err
			}
			body.MaxOutputTokens = &n
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

func (i *Invoker) endpoint() string {
	if strings.HasSuffix(i.baseURL, "/codex/responses") {
		return i.baseURL
	}
	if strings.HasSuffix(i.baseURL, "/codex") {
		return i.baseURL + "/responses"
	}
	return i.baseURL + "/codex/responses"
}

// promptCacheKey derives a stable cache key from the conversation prefix so
// repeated turns hit the server-side prompt cache.
func promptCacheKey(msgs []content.Message) string {
	b, err := json.Marshal(msgs)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// newStreamingHTTPClient builds a client without a total-request timeout;
// http.Client.Timeout would cap the whole SSE stream duration. Header and
// dial timeouts still bound connection setup.
func newStreamingHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}}
}
