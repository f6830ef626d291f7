package codex

import (
	"io"
	"strings"
	"testing"

	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"
	"github.com/harunnryd/musubi/streaming"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolName_Normalizes(t *testing.T) {
	assert.Equal(t, "search_query", toolName("search.query"))
	assert.Equal(t, "web-fetch", toolName("web-fetch"))
	assert.Equal(t, "a_b", toolName("a b"))
	assert.Equal(t, "tool", toolName(""))
	assert.Equal(t, "tool", toolName("   "))
}

func TestNormalizeArguments(t *testing.T) {
	assert.Equal(t, `{"q":"x"}`, normalizeArguments(`{"q":"x"}`))
	assert.Equal(t, `{"q":"x"}`, normalizeArguments(`"{\"q\":\"x\"}"`), "doubly-encoded arguments decode once")
	assert.Equal(t, "{}", normalizeArguments(""))
	assert.Equal(t, "{}", normalizeArguments("{"))
}

func TestToWire_SystemBecomesInstructions(t *testing.T) {
	msgs := []content.Message{
		content.NewText(content.RoleSystem, "be terse"),
		content.NewText(content.RoleUser, "hello"),
	}

	instructions, items, err := ToWire(msgs)
	require.NoError(t, err)
	assert.Equal(t, "be terse", instructions)
	require.Len(t, items, 1)
	assert.Equal(t, "user", items[0].Role)
	require.Len(t, items[0].Content, 1)
	assert.Equal(t, "input_text", items[0].Content[0].Type)
}

func TestToWire_ToolCallNameNormalized(t *testing.T) {
	msgs := []content.Message{
		content.NewParts(content.RoleAssistant,
			content.ToolCall{ID: "call_1", Name: "search.query", Args: content.Args{{Key: "q", Value: "x"}}},
		),
	}

	_, items, err := ToWire(msgs)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "function_call", items[0].Type)
	assert.Equal(t, "search_query", items[0].Name)
	assert.Equal(t, "call_1", items[0].CallID)
	assert.JSONEq(t, `{"q":"x"}`, items[0].Arguments)
}

func TestToWire_ToolResultBecomesFunctionCallOutput(t *testing.T) {
	msgs := []content.Message{
		content.NewParts(content.RoleTool,
			content.ToolResult{ID: "call_1", Value: map[string]any{"ok": true}},
		),
	}

	_, items, err := ToWire(msgs)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "function_call_output", items[0].Type)
	assert.Equal(t, "call_1", items[0].CallID)
	assert.JSONEq(t, `{"ok":true}`, items[0].Output)
}

func TestRoundTrip_ConversationFlow(t *testing.T) {
	original := []content.Message{
		content.NewText(content.RoleUser, "hello"),
		content.NewParts(content.RoleAssistant,
			content.ToolCall{ID: "call_1", Name: "lookup", Args: content.Args{{Key: "id", Value: "a1"}}},
		),
		content.NewParts(content.RoleTool,
			content.ToolResult{ID: "call_1", Value: map[string]any{"ok": true}},
		),
	}

	_, items, err := ToWire(original)
	require.NoError(t, err)

	back, err := FromWire(items)
	require.NoError(t, err)
	require.Len(t, back, len(original))
	for i := range original {
		assert.True(t, content.Equal(original[i], back[i]), "message %d", i)
	}
}

const sampleSSE = `event: response.created
data: {"type":"response.created","response":{"id":"resp_1","model":"gpt-test"}}

event: response.output_text.delta
data: {"type":"response.output_text.delta","delta":"Hel"}

event: response.output_text.delta
data: {"type":"response.output_text.delta","delta":"lo"}

event: response.output_item.added
data: {"type":"response.output_item.added","item":{"type":"function_call","id":"fc_1","call_id":"call_1","name":"f"}}

event: response.function_call_arguments.delta
data: {"type":"response.function_call_arguments.delta","item_id":"fc_1","call_id":"call_1","delta":"{\"n\":"}

event: response.function_call_arguments.delta
data: {"type":"response.function_call_arguments.delta","item_id":"fc_1","call_id":"call_1","delta":"1}"}

event: response.completed
data: {"type":"response.completed","response":{"id":"resp_1","model":"gpt-test","status":"completed","usage":{"input_tokens":10,"output_tokens":4,"input_tokens_details":{"cached_tokens":2}}}}

data: [DONE]

`

func TestSSEStream_DecodesToCanonicalChunks(t *testing.T) {
	s := newSSEStream(io.NopCloser(strings.NewReader(sampleSSE)))

	agg, err := streaming.Drain(s)
	require.NoError(t, err)

	msg, err := agg.Message()
	require.NoError(t, err)
	assert.Equal(t, "Hello", msg.PlainText())

	calls := msg.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "f", calls[0].Name)
	assert.True(t, calls[0].Args.Equal(content.Args{{Key: "n", Value: int64(1)}}))

	usage, err := agg.Usage()
	require.NoError(t, err)
	assert.Equal(t, content.Usage{InputTokens: 10, CachedTokens: 2, OutputTokens: 4}, usage)

	assert.Equal(t, "gpt-test", agg.Model())
	assert.Equal(t, "resp_1", agg.ResponseID())
	assert.Equal(t, content.FinishToolCalls, agg.FinishReason())
}

func TestSSEStream_FailureEventSurfacesError(t *testing.T) {
	body := "event: error\ndata: {\"type\":\"error\",\"error\":{\"message\":\"rate limited\"}}\n\n"
	s := newSSEStream(io.NopCloser(strings.NewReader(body)))

	_, err := s.Recv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestSSEStream_WholeArgumentsOnDoneNotDoubled(t *testing.T) {
	body := strings.Join([]string{
		`data: {"type":"response.output_item.added","item":{"type":"function_call","id":"fc_1","call_id":"call_1","name":"f"}}`,
		"",
		`data: {"type":"response.function_call_arguments.delta","item_id":"fc_1","delta":"{\"n\":1}"}`,
		"",
		`data: {"type":"response.function_call_arguments.done","item_id":"fc_1","arguments":"{\"n\":1}"}`,
		"",
		`data: {"type":"response.completed","response":{"id":"r","model":"m","status":"completed"}}`,
		"",
		"",
	}, "\n")

	s := newSSEStream(io.NopCloser(strings.NewReader(body)))
	agg, err := streaming.Drain(s)
	require.NoError(t, err)

	msg, err := agg.Message()
	require.NoError(t, err)
	calls := msg.ToolCalls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Args.Equal(content.Args{{Key: "n", Value: int64(1)}}))
}

func TestEndpoint_Derivation(t *testing.T) {
	assert.Equal(t, "https://x.test/backend-api/codex/responses", New("t", "https://x.test/backend-api").endpoint())
	assert.Equal(t, "https://x.test/codex/responses", New("t", "https://x.test/codex").endpoint())
	assert.Equal(t, "https://x.test/codex/responses", New("t", "https://x.test/codex/responses").endpoint())
}

func TestToWire_SystemRejectsNonTextParts(t *testing.T) {
	msgs := []content.Message{
		content.NewParts(content.RoleSystem,
			content.Text{Text: "study this"},
			content.ImageRef{URL: "https://example.com/i.png"},
		),
	}

	_, _, err := ToWire(msgs)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrUnsupported)
}
