package response

import (
	"strings"
	"testing"

	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/streaming"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *backend.Result {
	return &backend.Result{
		Message:      content.NewText(content.RoleAssistant, `{"answer":42}`),
		Usage:        content.Usage{InputTokens: 100, OutputTokens: 20},
		Model:        "test-model",
		ResponseID:   "resp_1",
		FinishReason: content.FinishStop,
	}
}

func TestResponse_Accessors(t *testing.T) {
	r := New(sampleResult())

	assert.Equal(t, `{"answer":42}`, r.Text())
	assert.Equal(t, "test-model", r.Model())
	assert.Equal(t, "resp_1", r.ID())
	assert.Equal(t, content.FinishStop, r.FinishReason())
	assert.Equal(t, content.Usage{InputTokens: 100, OutputTokens: 20}, r.Usage())
	assert.Empty(t, r.ToolCalls())
}

func TestResponse_Decode(t *testing.T) {
	r := New(sampleResult())

	var out struct {
		Answer int `json:"answer"`
	}
	require.NoError(t, r.Decode(&out))
	assert.Equal(t, 42, out.Answer)

	r = New(&backend.Result{Message: content.NewText(content.RoleAssistant, "not json")})
	assert.Error(t, r.Decode(&out))
}

func TestResponse_Cost(t *testing.T) {
	r := New(sampleResult())

	cost := r.Cost(func(model string, usage content.Usage) float64 {
		assert.Equal(t, "test-model", model)
		return float64(usage.InputTokens)*0.01 + float64(usage.OutputTokens)*0.03
	})
	assert.InDelta(t, 1.6, cost, 1e-9)
}

func TestResponse_ParsedWithoutParserReturnsText(t *testing.T) {
	r := New(sampleResult())
	parsed, err := r.Parsed()
	require.NoError(t, err)
	assert.Equal(t, `{"answer":42}`, parsed)
}

func TestResponse_ParsedRunsParser(t *testing.T) {
	r := NewParsed(sampleResult(), func(raw []byte) (any, error) {
		return strings.ToUpper(string(raw)), nil
	})
	parsed, err := r.Parsed()
	require.NoError(t, err)
	assert.Equal(t, `{"ANSWER":42}`, parsed)
}

type upperRenderer struct{}

func (upperRenderer) Render(msg content.Message) (string, error) {
	return strings.ToUpper(msg.PlainText()), nil
}

func TestResponse_Render(t *testing.T) {
	r := New(&backend.Result{Message: content.NewText(content.RoleAssistant, "hello")})
	out, err := r.Render(upperRenderer{})
	require.NoError(t, err)
	assert.Equal(t, "HELLO", out)
}

func TestFromStream_BuildsResponse(t *testing.T) {
	agg := streaming.NewAggregator()
	agg.Add(streaming.Chunk{TextDelta: "par", Model: "m1", ResponseID: "r1"})
	agg.Add(streaming.Chunk{TextDelta: "tial", Usage: &content.Usage{OutputTokens: 2}, FinishReason: content.FinishStop})
	agg.Finish()

	r, err := FromStream(agg)
	require.NoError(t, err)
	assert.Equal(t, "partial", r.Text())
	assert.Equal(t, "m1", r.Model())
	assert.Equal(t, content.Usage{OutputTokens: 2}, r.Usage())
}

func TestFromStream_OpenAggregatorFails(t *testing.T) {
	agg := streaming.NewAggregator()
	agg.Add(streaming.Chunk{TextDelta: "x"})

	_, err := FromStream(agg)
	assert.Error(t, err)
}
