package gemini

import (
	"testing"

	"github.com/harunnryd/musubi/content"
	"github.com/harunnryd/musubi/fault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/genai"
)

func TestToWire_SystemSplitsOut(t *testing.T) {
	msgs := []content.Message{
		content.NewText(content.RoleSystem, "be terse"),
		content.NewText(content.RoleUser, "hello"),
		content.NewText(content.RoleAssistant, "hi"),
	}

	system, ws, err := ToWire(msgs)
	require.NoError(t, err)
	assert.Equal(t, "be terse", system)
	require.Len(t, ws, 2)
	assert.Equal(t, "user", ws[0].Role)
	assert.Equal(t, "model", ws[1].Role)
}

func TestToWire_ToolResultGetsFunctionRole(t *testing.T) {
	msgs := []content.Message{
		content.NewParts(content.RoleTool,
			content.ToolResult{ID: "c1", Name: "f", Value: map[string]any{"ok": true}},
		),
	}

	_, ws, err := ToWire(msgs)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "function", ws[0].Role)
	require.Len(t, ws[0].Parts, 1)
	require.NotNil(t, ws[0].Parts[0].FunctionResponse)
	assert.Equal(t, map[string]any{"ok": true}, ws[0].Parts[0].FunctionResponse.Response)
}

func TestToWire_ToolErrorWrapped(t *testing.T) {
	msgs := []content.Message{
		content.NewParts(content.RoleTool,
			content.ToolResult{ID: "c1", Name: "f", Value: "boom", IsError: true},
		),
	}

	_, ws, err := ToWire(msgs)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"error": "boom"}, ws[0].Parts[0].FunctionResponse.Response)
}

func TestToWire_MediaBecomesInlineData(t *testing.T) {
	msgs := []content.Message{
		content.NewParts(content.RoleUser,
			content.Text{Text: "what is in this"},
			content.Image{Data: []byte{1, 2}, MediaType: "image/png"},
			content.Audio{Data: []byte{3, 4}, MediaType: "audio/wav"},
			content.Document{Data: []byte{5, 6}, MediaType: "application/pdf"},
		),
	}

	_, ws, err := ToWire(msgs)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	require.Len(t, ws[0].Parts, 4)
	assert.Equal(t, "image/png", ws[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, "audio/wav", ws[0].Parts[2].InlineData.MIMEType)
	assert.Equal(t, "application/pdf", ws[0].Parts[3].InlineData.MIMEType)
}

func TestRoundTrip_MediaAndToolFlow(t *testing.T) {
	original := []content.Message{
		content.NewText(content.RoleUser, "hello"),
		content.NewParts(content.RoleUser,
			content.Text{Text: "listen"},
			content.Audio{Data: []byte{9, 9}, MediaType: "audio/wav"},
		),
		content.NewParts(content.RoleTool,
			content.ToolResult{ID: "c1", Name: "f", Value: map[string]any{"ok": true}},
		),
	}

	_, ws, err := ToWire(original)
	require.NoError(t, err)

	back, err := FromWire(ws)
	require.NoError(t, err)
	require.Len(t, back, len(original))
	for i := range original {
		assert.True(t, content.Equal(original[i], back[i]), "message %d", i)
	}
}

func TestFromResponse_TextAndUsage(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		ResponseID:   "resp_1",
		ModelVersion: "gemini-test",
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: "hello"}}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:        10,
			CandidatesTokenCount:    3,
			CachedContentTokenCount: 4,
		},
	}

	result, err := FromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Message.PlainText())
	assert.Equal(t, "resp_1", result.ResponseID)
	assert.Equal(t, content.FinishStop, result.FinishReason)
	assert.Equal(t, content.Usage{InputTokens: 10, CachedTokens: 4, OutputTokens: 3}, result.Usage)
}

func TestFromResponse_FunctionCallGetsNameFallbackID(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{
				FunctionCall: &genai.FunctionCall{Name: "f", Args: map[string]any{"n": float64(1)}},
			}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}

	result, err := FromResponse(resp)
	require.NoError(t, err)

	calls := result.Message.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "f", calls[0].ID, "missing wire id falls back to the function name")
	assert.Equal(t, content.FinishToolCalls, result.FinishReason)
}

func TestFromWire_UnrecognizedPartErrors(t *testing.T) {
	ws := []*genai.Content{
		{Role: "model", Parts: []*genai.Part{
			{Text: "partial"},
			{ExecutableCode: &genai.ExecutableCode{Code: "print(1)"}},
		}},
	}

	_, err := FromWire(ws)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrUnsupported)
}

func TestToWire_SystemRejectsNonTextParts(t *testing.T) {
	msgs := []content.Message{
		content.NewParts(content.RoleSystem,
			content.Text{Text: "look at this"},
			content.Image{Data: []byte{1}, MediaType: "image/png"},
		),
	}

	_, _, err := ToWire(msgs)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrUnsupported)
}
