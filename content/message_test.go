package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapse_SingleTextPartEqualsBareString(t *testing.T) {
	bare := NewText(RoleUser, "hello")
	parts := NewParts(RoleUser, Text{Text: "hello"})

	assert.True(t, Equal(bare, parts.Collapse()))
	assert.True(t, parts.Collapse().IsText())
	assert.Equal(t, "hello", parts.Collapse().Text)
}

func TestCollapse_LeavesMultiPartAlone(t *testing.T) {
	m := NewParts(RoleUser,
		Text{Text: "look at this"},
		ImageRef{URL: "https://example.com/cat.png"},
	)
	assert.False(t, m.Collapse().IsText())
	assert.Len(t, m.Collapse().Parts, 2)
}

func TestEqual_BareStringAndSingleTextPart(t *testing.T) {
	a := NewText(RoleAssistant, "same")
	b := NewParts(RoleAssistant, Text{Text: "same"})

	assert.True(t, Equal(a, b))
	assert.True(t, Equal(b, a))
	assert.False(t, Equal(a, NewText(RoleUser, "same")))
	assert.False(t, Equal(a, NewText(RoleAssistant, "different")))
}

func TestAsParts_NormalizesBareText(t *testing.T) {
	m := NewText(RoleUser, "hi")
	parts := m.AsParts()

	require.Len(t, parts, 1)
	assert.Equal(t, Text{Text: "hi"}, parts[0])
}

func TestPlainText_ConcatenatesTextParts(t *testing.T) {
	m := NewParts(RoleAssistant,
		Text{Text: "first "},
		ToolCall{ID: "c1", Name: "lookup"},
		Text{Text: "second"},
	)
	assert.Equal(t, "first second", m.PlainText())
}

func TestToolCalls_ReturnsInOrder(t *testing.T) {
	m := NewParts(RoleAssistant,
		ToolCall{ID: "c1", Name: "first"},
		Text{Text: "between"},
		ToolCall{ID: "c2", Name: "second"},
	)

	calls := m.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "second", calls[1].Name)
}

func TestKindOf_CoversAllParts(t *testing.T) {
	cases := []struct {
		part Part
		want Kind
	}{
		{Text{}, KindText},
		{Image{}, KindImage},
		{ImageRef{}, KindImageRef},
		{Audio{}, KindAudio},
		{AudioRef{}, KindAudioRef},
		{Document{}, KindDocument},
		{ToolCall{}, KindToolCall},
		{ToolResult{}, KindToolResult},
		{CacheHint{}, KindCacheHint},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindOf(tc.part))
	}
}

func TestUsage_Add(t *testing.T) {
	var u Usage
	u = u.Add(Usage{InputTokens: 10, OutputTokens: 5})
	u = u.Add(Usage{OutputTokens: 3, CachedTokens: 2})

	assert.Equal(t, Usage{InputTokens: 10, CachedTokens: 2, OutputTokens: 8}, u)
	assert.Equal(t, int64(18), u.Total())
}
