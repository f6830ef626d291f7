// Package content defines the backend-independent message representation the
// rest of the module converts to and from each backend's wire format.
package content

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one canonical conversation message. Content is either a bare
// string (Text set, Parts nil) or an ordered part sequence (Parts set).
// A sequence holding exactly one Text part and the equivalent bare string
// compare equal; converters collapse to the string form on the way in.
//
// Messages are values. Converters never mutate them; anything derived is a
// fresh copy.
type Message struct {
	Role  Role
	Text  string
	Parts []Part
}

// NewText builds a bare-string message.
func NewText(role Role, text string) Message {
	return Message{Role: role, Text: text}
}

// NewParts builds a structured message. The part slice is copied so the
// caller keeps ownership of its own slice.
func NewParts(role Role, parts ...Part) Message {
	cp := make([]Part, len(parts))
	copy(cp, parts)
	return Message{Role: role, Parts: cp}
}

// IsText reports whether the message carries bare-string content.
func (m Message) IsText() bool { return m.Parts == nil }

// AsParts returns the content as a part sequence regardless of form. The
// returned slice must not be mutated.
func (m Message) AsParts() []Part {
	if m.Parts != nil {
		return m.Parts
	}
	return []Part{Text{Text: m.Text}}
}

// Collapse returns the message with a single-Text part sequence rewritten to
// the bare-string form, per the equivalence invariant. Other messages are
// returned unchanged.
func (m Message) Collapse() Message {
	if len(m.Parts) == 1 {
		if t, ok := m.Parts[0].(Text); ok {
			return Message{Role: m.Role, Text: t.Text}
		}
	}
	return m
}

// PlainText concatenates all text segments of the message.
func (m Message) PlainText() string {
	if m.IsText() {
		return m.Text
	}
	var out string
	for _, p := range m.Parts {
		if t, ok := p.(Text); ok {
			out += t.Text
		}
	}
	return out
}

// ToolCalls returns the tool-call parts of the message in order.
func (m Message) ToolCalls() []ToolCall {
	var out []ToolCall
	for _, p := range m.AsParts() {
		if tc, ok := p.(ToolCall); ok {
			out = append(out, tc)
		}
	}
	return out
}

// Equal compares two messages under the collapse invariant: a bare string and
// a single-Text sequence with the same text are equal.
func Equal(a, b Message) bool {
	a, b = a.Collapse(), b.Collapse()
	if a.Role != b.Role {
		return false
	}
	if a.IsText() != b.IsText() {
		return false
	}
	if a.IsText() {
		return a.Text == b.Text
	}
	if len(a.Parts) != len(b.Parts) {
		return false
	}
	for i := range a.Parts {
		if !partEqual(a.Parts[i], b.Parts[i]) {
			return false
		}
	}
	return true
}

func partEqual(a, b Part) bool {
	switch av := a.(type) {
	case Text:
		bv, ok := b.(Text)
		return ok && av.Text == bv.Text
	case Image:
		bv, ok := b.(Image)
		return ok && av.MediaType == bv.MediaType && av.Detail == bv.Detail && bytesEqual(av.Data, bv.Data)
	case ImageRef:
		bv, ok := b.(ImageRef)
		return ok && av == bv
	case Audio:
		bv, ok := b.(Audio)
		return ok && av.MediaType == bv.MediaType && bytesEqual(av.Data, bv.Data)
	case AudioRef:
		bv, ok := b.(AudioRef)
		return ok && av == bv
	case Document:
		bv, ok := b.(Document)
		return ok && av.MediaType == bv.MediaType && bytesEqual(av.Data, bv.Data)
	case ToolCall:
		bv, ok := b.(ToolCall)
		return ok && av.ID == bv.ID && av.Name == bv.Name && av.Args.Equal(bv.Args)
	case ToolResult:
		bv, ok := b.(ToolResult)
		return ok && av.ID == bv.ID && av.Name == bv.Name && av.IsError == bv.IsError && anyEqual(av.Value, bv.Value)
	case CacheHint:
		bv, ok := b.(CacheHint)
		return ok && av == bv
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
