package backend

import (
	"github.com/harunnryd/musubi/fault"

	"github.com/harunnryd/musubi/content"
)

// Capabilities is one backend's allow-list: which part kinds it accepts and,
// for media-bearing kinds, which media types. A kind missing from the table
// is unsupported outright. Validation is a pure table lookup with no side
// effects; it runs before any wire object is built, and an unsupported
// combination is always a hard failure, never a silent drop.
type Capabilities struct {
	Backend Name
	Parts   map[content.Kind][]string
	// StrictJSON marks backends whose wire format can constrain output to a
	// schema directly; the dispatcher falls back to prompting elsewhere.
	StrictJSON bool
}

// Supports reports whether the backend accepts a part kind at all.
func (c Capabilities) Supports(kind content.Kind) bool {
	_, ok := c.Parts[kind]
	return ok
}

// Validate checks a single part against the table.
func (c Capabilities) Validate(p content.Part) error {
	kind := content.KindOf(p)
	if kind == "" {
		return fault.Unsupportedf("backend %s: unknown content part %T", c.Backend, p)
	}

	accepted, ok := c.Parts[kind]
	if !ok {
		return &fault.ValidationError{Backend: string(c.Backend), Kind: string(kind)}
	}

	media := content.MediaTypeOf(p)
	if media == "" {
		return nil
	}
	for _, m := range accepted {
		if m == media {
			return nil
		}
	}
	return &fault.ValidationError{
		Backend:   string(c.Backend),
		Kind:      string(kind),
		MediaType: media,
		Accepted:  append([]string(nil), accepted...),
	}
}

// ValidateMessages checks every part of every message. Conversion is
// all-or-nothing per batch: the first invalid part fails the whole call.
func (c Capabilities) ValidateMessages(msgs []content.Message) error {
	for _, m := range msgs {
		if m.IsText() {
			continue
		}
		for _, p := range m.Parts {
			if err := c.Validate(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// SystemText extracts the content of a system message for wire formats that
// carry system instructions as a bare string. A non-text part has nowhere to
// go on such a wire, so it fails the call rather than vanishing.
func SystemText(m content.Message) (string, error) {
	if m.IsText() {
		return m.Text, nil
	}
	for _, p := range m.Parts {
		if _, ok := p.(content.Text); !ok {
			return "", fault.Unsupportedf("system message cannot carry a %s part on this backend", content.KindOf(p))
		}
	}
	return m.PlainText(), nil
}

// Common media allow-lists shared by the backend tables.
var (
	ImageMediaTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	PDFMediaTypes   = []string{"application/pdf"}
	AudioMediaTypes = []string{"audio/mpeg", "audio/mp3", "audio/wav"}
)
