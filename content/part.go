package content

// Part is one segment of structured message content. The set of
// implementations is closed; converters match exhaustively and treat any
// unknown kind as a fatal error rather than dropping it.
type Part interface {
	isPart()
}

// Text is a plain text segment.
type Text struct {
	Text string
}

func (Text) isPart() {}

// Image is an inline image carried as raw bytes.
type Image struct {
	Data      []byte
	MediaType string
	Detail    string
}

func (Image) isPart() {}

// ImageRef is an image addressed by URL.
type ImageRef struct {
	URL    string
	Detail string
}

func (ImageRef) isPart() {}

// Audio is an inline audio clip carried as raw bytes.
type Audio struct {
	Data      []byte
	MediaType string
}

func (Audio) isPart() {}

// AudioRef is an audio clip addressed by URL.
type AudioRef struct {
	URL string
}

func (AudioRef) isPart() {}

// Document is an inline document carried as raw bytes. PDF only for now.
type Document struct {
	Data      []byte
	MediaType string
}

func (Document) isPart() {}

// ToolCall is a backend-issued request to invoke a tool. Args preserves the
// argument order the backend emitted.
type ToolCall struct {
	ID   string
	Name string
	Args Args
}

func (ToolCall) isPart() {}

// ToolResult carries the outcome of a tool invocation back to the backend.
// ID must match the originating ToolCall.
type ToolResult struct {
	ID      string
	Name    string
	Value   any
	IsError bool
}

func (ToolResult) isPart() {}

// CacheHint requests provider-side caching for the immediately preceding
// part. It never becomes a wire message of its own.
type CacheHint struct {
	Kind string
}

func (CacheHint) isPart() {}

// CacheEphemeral is the only cache kind currently understood by any backend.
const CacheEphemeral = "ephemeral"

// Kind identifies a Part implementation for capability checks and errors.
type Kind string

const (
	KindText       Kind = "text"
	KindImage      Kind = "image"
	KindImageRef   Kind = "image_ref"
	KindAudio      Kind = "audio"
	KindAudioRef   Kind = "audio_ref"
	KindDocument   Kind = "document"
	KindToolCall   Kind = "tool_call"
	KindToolResult Kind = "tool_result"
	KindCacheHint  Kind = "cache_hint"
)

// KindOf returns the Kind of any known part, or "" for an unknown
// implementation smuggled in from outside the package.
func KindOf(p Part) Kind {
	switch p.(type) {
	case Text:
		return KindText
	case Image:
		return KindImage
	case ImageRef:
		return KindImageRef
	case Audio:
		return KindAudio
	case AudioRef:
		return KindAudioRef
	case Document:
		return KindDocument
	case ToolCall:
		return KindToolCall
	case ToolResult:
		return KindToolResult
	case CacheHint:
		return KindCacheHint
	default:
		return ""
	}
}

// MediaTypeOf returns the media type a part declares, or "" for parts that
// carry none.
func MediaTypeOf(p Part) string {
	switch v := p.(type) {
	case Image:
		return v.MediaType
	case Audio:
		return v.MediaType
	case Document:
		return v.MediaType
	default:
		return ""
	}
}
