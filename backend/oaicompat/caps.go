package oaicompat

import (
	"github.com/harunnryd/musubi/backend"
	"github.com/harunnryd/musubi/content"
)

// TextCaps is the minimal table for a text-and-tools dialect backend.
func TextCaps(name backend.Name) backend.Capabilities {
	return backend.Capabilities{
		Backend:    name,
		StrictJSON: true,
		Parts: map[content.Kind][]string{
			content.KindText:       nil,
			content.KindToolCall:   nil,
			content.KindToolResult: nil,
		},
	}
}

// VisionCaps extends TextCaps with inline and referenced images.
func VisionCaps(name backend.Name) backend.Capabilities {
	caps := TextCaps(name)
	caps.Parts[content.KindImage] = backend.ImageMediaTypes
	caps.Parts[content.KindImageRef] = nil
	return caps
}
