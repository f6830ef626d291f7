package fault

import (
	"fmt"
	"strings"
)

// ValidationError reports a content part the target backend cannot accept.
// Accepted lists the media types the backend allows for the offending kind,
// so callers can see the full allow-list in the failure message.
type ValidationError struct {
	Backend   string
	Kind      string
	MediaType string
	Accepted  []string
}

func (e *ValidationError) Error() string {
	if e.MediaType == "" {
		return fmt.Sprintf("backend %s does not support %s parts", e.Backend, e.Kind)
	}
	return fmt.Sprintf("backend %s does not accept media type %q for %s parts (accepted: %s)",
		e.Backend, e.MediaType, e.Kind, strings.Join(e.Accepted, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConfigurationError reports an invalid resolved call configuration.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("configuration field %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// SchemaError reports a tool binding whose documentation or parameter types
// cannot be reconciled with the bound function.
type SchemaError struct {
	Tool   string
	Param  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("tool %s: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("tool %s, parameter %s: %s", e.Tool, e.Param, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// StreamStateError reports a read of aggregated output while the stream is
// still open.
type StreamStateError struct {
	Op string
}

func (e *StreamStateError) Error() string {
	return fmt.Sprintf("%s called before the stream closed", e.Op)
}

func (e *StreamStateError) Unwrap() error { return ErrStreamState }
