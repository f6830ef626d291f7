package fault

import (
	"errors"
	"fmt"
)

// Sentinel errors for different categories
var (
	// ErrValidation - a content part or media type the target backend does not accept
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration - an invalid or conflicting call configuration
	ErrConfiguration = errors.New("invalid configuration")

	// ErrSchema - a tool binding whose documentation or types cannot be reconciled
	ErrSchema = errors.New("schema error")

	// ErrStreamState - reading aggregated output before the stream is closed
	ErrStreamState = errors.New("stream not closed")

	// ErrUnsupported - an operation the backend cannot perform
	ErrUnsupported = errors.New("unsupported operation")

	// ErrTransient - transient transport-level failure surfaced by a backend SDK
	ErrTransient = errors.New("transient error")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)

// Wrap wraps an error with a message, preserving the original for errors.Is/As.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapWithCategory wraps an error with a message and attaches a sentinel category.
func WrapWithCategory(err error, msg string, category error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %v: %w", msg, err, category)
}

func Configuration(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrConfiguration)
}

func Configurationf(format string, args ...any) error {
	return Configuration(fmt.Sprintf(format, args...))
}

func Unsupported(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrUnsupported)
}

func Unsupportedf(format string, args ...any) error {
	return Unsupported(fmt.Sprintf(format, args...))
}

func Internal(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInternal)
}
