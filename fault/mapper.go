package fault

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FromSDK maps errors returned by backend SDKs onto the local categories.
// Context errors propagate as-is so cancellation stays recognizable.
func FromSDK(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timeout: %w", ErrTransient)
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "rate limit"), strings.Contains(errStr, "quota"), strings.Contains(errStr, "too many requests"), strings.Contains(errStr, "overloaded"):
		return fmt.Errorf("rate limited: %v: %w", err, ErrTransient)

	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return fmt.Errorf("request timeout: %v: %w", err, ErrTransient)

	case strings.Contains(errStr, "network"), strings.Contains(errStr, "connection"), strings.Contains(errStr, "unreachable"):
		return fmt.Errorf("network error: %v: %w", err, ErrTransient)

	case strings.Contains(errStr, "invalid request"), strings.Contains(errStr, "bad request"), strings.Contains(errStr, "invalid_request_error"):
		return fmt.Errorf("backend rejected request: %v: %w", err, ErrConfiguration)

	case strings.Contains(errStr, "not supported"), strings.Contains(errStr, "unsupported"):
		return fmt.Errorf("unsupported by backend: %v: %w", err, ErrUnsupported)

	default:
		return fmt.Errorf("backend call failed: %v: %w", err, ErrInternal)
	}
}

// IsRetryable reports whether a mapped error is worth retrying upstream.
// This layer never retries itself; the hint is for callers.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
