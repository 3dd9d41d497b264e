package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument signals a malformed, missing or out-of-range request parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorageUnavailable signals a storage connection or command failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrTimeout signals a storage operation that exceeded its time budget.
	ErrTimeout = errors.New("storage timeout")
	// ErrBuildFailed signals an aborted index build. The stored index is undefined afterwards.
	ErrBuildFailed = errors.New("index build failed")
)

// InvalidArgument wraps ErrInvalidArgument with a human-readable reason.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// WrapStorage classifies a storage error: deadline expiry becomes ErrTimeout,
// everything else ErrStorageUnavailable. nil stays nil.
func WrapStorage(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
