package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrapStorage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"wrapped deadline", fmt.Errorf("geosearch: %w", context.DeadlineExceeded), ErrTimeout},
		{"connection", errors.New("dial tcp: connection refused"), ErrStorageUnavailable},
		{"already classified", fmt.Errorf("x: %w", ErrTimeout), ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapStorage(tt.err)
			if !errors.Is(got, tt.want) {
				t.Fatalf("WrapStorage(%v) = %v, want %v", tt.err, got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("original error lost: %v", got)
			}
		})
	}
}

func TestWrapStorage_Nil(t *testing.T) {
	if err := WrapStorage(nil); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
}

func TestInvalidArgument(t *testing.T) {
	err := InvalidArgument("radius %v out of range", 300)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if err.Error() != "invalid argument: radius 300 out of range" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
