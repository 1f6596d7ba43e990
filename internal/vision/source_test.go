package vision

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestTickerSource(t *testing.T) {
	calls := 0
	src := NewTickerSource(func(ctx context.Context) (Frame, error) {
		calls++
		if calls > 2 {
			return Frame{}, io.EOF
		}
		return Frame{Width: calls, Height: 1, Channels: 1, Pixels: make([]byte, calls)}, nil
	}, time.Millisecond)
	defer src.Close()

	ctx := context.Background()
	first, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.Width != 1 {
		t.Fatalf("first frame width = %d, want 1", first.Width)
	}
	if _, err := src.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := src.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF once the capture ends", err)
	}
}

func TestTickerSourceHonorsContext(t *testing.T) {
	src := NewTickerSource(func(ctx context.Context) (Frame, error) {
		return Frame{}, nil
	}, time.Hour)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}
