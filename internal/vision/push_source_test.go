package vision

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestPushSource(t *testing.T) {
	s := NewPushSource(2)

	if !s.Push(Frame{Width: 1, Height: 1, Channels: 1, Pixels: []byte{0}}) {
		t.Fatal("push into empty buffer failed")
	}
	if !s.Push(Frame{Width: 2, Height: 1, Channels: 1, Pixels: []byte{0, 0}}) {
		t.Fatal("push into half-full buffer failed")
	}
	if s.Push(Frame{Width: 3, Height: 1, Channels: 1, Pixels: []byte{0, 0, 0}}) {
		t.Fatal("push into full buffer should report a drop")
	}

	ctx := context.Background()
	first, err := s.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.Width != 1 {
		t.Fatalf("got frame width %d, want 1 (delivery order)", first.Width)
	}
	if _, err := s.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}

	s.Close()
	if s.Push(Frame{Width: 4, Height: 1, Channels: 1, Pixels: []byte{0, 0, 0, 0}}) {
		t.Fatal("push after close should fail")
	}
	if _, err := s.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("Next after close: err = %v, want io.EOF", err)
	}
	s.Close() // second close is a no-op
}

func TestPushSourceNextHonorsContext(t *testing.T) {
	s := NewPushSource(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := s.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}
