package vision

import (
	"context"
	"io"
	"sync"
)

// PushSource adapts push-style frame delivery (camera webhook, HTTP
// ingest) to the pull-based Source contract.
type PushSource struct {
	ch     chan Frame
	mu     sync.Mutex
	closed bool
}

func NewPushSource(buffer int) *PushSource {
	if buffer < 1 {
		buffer = 1
	}
	return &PushSource{ch: make(chan Frame, buffer)}
}

// Push hands a frame to the pipeline. It never blocks the caller;
// a full buffer drops the frame and reports false.
func (s *PushSource) Push(f Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- f:
		return true
	default:
		return false
	}
}

func (s *PushSource) Next(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case f, ok := <-s.ch:
		if !ok {
			return Frame{}, io.EOF
		}
		return f, nil
	}
}

func (s *PushSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
