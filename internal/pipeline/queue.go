package pipeline

import (
	"sync/atomic"

	"sentry-gate/internal/vision"
)

// frameQueue is the bounded buffer between frame capture and
// recognition. When full, the oldest unprocessed frame is dropped:
// bounded staleness instead of backpressure on the camera.
type frameQueue struct {
	ch      chan vision.Frame
	dropped atomic.Int64
}

func newFrameQueue(size int) *frameQueue {
	return &frameQueue{ch: make(chan vision.Frame, size)}
}

// push never blocks the producer. Only the producer goroutine calls
// it, so the drop-then-send pair cannot race with another push.
func (q *frameQueue) push(f vision.Frame) {
	for {
		select {
		case q.ch <- f:
			return
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

func (q *frameQueue) close() { close(q.ch) }

func (q *frameQueue) Dropped() int64 { return q.dropped.Load() }
