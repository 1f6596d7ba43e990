package vision

import (
	"context"
	"sync"
	"time"
)

// Source yields raw frames. Implementations signal end of stream with
// io.EOF; the pipeline treats any other error as a skipped frame.
type Source interface {
	Next(ctx context.Context) (Frame, error)
}

// CaptureFunc grabs one frame from a device or image provider.
type CaptureFunc func(ctx context.Context) (Frame, error)

// TickerSource pulls frames from a capture function at a fixed rate,
// decoupling the camera from recognition latency.
type TickerSource struct {
	capture  CaptureFunc
	interval time.Duration

	once   sync.Once
	ticker *time.Ticker
}

func NewTickerSource(capture CaptureFunc, interval time.Duration) *TickerSource {
	return &TickerSource{capture: capture, interval: interval}
}

func (s *TickerSource) Next(ctx context.Context) (Frame, error) {
	s.once.Do(func() {
		s.ticker = time.NewTicker(s.interval)
	})
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-s.ticker.C:
		return s.capture(ctx)
	}
}

func (s *TickerSource) Close() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
}
