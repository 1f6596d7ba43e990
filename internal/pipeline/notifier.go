package pipeline

import (
	"sync"
	"time"

	"sentry-gate/internal/domain"
)

// OutcomeEvent is the read-only notification the presentation and
// export layers consume for "latest OCR outcome".
type OutcomeEvent struct {
	RecordID        int64          `json:"record_id"`
	RawText         string         `json:"raw_text"`
	NormalizedPlate *string        `json:"normalized_plate,omitempty"`
	Confidence      float64        `json:"confidence"`
	Outcome         domain.Outcome `json:"outcome"`
	VehicleID       *int64         `json:"vehicle_id,omitempty"`
	FrameTime       time.Time      `json:"frame_time"`
}

// Notifier fans the latest outcome out to subscribers. Publishing
// never blocks: a slow subscriber loses its oldest buffered event.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan OutcomeEvent
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan OutcomeEvent)}
}

func (n *Notifier) Subscribe() (<-chan OutcomeEvent, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	ch := make(chan OutcomeEvent, 8)
	n.subs[id] = ch
	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (n *Notifier) Publish(event OutcomeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		for {
			select {
			case ch <- event:
			default:
				// Full buffer: drop the stale head and retry.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}
