package vision

import (
	"fmt"
	"time"

	"sentry-gate/internal/domain"
)

// Frame is a single raw image sample from a camera source. Pixels are
// packed row-major, Channels bytes per pixel (1 = grayscale, 3 = RGB).
type Frame struct {
	Width     int
	Height    int
	Channels  int
	Pixels    []byte
	Timestamp time.Time
}

func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: zero-sized frame %dx%d", domain.ErrPreprocess, f.Width, f.Height)
	}
	if f.Channels != 1 && f.Channels != 3 {
		return fmt.Errorf("%w: unsupported channel count %d", domain.ErrPreprocess, f.Channels)
	}
	if len(f.Pixels) != f.Width*f.Height*f.Channels {
		return fmt.Errorf("%w: pixel buffer size %d does not match %dx%dx%d",
			domain.ErrPreprocess, len(f.Pixels), f.Width, f.Height, f.Channels)
	}
	return nil
}

// Rect is a bounding box in the coordinate space of the frame the
// region was cut from.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// CandidateRegion is a cropped sub-image likely to contain a plate.
// The crop is single-channel grayscale.
type CandidateRegion struct {
	Frame  Frame
	Bounds Rect
}
