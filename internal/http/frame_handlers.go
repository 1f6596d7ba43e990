package http

import (
	"image"
	"net/http"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/gin-gonic/gin"

	"sentry-gate/internal/vision"
)

// maxFrameBytes caps a single pushed frame at 8 MiB.
const maxFrameBytes = 8 << 20

// pushFrame accepts a PNG or JPEG frame from a camera adapter and
// feeds it to the recognition pipeline. 202 means queued, 429 means
// the ingest buffer was full and the frame was dropped.
func (h *Handler) pushFrame(c *gin.Context) {
	if h.frames == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse("frame ingest is not enabled"))
		return
	}

	img, _, err := image.Decode(http.MaxBytesReader(c.Writer, c.Request.Body, maxFrameBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid image payload"))
		return
	}

	frame := frameFromImage(img)
	frame.Timestamp = time.Now().UTC()
	if !h.frames.Push(frame) {
		c.JSON(http.StatusTooManyRequests, errorResponse("frame buffer full, frame dropped"))
		return
	}
	c.JSON(http.StatusAccepted, successResponse(gin.H{
		"width":  frame.Width,
		"height": frame.Height,
	}))
}

func frameFromImage(img image.Image) vision.Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, 0, w*h*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pixels = append(pixels, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}
	return vision.Frame{Width: w, Height: h, Channels: 3, Pixels: pixels}
}
