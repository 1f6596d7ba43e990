package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"

	"sentry-gate/internal/domain"
	"sentry-gate/internal/vision"
)

// AgentClient talks to an external ALPR agent over HTTP. The agent
// accepts a PNG crop and answers with zero or more plate reads.
type AgentClient struct {
	url    string
	client *http.Client
}

func NewAgentClient(url string, timeout time.Duration) *AgentClient {
	return &AgentClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type agentResponse struct {
	ProcessingTime float64       `json:"processing_time_ms"`
	Results        []agentResult `json:"results"`
}

type agentResult struct {
	Plate      string  `json:"plate"`
	Confidence float64 `json:"confidence"`
}

func (c *AgentClient) Recognize(ctx context.Context, region vision.CandidateRegion) (RawCandidate, error) {
	body, err := encodePNG(region.Frame)
	if err != nil {
		return RawCandidate{}, fmt.Errorf("%w: %v", domain.ErrRecognizerUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return RawCandidate{}, fmt.Errorf("%w: %v", domain.ErrRecognizerUnavailable, err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.client.Do(req)
	if err != nil {
		return RawCandidate{}, fmt.Errorf("%w: %v", domain.ErrRecognizerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RawCandidate{}, fmt.Errorf("%w: agent returned %s", domain.ErrRecognizerUnavailable, resp.Status)
	}

	var parsed agentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return RawCandidate{}, fmt.Errorf("%w: decode response: %v", domain.ErrRecognizerUnavailable, err)
	}

	best := RawCandidate{}
	for _, r := range parsed.Results {
		conf := r.Confidence
		if conf > 1 {
			// Agents report percentages; normalize to [0,1].
			conf /= 100
		}
		if conf > best.Confidence {
			best = RawCandidate{Text: r.Plate, Confidence: conf}
		}
	}
	return best, nil
}

func encodePNG(f vision.Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	if f.Channels == 1 {
		copy(img.Pix, f.Pixels)
	} else {
		for i := 0; i < f.Width*f.Height; i++ {
			r := int(f.Pixels[i*3])
			g := int(f.Pixels[i*3+1])
			b := int(f.Pixels[i*3+2])
			img.Pix[i] = byte((299*r + 587*g + 114*b) / 1000)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
