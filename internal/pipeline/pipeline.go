package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"sentry-gate/internal/config"
	"sentry-gate/internal/domain"
	"sentry-gate/internal/ocr"
	"sentry-gate/internal/validator"
	"sentry-gate/internal/vision"
)

// Sink receives the validated result of one frame. The gate service
// implements it; the pipeline never talks to storage directly.
type Sink interface {
	HandleRecognition(ctx context.Context, rec *domain.OCRRecord) error
}

// Pipeline pulls frames from a source and pushes validated
// recognition records into the sink. Frame capture is decoupled from
// recognition by a bounded drop-oldest queue, and no per-frame error
// ever stops the loop.
type Pipeline struct {
	cfg        config.PipelineConfig
	maxRetries int

	source vision.Source
	pre    *vision.Preprocessor
	rec    ocr.Recognizer
	val    *validator.Validator
	sink   Sink
	queue  *frameQueue
	log    zerolog.Logger
}

func New(
	cfg config.PipelineConfig,
	maxRetries int,
	source vision.Source,
	pre *vision.Preprocessor,
	rec ocr.Recognizer,
	val *validator.Validator,
	sink Sink,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		maxRetries: maxRetries,
		source:     source,
		pre:        pre,
		rec:        rec,
		val:        val,
		sink:       sink,
		queue:      newFrameQueue(cfg.QueueSize),
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

// Dropped reports how many frames were discarded because recognition
// fell behind capture.
func (p *Pipeline) Dropped() int64 { return p.queue.Dropped() }

// Run blocks until the context is canceled or the source ends. The
// producer and the workers stop independently; in-flight store writes
// run to completion or roll back, never half-commit.
func (p *Pipeline) Run(ctx context.Context) error {
	var workers sync.WaitGroup
	n := p.cfg.Workers
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for frame := range p.queue.ch {
				p.processFrame(ctx, frame)
			}
		}()
	}

	err := p.produce(ctx)
	p.queue.close()
	workers.Wait()
	return err
}

func (p *Pipeline) produce(ctx context.Context) error {
	for {
		frame, err := p.source.Next(ctx)
		switch {
		case err == nil:
			p.queue.push(frame)
		case errors.Is(err, io.EOF):
			p.log.Info().Msg("frame source ended")
			return nil
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		default:
			p.log.Warn().Err(err).Msg("frame capture failed, skipping")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// processFrame runs prepare, recognize, validate and the sink write
// for one frame. Every failure is local: log, count, move on.
func (p *Pipeline) processFrame(ctx context.Context, frame vision.Frame) {
	frameCtx, cancel := context.WithTimeout(ctx, p.cfg.FrameTimeout)
	defer cancel()

	regions, err := p.pre.Prepare(frame)
	if err != nil {
		p.log.Warn().Err(err).Time("frame_time", frame.Timestamp).Msg("preprocess failed, frame skipped")
		return
	}
	if len(regions) == 0 {
		p.log.Debug().Time("frame_time", frame.Timestamp).Msg("no candidate regions")
		return
	}

	best := ocr.RawCandidate{}
	found := false
	for _, region := range regions {
		candidate, err := p.recognizeWithRetry(frameCtx, region)
		if err != nil {
			p.log.Warn().Err(err).Msg("recognizer unavailable, region skipped")
			continue
		}
		if !found || candidate.Confidence > best.Confidence {
			best = candidate
			found = true
		}
	}
	if !found || best.Text == "" {
		// No readable text in any region; nothing worth recording.
		return
	}

	result := p.val.Validate(best)
	record := &domain.OCRRecord{
		RawText:         best.Text,
		NormalizedPlate: result.NormalizedPlate,
		Confidence:      best.Confidence,
		Resolution:      result.Outcome,
		FrameTime:       frame.Timestamp,
	}

	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.WriteTimeout)
	defer cancelWrite()
	if err := p.sink.HandleRecognition(writeCtx, record); err != nil {
		p.log.Error().Err(err).Str("raw_text", best.Text).Msg("failed to store recognition record")
		return
	}

	p.log.Info().
		Int64("record_id", record.ID).
		Str("raw_text", best.Text).
		Float64("confidence", best.Confidence).
		Str("outcome", string(result.Outcome)).
		Msg("frame processed")
}

func (p *Pipeline) recognizeWithRetry(ctx context.Context, region vision.CandidateRegion) (ocr.RawCandidate, error) {
	var lastErr error
	attempts := p.maxRetries
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return ocr.RawCandidate{}, ctx.Err()
		}
		candidate, err := p.rec.Recognize(ctx, region)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, domain.ErrRecognizerUnavailable) {
			return ocr.RawCandidate{}, err
		}
		lastErr = err
	}
	return ocr.RawCandidate{}, lastErr
}
