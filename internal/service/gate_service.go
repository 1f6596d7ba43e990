package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"sentry-gate/internal/config"
	"sentry-gate/internal/domain"
	"sentry-gate/internal/pipeline"
	"sentry-gate/internal/repository"
)

const pipelineActor = "pipeline"

// GateService owns the business rules around gate traffic: it stores
// pipeline results, writes the gate access trail, handles manual
// review, and registers the logistics entities.
type GateService struct {
	store    *repository.Store
	notifier *pipeline.Notifier
	gate     config.GateConfig
	log      zerolog.Logger
}

func NewGateService(store *repository.Store, notifier *pipeline.Notifier, gate config.GateConfig, log zerolog.Logger) *GateService {
	return &GateService{
		store:    store,
		notifier: notifier,
		gate:     gate,
		log:      log.With().Str("component", "gate").Logger(),
	}
}

// HandleRecognition is the pipeline sink: persist the record, log the
// gate access for accepted reads, and notify subscribers.
func (s *GateService) HandleRecognition(ctx context.Context, rec *domain.OCRRecord) error {
	if err := s.store.OCRRecords.Create(ctx, pipelineActor, rec); err != nil {
		return fmt.Errorf("store recognition record: %w", err)
	}

	if rec.Resolution == domain.OutcomeAccepted {
		details := datatypes.JSONMap{
			"gate":       s.gate.ID,
			"lane":       s.gate.Lane,
			"direction":  s.gate.Direction,
			"confidence": rec.Confidence,
		}
		if rec.NormalizedPlate != nil {
			details["plate"] = *rec.NormalizedPlate
		}
		et := domain.EntityOCRRecord
		if _, err := s.store.AccessLogs.Append(ctx, pipelineActor, "gate_access", &et, &rec.ID, details); err != nil {
			s.log.Error().Err(err).Int64("record_id", rec.ID).Msg("failed to log gate access")
		}
	}

	s.notifier.Publish(pipeline.OutcomeEvent{
		RecordID:        rec.ID,
		RawText:         rec.RawText,
		NormalizedPlate: rec.NormalizedPlate,
		Confidence:      rec.Confidence,
		Outcome:         rec.Resolution,
		VehicleID:       rec.VehicleID,
		FrameTime:       rec.FrameTime,
	})

	event := s.log.Info().
		Int64("record_id", rec.ID).
		Str("outcome", string(rec.Resolution)).
		Float64("confidence", rec.Confidence)
	if rec.NormalizedPlate != nil {
		event = event.Str("plate", *rec.NormalizedPlate)
	}
	if rec.VehicleID != nil {
		event = event.Int64("vehicle_id", *rec.VehicleID)
	} else if rec.Resolution == domain.OutcomeAccepted {
		event = event.Bool("unmatched", true)
	}
	event.Msg("recognition recorded")
	return nil
}

// ResolveRecord applies the manual-review decision for an ambiguous
// recognition record.
func (s *GateService) ResolveRecord(ctx context.Context, actor string, id int64, target domain.Outcome) (*domain.OCRRecord, error) {
	if !target.Valid() || target == domain.OutcomeAmbiguous {
		return nil, fmt.Errorf("%w: resolution must be accepted or rejected", domain.ErrInvalidInput)
	}
	rec, err := s.store.OCRRecords.Resolve(ctx, actor, id, target)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("actor", actor).
		Int64("record_id", id).
		Str("resolution", string(target)).
		Msg("recognition record resolved")

	s.notifier.Publish(pipeline.OutcomeEvent{
		RecordID:        rec.ID,
		RawText:         rec.RawText,
		NormalizedPlate: rec.NormalizedPlate,
		Confidence:      rec.Confidence,
		Outcome:         rec.Resolution,
		VehicleID:       rec.VehicleID,
		FrameTime:       rec.FrameTime,
	})
	return rec, nil
}

func (s *GateService) RegisterVehicle(ctx context.Context, actor string, v *domain.Vehicle) error {
	if err := s.store.Vehicles.Create(ctx, actor, v); err != nil {
		return err
	}
	s.log.Info().Str("actor", actor).Str("plate", v.Plate).Int64("vehicle_id", v.ID).Msg("vehicle registered")
	return nil
}

func (s *GateService) RegisterCarrier(ctx context.Context, actor string, c *domain.Carrier) error {
	if err := s.store.Carriers.Create(ctx, actor, c); err != nil {
		return err
	}
	s.log.Info().Str("actor", actor).Str("tax_id", c.TaxID).Int64("carrier_id", c.ID).Msg("carrier registered")
	return nil
}

func (s *GateService) RegisterMerchandise(ctx context.Context, actor string, m *domain.Merchandise) error {
	if err := s.store.Merchandise.Create(ctx, actor, m); err != nil {
		return err
	}
	s.log.Info().Str("actor", actor).Str("code", m.Code).Int64("merchandise_id", m.ID).Msg("merchandise registered")
	return nil
}
