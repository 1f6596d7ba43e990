package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"sentry-gate/internal/domain"
)

// OCRRecordRepository stores recognition records. Rows are immutable
// once created; the single allowed mutation is one resolution
// transition from ambiguous during manual review.
type OCRRecordRepository struct {
	store *Store
}

func newOCRRecordRepository(s *Store) *OCRRecordRepository {
	return &OCRRecordRepository{store: s}
}

// Create persists a pipeline result. When the record was accepted and
// its normalized plate matches a registered vehicle, the record is
// linked; an unmatched plate is stored unlinked, pending later
// reconciliation, and is not an error.
func (r *OCRRecordRepository) Create(ctx context.Context, actor string, rec *domain.OCRRecord) error {
	if !rec.Resolution.Valid() {
		return fmt.Errorf("%w: unknown resolution %q", domain.ErrInvalidInput, rec.Resolution)
	}
	if rec.Confidence < 0 || rec.Confidence > 1 {
		return fmt.Errorf("%w: confidence %f outside [0,1]", domain.ErrInvalidInput, rec.Confidence)
	}
	return r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec.VehicleID = nil
		if rec.Resolution == domain.OutcomeAccepted && rec.NormalizedPlate != nil {
			var vehicle domain.Vehicle
			err := tx.Where("plate = ?", *rec.NormalizedPlate).First(&vehicle).Error
			switch err {
			case nil:
				rec.VehicleID = &vehicle.ID
			case gorm.ErrRecordNotFound:
				// Unregistered vehicle; keep the record unlinked.
			default:
				return err
			}
		}
		if err := tx.Create(rec).Error; err != nil {
			return translate(err)
		}
		return appendAudit(tx, actor, "create", domain.EntityOCRRecord, rec.ID, datatypes.JSONMap{
			"resolution": string(rec.Resolution),
		})
	})
}

func (r *OCRRecordRepository) GetByID(ctx context.Context, id int64) (*domain.OCRRecord, error) {
	var rec domain.OCRRecord
	if err := r.store.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// Resolve performs the manual-review transition. Only ambiguous
// records may move, and only to accepted or rejected. Accepting also
// links the record to a matching vehicle when one exists.
func (r *OCRRecordRepository) Resolve(ctx context.Context, actor string, id int64, target domain.Outcome) (*domain.OCRRecord, error) {
	var rec domain.OCRRecord
	err := r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return translate(err)
		}
		if !rec.Resolution.CanResolveTo(target) {
			return fmt.Errorf("%w: resolution %q cannot move to %q", domain.ErrImmutableRecord, rec.Resolution, target)
		}
		rec.Resolution = target
		if target == domain.OutcomeAccepted && rec.NormalizedPlate != nil {
			var vehicle domain.Vehicle
			err := tx.Where("plate = ?", *rec.NormalizedPlate).First(&vehicle).Error
			switch err {
			case nil:
				rec.VehicleID = &vehicle.ID
			case gorm.ErrRecordNotFound:
			default:
				return err
			}
		}
		updates := map[string]interface{}{
			"resolution": rec.Resolution,
			"vehicle_id": rec.VehicleID,
		}
		if err := tx.Model(&domain.OCRRecord{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return translate(err)
		}
		return appendAudit(tx, actor, "resolve", domain.EntityOCRRecord, id, datatypes.JSONMap{
			"resolution": string(target),
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindFilter narrows a recognition record query. Zero values are
// ignored.
type FindFilter struct {
	Plate      string
	Resolution domain.Outcome
	VehicleID  *int64
	From, To   *time.Time
	Limit      int
	Offset     int
}

func (r *OCRRecordRepository) Find(ctx context.Context, f FindFilter) ([]domain.OCRRecord, error) {
	q := r.store.db.WithContext(ctx).Model(&domain.OCRRecord{})
	if f.Plate != "" {
		q = q.Where("normalized_plate = ?", f.Plate)
	}
	if f.Resolution != "" {
		q = q.Where("resolution = ?", f.Resolution)
	}
	if f.VehicleID != nil {
		q = q.Where("vehicle_id = ?", *f.VehicleID)
	}
	if f.From != nil {
		q = q.Where("frame_time >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("frame_time <= ?", *f.To)
	}
	q = q.Order("frame_time DESC")

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	q = q.Limit(limit)
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var records []domain.OCRRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, translate(err)
	}
	return records, nil
}

// LastForVehicle returns the time of the newest recognition record
// linked to a vehicle, or nil when there is none.
func (r *OCRRecordRepository) LastForVehicle(ctx context.Context, vehicleID int64) (*time.Time, error) {
	var rec domain.OCRRecord
	err := r.store.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("frame_time DESC").
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec.FrameTime, nil
}
