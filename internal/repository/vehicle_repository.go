package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sentry-gate/internal/domain"
	"sentry-gate/internal/utils"
)

type VehicleRepository struct {
	crud[domain.Vehicle]
}

func newVehicleRepository(s *Store) *VehicleRepository {
	r := &VehicleRepository{}
	r.crud = crud[domain.Vehicle]{
		store:      s,
		entityType: domain.EntityVehicle,
		idOf:       func(v *domain.Vehicle) int64 { return v.ID },
		preserve: func(v, existing *domain.Vehicle) {
			v.CreatedAt = existing.CreatedAt
		},
		beforeSave: func(tx *gorm.DB, v *domain.Vehicle) error {
			v.Plate = utils.NormalizePlate(v.Plate)
			if v.Plate == "" {
				return fmt.Errorf("%w: vehicle plate is required", domain.ErrInvalidInput)
			}
			if v.CarrierID != nil {
				var count int64
				if err := tx.Model(&domain.Carrier{}).Where("id = ?", *v.CarrierID).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return fmt.Errorf("%w: carrier %d does not exist", domain.ErrReferentialIntegrity, *v.CarrierID)
				}
			}
			return nil
		},
		beforeDelete: func(tx *gorm.DB, id int64) error {
			var records int64
			if err := tx.Model(&domain.OCRRecord{}).Where("vehicle_id = ?", id).Count(&records).Error; err != nil {
				return err
			}
			if records > 0 {
				return fmt.Errorf("%w: vehicle %d has %d recognition records", domain.ErrReferentialIntegrity, id, records)
			}
			var goods int64
			if err := tx.Model(&domain.Merchandise{}).Where("vehicle_id = ?", id).Count(&goods).Error; err != nil {
				return err
			}
			if goods > 0 {
				return fmt.Errorf("%w: vehicle %d has %d merchandise entries", domain.ErrReferentialIntegrity, id, goods)
			}
			return nil
		},
	}
	return r
}

func (r *VehicleRepository) Create(ctx context.Context, actor string, v *domain.Vehicle) error {
	return r.create(ctx, actor, v)
}

func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	return r.getByID(ctx, id)
}

// GetByPlate looks up a vehicle by its canonical plate. The query
// normalizes its input so callers may pass raw reads.
func (r *VehicleRepository) GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	normalized := utils.NormalizePlate(plate)
	if normalized == "" {
		return nil, fmt.Errorf("%w: plate is required", domain.ErrInvalidInput)
	}
	var v domain.Vehicle
	if err := r.store.db.WithContext(ctx).Where("plate = ?", normalized).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *VehicleRepository) Find(ctx context.Context, query string, args ...interface{}) ([]domain.Vehicle, error) {
	return r.find(ctx, query, args...)
}

func (r *VehicleRepository) Update(ctx context.Context, actor string, v *domain.Vehicle) error {
	return r.update(ctx, actor, v)
}

func (r *VehicleRepository) Delete(ctx context.Context, actor string, id int64) error {
	return r.delete(ctx, actor, id)
}
