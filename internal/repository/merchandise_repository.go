package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sentry-gate/internal/domain"
)

type MerchandiseRepository struct {
	crud[domain.Merchandise]
}

func newMerchandiseRepository(s *Store) *MerchandiseRepository {
	r := &MerchandiseRepository{}
	r.crud = crud[domain.Merchandise]{
		store:      s,
		entityType: domain.EntityMerchandise,
		idOf:       func(m *domain.Merchandise) int64 { return m.ID },
		preserve: func(m, existing *domain.Merchandise) {
			m.CreatedAt = existing.CreatedAt
		},
		beforeSave: func(tx *gorm.DB, m *domain.Merchandise) error {
			if m.Code == "" {
				return fmt.Errorf("%w: merchandise code is required", domain.ErrInvalidInput)
			}
			if m.Description == "" {
				return fmt.Errorf("%w: merchandise description is required", domain.ErrInvalidInput)
			}
			if m.Quantity < 0 {
				return fmt.Errorf("%w: merchandise quantity cannot be negative", domain.ErrInvalidInput)
			}
			// A transport event links a vehicle and a timestamp together.
			if (m.VehicleID == nil) != (m.TransportAt == nil) {
				return fmt.Errorf("%w: transport link requires both vehicle and timestamp", domain.ErrInvalidInput)
			}
			if m.VehicleID != nil {
				var count int64
				if err := tx.Model(&domain.Vehicle{}).Where("id = ?", *m.VehicleID).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return fmt.Errorf("%w: vehicle %d does not exist", domain.ErrReferentialIntegrity, *m.VehicleID)
				}
			}
			return nil
		},
	}
	return r
}

func (r *MerchandiseRepository) Create(ctx context.Context, actor string, m *domain.Merchandise) error {
	return r.create(ctx, actor, m)
}

func (r *MerchandiseRepository) GetByID(ctx context.Context, id int64) (*domain.Merchandise, error) {
	return r.getByID(ctx, id)
}

func (r *MerchandiseRepository) Find(ctx context.Context, query string, args ...interface{}) ([]domain.Merchandise, error) {
	return r.find(ctx, query, args...)
}

func (r *MerchandiseRepository) Update(ctx context.Context, actor string, m *domain.Merchandise) error {
	return r.update(ctx, actor, m)
}

func (r *MerchandiseRepository) Delete(ctx context.Context, actor string, id int64) error {
	return r.delete(ctx, actor, id)
}
