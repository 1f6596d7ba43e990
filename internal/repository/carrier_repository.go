package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sentry-gate/internal/domain"
)

// CarrierRepository applies a restrict policy on deletion: a carrier
// with registered vehicles cannot be removed.
type CarrierRepository struct {
	crud[domain.Carrier]
}

func newCarrierRepository(s *Store) *CarrierRepository {
	r := &CarrierRepository{}
	r.crud = crud[domain.Carrier]{
		store:      s,
		entityType: domain.EntityCarrier,
		idOf:       func(c *domain.Carrier) int64 { return c.ID },
		preserve: func(c, existing *domain.Carrier) {
			c.CreatedAt = existing.CreatedAt
		},
		beforeSave: func(tx *gorm.DB, c *domain.Carrier) error {
			if c.TaxID == "" {
				return fmt.Errorf("%w: carrier tax id is required", domain.ErrInvalidInput)
			}
			if c.Name == "" {
				return fmt.Errorf("%w: carrier name is required", domain.ErrInvalidInput)
			}
			return nil
		},
		beforeDelete: func(tx *gorm.DB, id int64) error {
			var dependents int64
			if err := tx.Model(&domain.Vehicle{}).Where("carrier_id = ?", id).Count(&dependents).Error; err != nil {
				return err
			}
			if dependents > 0 {
				return fmt.Errorf("%w: carrier %d has %d vehicles", domain.ErrReferentialIntegrity, id, dependents)
			}
			return nil
		},
	}
	return r
}

func (r *CarrierRepository) Create(ctx context.Context, actor string, c *domain.Carrier) error {
	return r.create(ctx, actor, c)
}

func (r *CarrierRepository) GetByID(ctx context.Context, id int64) (*domain.Carrier, error) {
	return r.getByID(ctx, id)
}

func (r *CarrierRepository) GetByTaxID(ctx context.Context, taxID string) (*domain.Carrier, error) {
	var c domain.Carrier
	if err := r.store.db.WithContext(ctx).Where("tax_id = ?", taxID).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CarrierRepository) Find(ctx context.Context, query string, args ...interface{}) ([]domain.Carrier, error) {
	return r.find(ctx, query, args...)
}

func (r *CarrierRepository) Update(ctx context.Context, actor string, c *domain.Carrier) error {
	return r.update(ctx, actor, c)
}

func (r *CarrierRepository) Delete(ctx context.Context, actor string, id int64) error {
	return r.delete(ctx, actor, id)
}
