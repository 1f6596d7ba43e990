package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"sentry-gate/internal/domain"
)

// Store bundles the per-entity repositories over one shared database.
// Every mutating operation runs in a single transaction that also
// appends the audit row, so an entity change and its AccessLog entry
// persist together or not at all.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger

	Vehicles    *VehicleRepository
	Carriers    *CarrierRepository
	Merchandise *MerchandiseRepository
	OCRRecords  *OCRRecordRepository
	AccessLogs  *AccessLogRepository
}

func NewStore(db *gorm.DB, log zerolog.Logger) *Store {
	s := &Store{db: db, log: log}
	s.Vehicles = newVehicleRepository(s)
	s.Carriers = newCarrierRepository(s)
	s.Merchandise = newMerchandiseRepository(s)
	s.OCRRecords = newOCRRecordRepository(s)
	s.AccessLogs = newAccessLogRepository(s)
	return s
}

// DB exposes the underlying handle for the backup manager, which
// snapshots all tables in one transaction.
func (s *Store) DB() *gorm.DB { return s.db }

// crud is the shared transactional CRUD core, parameterized by entity
// type with per-entity invariant hooks.
type crud[T any] struct {
	store      *Store
	entityType domain.EntityType

	// beforeSave enforces entity invariants inside the transaction,
	// on create and whole-entity update.
	beforeSave func(tx *gorm.DB, e *T) error
	// beforeDelete enforces the referential policy. Returning
	// domain.ErrReferentialIntegrity blocks the deletion.
	beforeDelete func(tx *gorm.DB, id int64) error
	// preserve carries immutable bookkeeping columns from the stored
	// row onto a whole-entity replacement.
	preserve func(e, existing *T)
	idOf     func(e *T) int64
}

func (c *crud[T]) create(ctx context.Context, actor string, e *T) error {
	return c.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.beforeSave != nil {
			if err := c.beforeSave(tx, e); err != nil {
				return err
			}
		}
		if err := tx.Create(e).Error; err != nil {
			return translate(err)
		}
		return appendAudit(tx, actor, "create", c.entityType, c.idOf(e), nil)
	})
}

func (c *crud[T]) getByID(ctx context.Context, id int64) (*T, error) {
	var e T
	if err := c.store.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (c *crud[T]) find(ctx context.Context, query string, args ...interface{}) ([]T, error) {
	var out []T
	q := c.store.db.WithContext(ctx)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// update replaces the whole entity. The target must exist and the
// replacement must satisfy the entity's invariants.
func (c *crud[T]) update(ctx context.Context, actor string, e *T) error {
	id := c.idOf(e)
	return c.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing T
		if err := tx.First(&existing, id).Error; err != nil {
			return translate(err)
		}
		if c.preserve != nil {
			c.preserve(e, &existing)
		}
		if c.beforeSave != nil {
			if err := c.beforeSave(tx, e); err != nil {
				return err
			}
		}
		if err := tx.Save(e).Error; err != nil {
			return translate(err)
		}
		return appendAudit(tx, actor, "update", c.entityType, id, nil)
	})
}

func (c *crud[T]) delete(ctx context.Context, actor string, id int64) error {
	return c.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing T
		if err := tx.First(&existing, id).Error; err != nil {
			return translate(err)
		}
		if c.beforeDelete != nil {
			if err := c.beforeDelete(tx, id); err != nil {
				return err
			}
		}
		if err := tx.Delete(&existing, id).Error; err != nil {
			return translate(err)
		}
		return appendAudit(tx, actor, "delete", c.entityType, id, nil)
	})
}

// appendAudit writes the AccessLog row inside the caller's
// transaction. The trail is append-only; nothing updates or deletes
// these rows.
func appendAudit(tx *gorm.DB, actor, action string, entityType domain.EntityType, entityID int64, details datatypes.JSONMap) error {
	et := entityType
	eid := entityID
	entry := domain.AccessLog{
		Actor:      actor,
		Action:     action,
		EntityType: &et,
		EntityID:   &eid,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// translate maps gorm errors to the domain taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", domain.ErrDuplicateKey, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", domain.ErrReferentialIntegrity, err)
	default:
		return err
	}
}
