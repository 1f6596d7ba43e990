package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"sentry-gate/internal/domain"
)

// AccessLogRepository is append and query only. The transactional
// core writes one entry per mutation; gate events are appended here
// directly. Nothing updates or deletes trail rows.
type AccessLogRepository struct {
	store *Store
}

func newAccessLogRepository(s *Store) *AccessLogRepository {
	return &AccessLogRepository{store: s}
}

// Append records an out-of-band audit event, such as a gate entry or
// a backup run, that is not tied to an entity mutation.
func (r *AccessLogRepository) Append(ctx context.Context, actor, action string, entityType *domain.EntityType, entityID *int64, details datatypes.JSONMap) (*domain.AccessLog, error) {
	entry := domain.AccessLog{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.store.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

type AccessLogFilter struct {
	Actor      string
	Action     string
	EntityType domain.EntityType
	EntityID   *int64
	From, To   *time.Time
	Limit      int
	Offset     int
}

func (r *AccessLogRepository) Find(ctx context.Context, f AccessLogFilter) ([]domain.AccessLog, error) {
	q := r.store.db.WithContext(ctx).Model(&domain.AccessLog{})
	if f.Actor != "" {
		q = q.Where("actor = ?", f.Actor)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	q = q.Order("created_at DESC")

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	q = q.Limit(limit)
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var entries []domain.AccessLog
	if err := q.Find(&entries).Error; err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

func (r *AccessLogRepository) GetByID(ctx context.Context, id int64) (*domain.AccessLog, error) {
	var entry domain.AccessLog
	if err := r.store.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}
