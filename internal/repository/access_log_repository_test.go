package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/datatypes"

	"sentry-gate/internal/domain"
)

func TestAccessLogAppendAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	et := domain.EntityOCRRecord
	id := int64(7)
	entry, err := s.AccessLogs.Append(ctx, "pipeline", "gate_access", &et, &id, datatypes.JSONMap{
		"gate":  "gate-1",
		"plate": "ABC1234",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if entry.ID == 0 {
		t.Fatal("appended entry has no id")
	}

	got, err := s.AccessLogs.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Actor != "pipeline" || got.Action != "gate_access" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if got.Details["plate"] != "ABC1234" {
		t.Fatalf("details lost: %+v", got.Details)
	}

	if _, err := s.AccessLogs.GetByID(ctx, 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing entry: err = %v, want ErrNotFound", err)
	}
}

func TestAccessLogFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Entity mutations write their own trail rows.
	c := mustCarrier(t, s, "123")
	mustVehicle(t, s, "ABC1234", &c.ID)
	if _, err := s.AccessLogs.Append(ctx, "pipeline", "gate_access", nil, nil, nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	all, err := s.AccessLogs.Find(ctx, AccessLogFilter{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d trail rows, want 3 (two creates + one gate event)", len(all))
	}

	byActor, err := s.AccessLogs.Find(ctx, AccessLogFilter{Actor: "pipeline"})
	if err != nil {
		t.Fatalf("Find by actor: %v", err)
	}
	if len(byActor) != 1 || byActor[0].Action != "gate_access" {
		t.Fatalf("actor filter returned %+v", byActor)
	}

	byEntity, err := s.AccessLogs.Find(ctx, AccessLogFilter{EntityType: domain.EntityCarrier})
	if err != nil {
		t.Fatalf("Find by entity: %v", err)
	}
	if len(byEntity) != 1 {
		t.Fatalf("got %d carrier trail rows, want 1", len(byEntity))
	}

	limited, err := s.AccessLogs.Find(ctx, AccessLogFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Find with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("got %d rows with limit 2, want 2", len(limited))
	}
}
