package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"sentry-gate/internal/domain"
)

func TestVehicleCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := &domain.Vehicle{Plate: "abc-1234", Make: "Volvo", Model: "FH"}
	if err := s.Vehicles.Create(ctx, "alice", v); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v.ID == 0 {
		t.Fatal("created vehicle has no id")
	}
	if v.Plate != "ABC1234" {
		t.Fatalf("plate = %q, want normalized ABC1234", v.Plate)
	}

	got, err := s.Vehicles.GetByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Plate != "ABC1234" || got.Make != "Volvo" || got.Model != "FH" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}

	byPlate, err := s.Vehicles.GetByPlate(ctx, "abc 1234")
	if err != nil {
		t.Fatalf("GetByPlate: %v", err)
	}
	if byPlate.ID != v.ID {
		t.Fatalf("GetByPlate returned id %d, want %d", byPlate.ID, v.ID)
	}

	entries := auditEntries(t, s, domain.EntityVehicle, v.ID)
	if len(entries) != 1 {
		t.Fatalf("got %d audit entries, want 1", len(entries))
	}
	if entries[0].Actor != "alice" || entries[0].Action != "create" {
		t.Fatalf("audit entry = %s/%s, want alice/create", entries[0].Actor, entries[0].Action)
	}
}

func TestVehicleCreateValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Vehicles.Create(ctx, "alice", &domain.Vehicle{Plate: "---"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty plate: err = %v, want ErrInvalidInput", err)
	}

	missing := int64(404)
	err := s.Vehicles.Create(ctx, "alice", &domain.Vehicle{Plate: "ABC1234", CarrierID: &missing})
	if !errors.Is(err, domain.ErrReferentialIntegrity) {
		t.Fatalf("dangling carrier: err = %v, want ErrReferentialIntegrity", err)
	}
}

func TestVehicleDuplicatePlate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustVehicle(t, s, "ABC1234", nil)
	err := s.Vehicles.Create(ctx, "alice", &domain.Vehicle{Plate: "abc-1234"})
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}

	// The failed transaction must not leave an audit row behind.
	vehicles, err := s.Vehicles.Find(ctx, "")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(vehicles) != 1 {
		t.Fatalf("got %d vehicles, want 1", len(vehicles))
	}
}

func TestVehicleUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := mustVehicle(t, s, "ABC1234", nil)

	// Whole-entity replacement as a client sends it: no created_at.
	repl := domain.Vehicle{ID: v.ID, Plate: "ABC1234", Color: "red"}
	if err := s.Vehicles.Update(ctx, "bob", &repl); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Vehicles.GetByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Color != "red" {
		t.Fatalf("color = %q, want red", got.Color)
	}
	if got.CreatedAt.IsZero() || got.CreatedAt.Unix() != v.CreatedAt.Unix() {
		t.Fatalf("created_at = %v after update, want %v preserved", got.CreatedAt, v.CreatedAt)
	}

	missing := domain.Vehicle{ID: 404, Plate: "XYZ9876"}
	if err := s.Vehicles.Update(ctx, "bob", &missing); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update missing: err = %v, want ErrNotFound", err)
	}
}

func TestVehicleDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := mustVehicle(t, s, "ABC1234", nil)
	if err := s.Vehicles.Delete(ctx, "alice", v.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Vehicles.GetByID(ctx, v.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.Vehicles.Delete(ctx, "alice", v.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("double delete: err = %v, want ErrNotFound", err)
	}
}

func TestVehicleDeleteRestrictedByRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := mustVehicle(t, s, "ABC1234", nil)
	plate := v.Plate
	rec := &domain.OCRRecord{
		RawText:         "ABC1234",
		NormalizedPlate: &plate,
		Confidence:      0.95,
		Resolution:      domain.OutcomeAccepted,
		FrameTime:       time.Now().UTC(),
	}
	if err := s.OCRRecords.Create(ctx, "pipeline", rec); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	if err := s.Vehicles.Delete(ctx, "alice", v.ID); !errors.Is(err, domain.ErrReferentialIntegrity) {
		t.Fatalf("err = %v, want ErrReferentialIntegrity", err)
	}

	// Both sides survive the refused deletion.
	if _, err := s.Vehicles.GetByID(ctx, v.ID); err != nil {
		t.Fatalf("vehicle gone after refused delete: %v", err)
	}
	if _, err := s.OCRRecords.GetByID(ctx, rec.ID); err != nil {
		t.Fatalf("record gone after refused delete: %v", err)
	}
}

func TestVehicleDeleteRestrictedByMerchandise(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := mustVehicle(t, s, "ABC1234", nil)
	at := time.Now().UTC()
	m := &domain.Merchandise{Code: "PAL-1", Description: "pallets", Quantity: 12, VehicleID: &v.ID, TransportAt: &at}
	if err := s.Merchandise.Create(ctx, "alice", m); err != nil {
		t.Fatalf("seed merchandise: %v", err)
	}

	if err := s.Vehicles.Delete(ctx, "alice", v.ID); !errors.Is(err, domain.ErrReferentialIntegrity) {
		t.Fatalf("err = %v, want ErrReferentialIntegrity", err)
	}
}
