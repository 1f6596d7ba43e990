package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sentry-gate/internal/config"
	"sentry-gate/internal/db"
	"sentry-gate/internal/domain"
	"sentry-gate/internal/pipeline"
	"sentry-gate/internal/repository"
)

func newTestService(t *testing.T) (*GateService, *repository.Store, *pipeline.Notifier) {
	t.Helper()
	gdb, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "sentry_test.db"),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	store := repository.NewStore(gdb, zerolog.Nop())
	notifier := pipeline.NewNotifier()
	gate := config.GateConfig{ID: "gate-1", Lane: 2, Direction: "entry"}
	return NewGateService(store, notifier, gate, zerolog.Nop()), store, notifier
}

func acceptedRecord(plate string) *domain.OCRRecord {
	p := plate
	return &domain.OCRRecord{
		RawText:         plate,
		NormalizedPlate: &p,
		Confidence:      0.95,
		Resolution:      domain.OutcomeAccepted,
		FrameTime:       time.Now().UTC(),
	}
}

func TestHandleRecognitionAccepted(t *testing.T) {
	svc, store, notifier := newTestService(t)
	ctx := context.Background()

	v := &domain.Vehicle{Plate: "ABC1234"}
	if err := svc.RegisterVehicle(ctx, "alice", v); err != nil {
		t.Fatalf("RegisterVehicle: %v", err)
	}

	events, cancel := notifier.Subscribe()
	defer cancel()

	rec := acceptedRecord("ABC1234")
	if err := svc.HandleRecognition(ctx, rec); err != nil {
		t.Fatalf("HandleRecognition: %v", err)
	}
	if rec.VehicleID == nil || *rec.VehicleID != v.ID {
		t.Fatal("accepted record not linked to the registered vehicle")
	}

	// The gate access event lands in the audit trail.
	trail, err := store.AccessLogs.Find(ctx, repository.AccessLogFilter{Action: "gate_access"})
	if err != nil {
		t.Fatalf("query trail: %v", err)
	}
	if len(trail) != 1 {
		t.Fatalf("got %d gate_access rows, want 1", len(trail))
	}
	if trail[0].Details["gate"] != "gate-1" || trail[0].Details["plate"] != "ABC1234" {
		t.Fatalf("gate_access details = %+v", trail[0].Details)
	}

	select {
	case ev := <-events:
		if ev.RecordID != rec.ID || ev.Outcome != domain.OutcomeAccepted {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no outcome event published")
	}
}

func TestHandleRecognitionRejectedSkipsGateAccess(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	rec := &domain.OCRRecord{
		RawText:    "??",
		Confidence: 0.30,
		Resolution: domain.OutcomeRejected,
		FrameTime:  time.Now().UTC(),
	}
	if err := svc.HandleRecognition(ctx, rec); err != nil {
		t.Fatalf("HandleRecognition: %v", err)
	}

	trail, err := store.AccessLogs.Find(ctx, repository.AccessLogFilter{Action: "gate_access"})
	if err != nil {
		t.Fatalf("query trail: %v", err)
	}
	if len(trail) != 0 {
		t.Fatalf("rejected read produced %d gate_access rows", len(trail))
	}

	// The record itself is still stored for later analysis.
	if _, err := store.OCRRecords.GetByID(ctx, rec.ID); err != nil {
		t.Fatalf("rejected record not stored: %v", err)
	}
}

func TestResolveRecord(t *testing.T) {
	svc, store, notifier := newTestService(t)
	ctx := context.Background()

	plate := "ABC1234"
	rec := &domain.OCRRecord{
		RawText:         plate,
		NormalizedPlate: &plate,
		Confidence:      0.70,
		Resolution:      domain.OutcomeAmbiguous,
		FrameTime:       time.Now().UTC(),
	}
	if err := svc.HandleRecognition(ctx, rec); err != nil {
		t.Fatalf("HandleRecognition: %v", err)
	}

	events, cancel := notifier.Subscribe()
	defer cancel()

	resolved, err := svc.ResolveRecord(ctx, "bob", rec.ID, domain.OutcomeAccepted)
	if err != nil {
		t.Fatalf("ResolveRecord: %v", err)
	}
	if resolved.Resolution != domain.OutcomeAccepted {
		t.Fatalf("resolution = %q, want accepted", resolved.Resolution)
	}

	select {
	case ev := <-events:
		if ev.Outcome != domain.OutcomeAccepted {
			t.Fatalf("event outcome = %q", ev.Outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("no resolution event published")
	}

	if _, err := svc.ResolveRecord(ctx, "bob", rec.ID, domain.OutcomeRejected); !errors.Is(err, domain.ErrImmutableRecord) {
		t.Fatalf("second resolve: err = %v, want ErrImmutableRecord", err)
	}

	entries, err := store.AccessLogs.Find(ctx, repository.AccessLogFilter{Action: "resolve"})
	if err != nil {
		t.Fatalf("query trail: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d resolve trail rows, want 1", len(entries))
	}
}

func TestResolveRecordRejectsAmbiguousTarget(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.ResolveRecord(context.Background(), "bob", 1, domain.OutcomeAmbiguous); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.ResolveRecord(context.Background(), "bob", 1, domain.Outcome("pending")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
