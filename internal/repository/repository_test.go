package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"sentry-gate/internal/config"
	"sentry-gate/internal/db"
	"sentry-gate/internal/domain"
)

func newTestStore(t *testing.T) *Store {
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
	return NewStore(gdb, zerolog.Nop())
}

// mustCarrier seeds a carrier and returns it.
func mustCarrier(t *testing.T, s *Store, taxID string) *domain.Carrier {
	t.Helper()
	c := &domain.Carrier{TaxID: taxID, Name: "Carrier " + taxID}
	if err := s.Carriers.Create(context.Background(), "test", c); err != nil {
		t.Fatalf("seed carrier: %v", err)
	}
	return c
}

// mustVehicle seeds a vehicle and returns it.
func mustVehicle(t *testing.T, s *Store, plate string, carrierID *int64) *domain.Vehicle {
	t.Helper()
	v := &domain.Vehicle{Plate: plate, CarrierID: carrierID}
	if err := s.Vehicles.Create(context.Background(), "test", v); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return v
}

// auditEntries returns the trail rows for one entity.
func auditEntries(t *testing.T, s *Store, et domain.EntityType, id int64) []domain.AccessLog {
	t.Helper()
	entries, err := s.AccessLogs.Find(context.Background(), AccessLogFilter{
		EntityType: et,
		EntityID:   &id,
	})
	if err != nil {
		t.Fatalf("query audit trail: %v", err)
	}
	return entries
}
