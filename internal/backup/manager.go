package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"sentry-gate/internal/db"
	"sentry-gate/internal/domain"
)

// Handle addresses one backup artifact. It doubles as the artifact's
// file stem under the backup directory.
type Handle string

// artifact is the on-disk snapshot: every table as of one logical
// instant plus the schema version that wrote it.
type artifact struct {
	SchemaVersion int                  `json:"schema_version"`
	CreatedAt     time.Time            `json:"created_at"`
	Carriers      []domain.Carrier     `json:"carriers"`
	Vehicles      []domain.Vehicle     `json:"vehicles"`
	Merchandise   []domain.Merchandise `json:"merchandise"`
	OCRRecords    []domain.OCRRecord   `json:"ocr_records"`
	AccessLogs    []domain.AccessLog   `json:"access_logs"`
}

// Info describes a stored backup for listing.
type Info struct {
	Handle        Handle    `json:"handle"`
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
	Size          int64     `json:"size"`
}

// Manager snapshots and restores the whole store. Snapshots read all
// tables inside a single transaction, so concurrent writes never
// produce a torn copy; restores replace all tables inside a single
// transaction, so a failure leaves the prior state intact.
type Manager struct {
	db  *gorm.DB
	dir string
	log zerolog.Logger
}

func NewManager(gdb *gorm.DB, dir string, log zerolog.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Manager{db: gdb, dir: dir, log: log.With().Str("component", "backup").Logger()}, nil
}

// txOptions pins the whole transaction to a single snapshot on
// postgres, whose default read committed level takes a fresh snapshot
// per statement. sqlite serializes transactions and rejects
// non-default isolation levels, so it keeps the driver default.
func (m *Manager) txOptions() []*sql.TxOptions {
	if m.db.Dialector.Name() == "postgres" {
		return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead}}
	}
	return nil
}

func (m *Manager) Backup(ctx context.Context) (Handle, error) {
	snap := artifact{CreatedAt: time.Now().UTC()}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		version, err := db.CurrentVersion(tx)
		if err != nil {
			return err
		}
		snap.SchemaVersion = version
		if err := tx.Order("id").Find(&snap.Carriers).Error; err != nil {
			return err
		}
		if err := tx.Order("id").Find(&snap.Vehicles).Error; err != nil {
			return err
		}
		if err := tx.Order("id").Find(&snap.Merchandise).Error; err != nil {
			return err
		}
		if err := tx.Order("id").Find(&snap.OCRRecords).Error; err != nil {
			return err
		}
		return tx.Order("id").Find(&snap.AccessLogs).Error
	}, m.txOptions()...)
	if err != nil {
		return "", fmt.Errorf("snapshot store: %w", err)
	}

	handle := Handle(fmt.Sprintf("sentry_%s_%s",
		snap.CreatedAt.Format("20060102T150405"),
		strings.Split(uuid.NewString(), "-")[0]))

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}

	path := m.path(handle)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize backup: %w", err)
	}

	m.log.Info().
		Str("handle", string(handle)).
		Int("schema_version", snap.SchemaVersion).
		Int("vehicles", len(snap.Vehicles)).
		Int("ocr_records", len(snap.OCRRecords)).
		Msg("backup created")
	return handle, nil
}

// Restore replaces the live store with the artifact's contents. The
// swap happens in one transaction: either the full backup state lands
// or the store keeps its pre-restore state.
func (m *Manager) Restore(ctx context.Context, handle Handle) error {
	data, err := os.ReadFile(m.path(handle))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", domain.ErrBackupNotFound, handle)
	}
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	var snap artifact
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode backup %s: %w", handle, err)
	}
	if snap.SchemaVersion > db.SchemaVersion {
		return fmt.Errorf("%w: backup has version %d, running schema is %d",
			domain.ErrIncompatibleSchema, snap.SchemaVersion, db.SchemaVersion)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Children first so the delete order never trips a
		// foreign key.
		for _, model := range []interface{}{
			&domain.AccessLog{}, &domain.OCRRecord{}, &domain.Merchandise{},
			&domain.Vehicle{}, &domain.Carrier{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		if len(snap.Carriers) > 0 {
			if err := tx.Create(&snap.Carriers).Error; err != nil {
				return err
			}
		}
		if len(snap.Vehicles) > 0 {
			if err := tx.Create(&snap.Vehicles).Error; err != nil {
				return err
			}
		}
		if len(snap.Merchandise) > 0 {
			if err := tx.Create(&snap.Merchandise).Error; err != nil {
				return err
			}
		}
		if len(snap.OCRRecords) > 0 {
			if err := tx.Create(&snap.OCRRecords).Error; err != nil {
				return err
			}
		}
		if len(snap.AccessLogs) > 0 {
			if err := tx.Create(&snap.AccessLogs).Error; err != nil {
				return err
			}
		}
		return nil
	}, m.txOptions()...)
	if err != nil {
		return fmt.Errorf("restore %s: %w", handle, err)
	}

	m.log.Info().Str("handle", string(handle)).Msg("store restored from backup")
	return nil
}

func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	var infos []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || !strings.HasPrefix(name, "sentry_") {
			continue
		}
		handle := Handle(strings.TrimSuffix(name, ".json"))
		data, err := os.ReadFile(m.path(handle))
		if err != nil {
			continue
		}
		var snap struct {
			SchemaVersion int       `json:"schema_version"`
			CreatedAt     time.Time `json:"created_at"`
		}
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Handle:        handle,
			SchemaVersion: snap.SchemaVersion,
			CreatedAt:     snap.CreatedAt,
			Size:          fi.Size(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return infos, nil
}

func (m *Manager) Delete(handle Handle) error {
	err := os.Remove(m.path(handle))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", domain.ErrBackupNotFound, handle)
	}
	return err
}

// CleanupOld removes all but the newest keep backups.
func (m *Manager) CleanupOld(keep int) error {
	if keep < 1 {
		keep = 1
	}
	infos, err := m.List()
	if err != nil {
		return err
	}
	for _, info := range infos[min(keep, len(infos)):] {
		if err := m.Delete(info.Handle); err != nil {
			return err
		}
		m.log.Debug().Str("handle", string(info.Handle)).Msg("old backup removed")
	}
	return nil
}

func (m *Manager) path(handle Handle) string {
	return filepath.Join(m.dir, string(handle)+".json")
}
