package db

import (
	"fmt"

	"gorm.io/gorm"

	"sentry-gate/internal/domain"
)

// SchemaVersion is the version of the running schema. The backup
// manager refuses to restore artifacts written by a newer schema.
const SchemaVersion = 1

type schemaInfo struct {
	ID      int64 `gorm:"primaryKey"`
	Version int   `gorm:"not null"`
}

func (schemaInfo) TableName() string { return "schema_info" }

// Migrate creates the five entity tables plus the schema version row.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Carrier{},
		&domain.Vehicle{},
		&domain.Merchandise{},
		&domain.OCRRecord{},
		&domain.AccessLog{},
		&schemaInfo{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	var info schemaInfo
	switch err := db.First(&info).Error; err {
	case nil:
		if info.Version > SchemaVersion {
			return fmt.Errorf("database schema version %d is newer than supported version %d",
				info.Version, SchemaVersion)
		}
		if info.Version < SchemaVersion {
			info.Version = SchemaVersion
			if err := db.Save(&info).Error; err != nil {
				return fmt.Errorf("update schema version: %w", err)
			}
		}
	case gorm.ErrRecordNotFound:
		info = schemaInfo{ID: 1, Version: SchemaVersion}
		if err := db.Create(&info).Error; err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
	default:
		return fmt.Errorf("read schema version: %w", err)
	}
	return nil
}

// CurrentVersion reads the schema version persisted in the store.
func CurrentVersion(db *gorm.DB) (int, error) {
	var info schemaInfo
	if err := db.First(&info).Error; err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return info.Version, nil
}
