package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Outcome is the terminal decision for a recognition attempt.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeAmbiguous Outcome = "ambiguous"
	OutcomeRejected  Outcome = "rejected"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeAccepted, OutcomeAmbiguous, OutcomeRejected:
		return true
	}
	return false
}

// CanResolveTo reports whether a manual review may move this outcome
// to the target. Only ambiguous records are resolvable, once.
func (o Outcome) CanResolveTo(target Outcome) bool {
	if o != OutcomeAmbiguous {
		return false
	}
	return target == OutcomeAccepted || target == OutcomeRejected
}

// EntityType tags the target of a polymorphic AccessLog reference.
// The set of loggable entities is closed.
type EntityType string

const (
	EntityVehicle     EntityType = "vehicle"
	EntityCarrier     EntityType = "carrier"
	EntityMerchandise EntityType = "merchandise"
	EntityOCRRecord   EntityType = "ocr_record"
)

type Vehicle struct {
	ID        int64             `gorm:"primaryKey" json:"id"`
	Plate     string            `gorm:"not null;uniqueIndex" json:"plate"`
	Make      string            `json:"make,omitempty"`
	Model     string            `json:"model,omitempty"`
	Color     string            `json:"color,omitempty"`
	CarrierID *int64            `gorm:"index" json:"carrier_id,omitempty"`
	Details   datatypes.JSONMap `json:"details,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (Vehicle) TableName() string { return "vehicles" }

type Carrier struct {
	ID           int64             `gorm:"primaryKey" json:"id"`
	TaxID        string            `gorm:"not null;uniqueIndex" json:"tax_id"`
	Name         string            `gorm:"not null" json:"name"`
	Status       string            `json:"status,omitempty"`
	ContactPhone string            `json:"contact_phone,omitempty"`
	ContactEmail string            `json:"contact_email,omitempty"`
	Details      datatypes.JSONMap `json:"details,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

func (Carrier) TableName() string { return "carriers" }

type Merchandise struct {
	ID          int64             `gorm:"primaryKey" json:"id"`
	Code        string            `gorm:"not null;uniqueIndex" json:"code"`
	Description string            `gorm:"not null" json:"description"`
	Quantity    float64           `json:"quantity"`
	Unit        string            `json:"unit,omitempty"`
	Status      string            `json:"status,omitempty"`
	VehicleID   *int64            `gorm:"index" json:"vehicle_id,omitempty"`
	TransportAt *time.Time        `json:"transport_at,omitempty"`
	Details     datatypes.JSONMap `json:"details,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (Merchandise) TableName() string { return "merchandise" }

// OCRRecord is created only by the recognition pipeline. Rows are
// immutable once written except for one resolution transition during
// manual review (ambiguous to accepted or rejected).
type OCRRecord struct {
	ID              int64             `gorm:"primaryKey" json:"id"`
	RawText         string            `gorm:"not null" json:"raw_text"`
	NormalizedPlate *string           `gorm:"index" json:"normalized_plate,omitempty"`
	Confidence      float64           `gorm:"not null" json:"confidence"`
	Resolution      Outcome           `gorm:"type:varchar(16);not null" json:"resolution"`
	VehicleID       *int64            `gorm:"index" json:"vehicle_id,omitempty"`
	FrameTime       time.Time         `gorm:"not null;index" json:"frame_time"`
	RawPayload      datatypes.JSONMap `json:"raw_payload,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

func (OCRRecord) TableName() string { return "ocr_records" }

// AccessLog is the append-only audit trail. One row per mutating
// operation, written in the same transaction as the mutation.
type AccessLog struct {
	ID         int64             `gorm:"primaryKey" json:"id"`
	Actor      string            `gorm:"not null" json:"actor"`
	Action     string            `gorm:"not null" json:"action"`
	EntityType *EntityType       `gorm:"type:varchar(32);index:idx_access_logs_entity" json:"entity_type,omitempty"`
	EntityID   *int64            `gorm:"index:idx_access_logs_entity" json:"entity_id,omitempty"`
	Details    datatypes.JSONMap `json:"details,omitempty"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

func (AccessLog) TableName() string { return "access_logs" }
