package domain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	// Pipeline errors.
	ErrPreprocess            = errors.New("preprocess failed")
	ErrRecognizerUnavailable = errors.New("recognizer unavailable")

	// Data-layer errors.
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	ErrImmutableRecord      = errors.New("record is immutable")

	// Backup errors.
	ErrBackupNotFound     = errors.New("backup not found")
	ErrIncompatibleSchema = errors.New("incompatible backup schema version")
)
