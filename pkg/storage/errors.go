package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a package version does not exist.
	ErrNotFound = errors.New("package not found")

	// ErrInvalidPackage is returned when a package cannot be stored because
	// its id or version is malformed.
	ErrInvalidPackage = errors.New("invalid package")
)
