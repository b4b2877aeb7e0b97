package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrManifestNotFound indicates that the user has not stored a manifest yet
	ErrManifestNotFound = errors.New("manifest not found")
)
