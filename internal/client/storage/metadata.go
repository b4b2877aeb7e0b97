package storage

import "context"

//go:generate moq -out metadata_mock.go . MetadataStorage

// MetadataStorage defines interface for storing client sync metadata
type MetadataStorage interface {
	// SaveLastSyncTimestamp saves the time (epoch ms) of the last successful
	// sync round against the named backend
	SaveLastSyncTimestamp(ctx context.Context, backend string, timestamp int64) error

	// GetLastSyncTimestamp retrieves the time of the last successful sync
	// against the named backend. Returns 0 if that backend was never synced
	GetLastSyncTimestamp(ctx context.Context, backend string) (int64, error)

	// LastSyncTimestamps returns the last sync time of every backend seen so far
	LastSyncTimestamps(ctx context.Context) (map[string]int64, error)
}
