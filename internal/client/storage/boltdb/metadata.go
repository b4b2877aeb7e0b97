package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fitsync/internal/client/storage"
)

const (
	keyLastSyncPrefix = "last_sync:"
)

// SaveLastSyncTimestamp saves the time of the last successful sync with a backend
func (s *Storage) SaveLastSyncTimestamp(ctx context.Context, backend string, timestamp int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		// Конвертируем int64 в bytes
		timestampBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(timestampBytes, uint64(timestamp))

		if err := bucket.Put([]byte(keyLastSyncPrefix+backend), timestampBytes); err != nil {
			return fmt.Errorf("failed to save last sync timestamp: %w", err)
		}

		return nil
	})
}

// GetLastSyncTimestamp retrieves the time of the last successful sync with a backend
// Returns 0 if no sync has been performed yet
func (s *Storage) GetLastSyncTimestamp(ctx context.Context, backend string) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var timestamp int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		timestampBytes := bucket.Get([]byte(keyLastSyncPrefix + backend))
		if timestampBytes == nil {
			// Первая синхронизация с этим backend
			timestamp = 0
			return nil
		}

		timestamp = int64(binary.BigEndian.Uint64(timestampBytes))
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to get last sync timestamp: %w", err)
	}

	return timestamp, nil
}

// LastSyncTimestamps returns the last sync time of every known backend
func (s *Storage) LastSyncTimestamps(ctx context.Context) (map[string]int64, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	result := make(map[string]int64)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		c := bucket.Cursor()
		prefix := []byte(keyLastSyncPrefix)
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), keyLastSyncPrefix); k, v = c.Next() {
			if len(v) != 8 {
				continue
			}
			result[strings.TrimPrefix(string(k), keyLastSyncPrefix)] = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list last sync timestamps: %w", err)
	}

	return result, nil
}
