// Package storage defines the persistence contracts of fitsync-server.
package storage

import (
	"context"
	"encoding/json"

	"github.com/iudanet/fitsync/pkg/api"
)

// CollectionStorage хранит коллекции пользователя целиком
type CollectionStorage interface {
	// GetCollection returns the items of a collection in the order they were
	// written and the time of the last write (epoch ms).
	// A collection that was never written returns an empty slice and 0.
	GetCollection(ctx context.Context, userID, collection string) ([]json.RawMessage, int64, error)

	// ReplaceCollection atomically replaces the whole collection and returns
	// the write time (epoch ms). The user is registered on first write.
	ReplaceCollection(ctx context.Context, userID, collection string, items []json.RawMessage) (int64, error)
}

// ManifestStorage хранит manifest пользователя
type ManifestStorage interface {
	// GetManifest returns ErrManifestNotFound if the user has none
	GetManifest(ctx context.Context, userID string) (*api.Manifest, error)

	// SaveManifest replaces the user's manifest
	SaveManifest(ctx context.Context, userID string, m api.Manifest) error
}
