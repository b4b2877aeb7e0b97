package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/fitsync/internal/server/storage"
	"github.com/iudanet/fitsync/pkg/api"
)

// GetCollection returns the collection items in write order
func (s *Storage) GetCollection(ctx context.Context, userID, collection string) ([]json.RawMessage, int64, error) {
	var updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM collections WHERE user_id = ? AND name = ?`,
		userID, collection,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []json.RawMessage{}, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to get collection: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item FROM collection_items
		WHERE user_id = ? AND collection = ?
		ORDER BY position
	`, userID, collection)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get collection items: %w", err)
	}
	defer rows.Close()

	items := make([]json.RawMessage, 0)
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, 0, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, json.RawMessage(item))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, updatedAt, nil
}

// ReplaceCollection заменяет коллекцию целиком в одной транзакции
func (s *Storage) ReplaceCollection(ctx context.Context, userID, collection string, items []json.RawMessage) (int64, error) {
	now := s.now()
	updatedAt := now.UnixMilli()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUser(ctx, tx, userID, now); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO collections (user_id, name, item_count, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id, name) DO UPDATE SET
				item_count = excluded.item_count,
				updated_at = excluded.updated_at
		`, userID, collection, len(items), updatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert collection: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM collection_items WHERE user_id = ? AND collection = ?`,
			userID, collection,
		); err != nil {
			return fmt.Errorf("failed to clear collection: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO collection_items (user_id, collection, position, item) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, item := range items {
			if _, err := stmt.ExecContext(ctx, userID, collection, i, string(item)); err != nil {
				return fmt.Errorf("failed to insert item %d: %w", i, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET last_sync_at = ? WHERE id = ?`, updatedAt, userID,
		); err != nil {
			return fmt.Errorf("failed to touch user: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updatedAt, nil
}

// GetManifest returns ErrManifestNotFound if the user has none
func (s *Storage) GetManifest(ctx context.Context, userID string) (*api.Manifest, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM manifests WHERE user_id = ?`, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrManifestNotFound
		}
		return nil, fmt.Errorf("failed to get manifest: %w", err)
	}

	var m api.Manifest
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// SaveManifest replaces the user's manifest
func (s *Storage) SaveManifest(ctx context.Context, userID string, m api.Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUser(ctx, tx, userID, now); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO manifests (user_id, data, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				data = excluded.data,
				updated_at = excluded.updated_at
		`, userID, string(data), now.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to save manifest: %w", err)
		}
		return nil
	})
}
