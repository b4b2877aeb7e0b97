package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/fitsync/internal/server/storage"
)

// EnsureUser creates the user if it does not exist yet
func (s *Storage) EnsureUser(ctx context.Context, userID string) error {
	return ensureUser(ctx, s.db, userID, s.now())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func ensureUser(ctx context.Context, db execer, userID string, now time.Time) error {
	query := `INSERT INTO users (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`
	if _, err := db.ExecContext(ctx, query, userID, now.UnixMilli()); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

const userQuery = `
	SELECT u.id, u.created_at, u.last_sync_at, COALESCE(SUM(c.item_count), 0)
	FROM users u
	LEFT JOIN collections c ON c.user_id = u.id
`

// GetUser retrieves user by ID
func (s *Storage) GetUser(ctx context.Context, userID string) (*storage.User, error) {
	row := s.db.QueryRowContext(ctx, userQuery+` WHERE u.id = ? GROUP BY u.id`, userID)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all users ordered by id
func (s *Storage) ListUsers(ctx context.Context) ([]*storage.User, error) {
	rows, err := s.db.QueryContext(ctx, userQuery+` GROUP BY u.id ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*storage.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*storage.User, error) {
	var (
		user                  storage.User
		createdAt, lastSyncAt int64
	)
	if err := row.Scan(&user.ID, &createdAt, &lastSyncAt, &user.Items); err != nil {
		return nil, err
	}

	user.CreatedAt = time.UnixMilli(createdAt)
	if lastSyncAt > 0 {
		user.LastSyncAt = time.UnixMilli(lastSyncAt)
	}
	return &user, nil
}
