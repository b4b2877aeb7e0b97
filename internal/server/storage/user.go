package storage

import (
	"context"
	"time"
)

// User владелец коллекций. Пользователи появляются при выдаче токена или
// при первой записи.
type User struct {
	ID         string
	CreatedAt  time.Time
	LastSyncAt time.Time // zero если записей еще не было
	Items      int       // число элементов во всех коллекциях
}

// UserStorage defines interface for user bookkeeping
type UserStorage interface {
	// EnsureUser creates the user if it does not exist yet
	EnsureUser(ctx context.Context, userID string) error

	// GetUser returns ErrUserNotFound if the user doesn't exist
	GetUser(ctx context.Context, userID string) (*User, error)

	// ListUsers returns all users ordered by id
	ListUsers(ctx context.Context) ([]*User, error)
}
