package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Tx is a read or read-write view over every collection. Values are stored
// as JSON.
type Tx interface {
	// Get decodes the value stored under key into v.
	// Returns ErrEntryNotFound if the key is absent
	Get(collection, key string, v any) error

	// Put upserts v under key
	Put(collection, key string, v any) error

	// ForEach calls fn for every key in the collection in key order
	ForEach(collection string, fn func(key string, raw []byte) error) error
}

// ChangeEvent is emitted once per key written by a committed transaction.
type ChangeEvent struct {
	Collection string
	Key        string
}

// ChangeListener receives change notifications after commit.
type ChangeListener func(ChangeEvent)

// LocalStore is the on-device transactional collection store.
type LocalStore interface {
	// View runs fn in a read-only transaction
	View(ctx context.Context, fn func(tx Tx) error) error

	// Update runs fn in a single read-write transaction spanning any number of
	// collections. If fn returns an error nothing is committed
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Subscribe registers a listener for committed writes
	Subscribe(l ChangeListener)
}

// Get reads one value from a collection outside of an explicit transaction.
func Get[T any](ctx context.Context, s LocalStore, collection, key string) (*T, error) {
	var out T
	err := s.View(ctx, func(tx Tx) error {
		return tx.Get(collection, key, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAll reads every value of a collection.
func GetAll[T any](ctx context.Context, s LocalStore, collection string) ([]*T, error) {
	var out []*T
	err := s.View(ctx, func(tx Tx) error {
		var err error
		out, err = All[T](tx, collection)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// All reads every value of a collection inside tx.
func All[T any](tx Tx, collection string) ([]*T, error) {
	out := []*T{}
	err := tx.ForEach(collection, func(key string, raw []byte) error {
		item := new(T)
		if err := json.Unmarshal(raw, item); err != nil {
			return fmt.Errorf("failed to unmarshal %s/%s: %w", collection, key, err)
		}
		out = append(out, item)
		return nil
	})
	if errors.Is(err, ErrUnknownCollection) {
		return out, nil
	}
	return out, err
}

// PutAll upserts items inside tx; keyFn derives the unique key of each item.
func PutAll[T any](tx Tx, collection string, items []T, keyFn func(T) string) error {
	for _, item := range items {
		key := keyFn(item)
		if key == "" {
			return fmt.Errorf("empty key for item in %s", collection)
		}
		if err := tx.Put(collection, key, item); err != nil {
			return err
		}
	}
	return nil
}
