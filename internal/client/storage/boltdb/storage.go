package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fitsync/internal/client/storage"
	"github.com/iudanet/fitsync/internal/models"
)

var (
	// BoltDB bucket names
	bucketActivities = []byte(models.CollectionActivities)
	bucketDetails    = []byte(models.CollectionActivityDetails)
	bucketMetadata   = []byte("metadata")
)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db        *bbolt.DB
	listeners []storage.ChangeListener
	mu        sync.RWMutex
}

var (
	_ storage.LocalStore      = (*Storage)(nil)
	_ storage.MetadataStorage = (*Storage)(nil)
)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB; Timeout не дает повиснуть, если файл держит другой процесс
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketActivities, bucketDetails, bucketMetadata} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// Subscribe registers a listener notified after every committed write
func (s *Storage) Subscribe(l storage.ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// View runs fn in a read-only transaction
func (s *Storage) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// Update runs fn in one read-write transaction. Any error returned by fn
// rolls back every write made inside it.
func (s *Storage) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	wrapped := &boltTx{}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		wrapped.tx = tx
		return fn(wrapped)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}

	s.notify(wrapped.writes)
	return nil
}

func (s *Storage) notify(events []storage.ChangeEvent) {
	if len(events) == 0 {
		return
	}

	s.mu.RLock()
	listeners := make([]storage.ChangeListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, e := range events {
		for _, l := range listeners {
			l(e)
		}
	}
}

// boltTx adapts *bbolt.Tx to storage.Tx; each collection is one bucket
type boltTx struct {
	tx     *bbolt.Tx
	writes []storage.ChangeEvent
}

func (t *boltTx) Get(collection, key string, v any) error {
	bucket := t.tx.Bucket([]byte(collection))
	if bucket == nil {
		return storage.ErrEntryNotFound
	}

	data := bucket.Get([]byte(key))
	if data == nil {
		return storage.ErrEntryNotFound
	}

	// Десериализуем
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s/%s: %w", collection, key, err)
	}
	return nil
}

func (t *boltTx) Put(collection, key string, v any) error {
	if !t.tx.Writable() {
		return fmt.Errorf("put %s/%s: read-only transaction", collection, key)
	}

	// Сериализуем значение в JSON
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", collection, key, err)
	}

	bucket, err := t.tx.CreateBucketIfNotExists([]byte(collection))
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	if err := bucket.Put([]byte(key), data); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", collection, key, err)
	}

	t.writes = append(t.writes, storage.ChangeEvent{Collection: collection, Key: key})
	return nil
}

func (t *boltTx) ForEach(collection string, fn func(key string, raw []byte) error) error {
	bucket := t.tx.Bucket([]byte(collection))
	if bucket == nil {
		return fmt.Errorf("%w: %s", storage.ErrUnknownCollection, collection)
	}

	return bucket.ForEach(func(k, v []byte) error {
		return fn(string(k), v)
	})
}
