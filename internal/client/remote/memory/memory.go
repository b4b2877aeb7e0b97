// Package memory implements an in-process backend. It is used in tests and
// by the "memory" backend kind for dry runs.
package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/iudanet/fitsync/internal/client/remote"
	"github.com/iudanet/fitsync/internal/config"
)

// Kind имя вида backend'а в конфигурации
const Kind = "memory"

// Store хранит коллекции в памяти
type Store struct {
	name        string
	collections map[string][]json.RawMessage
	manifest    *remote.Manifest
	mu          sync.RWMutex

	reads  int
	writes int
}

// New создает пустое хранилище
func New(name string) *Store {
	return &Store{
		name:        name,
		collections: make(map[string][]json.RawMessage),
	}
}

// Factory для remote.Registry
func Factory(_ context.Context, cfg config.BackendConfig, _ *slog.Logger) (remote.RemoteStore, error) {
	return New(cfg.Name), nil
}

// Name implements remote.RemoteStore.
func (s *Store) Name() string {
	return s.name
}

// ReadRemote implements remote.RemoteStore.
func (s *Store) ReadRemote(ctx context.Context, collection string) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++

	return cloneItems(s.collections[collection]), nil
}

// WriteRemote implements remote.RemoteStore.
func (s *Store) WriteRemote(ctx context.Context, collection string, items []json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++

	s.collections[collection] = cloneItems(items)
	return nil
}

// RemoteManifest implements remote.ManifestStore.
func (s *Store) RemoteManifest(ctx context.Context) (*remote.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.manifest == nil {
		return nil, nil
	}
	m := cloneManifest(*s.manifest)
	return &m, nil
}

// UpdateManifest implements remote.ManifestStore.
func (s *Store) UpdateManifest(ctx context.Context, m remote.Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m = cloneManifest(m)
	s.manifest = &m
	return nil
}

// Reads число вызовов ReadRemote
func (s *Store) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

// Writes число вызовов WriteRemote
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Len число элементов в коллекции
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func cloneItems(items []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, item := range items {
		out[i] = slices.Clone(item)
	}
	return out
}

func cloneManifest(m remote.Manifest) remote.Manifest {
	m.Collections = slices.Clone(m.Collections)
	return m
}

var (
	_ remote.RemoteStore   = (*Store)(nil)
	_ remote.ManifestStore = (*Store)(nil)
)
