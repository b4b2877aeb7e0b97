package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/fitsync/internal/server/storage"
	"github.com/iudanet/fitsync/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

// mockStore хранит коллекции в памяти
type mockStore struct {
	mu          sync.Mutex
	collections map[string][]json.RawMessage
	manifests   map[string]api.Manifest
	err         error
	now         int64
}

func newMockStore() *mockStore {
	return &mockStore{
		collections: make(map[string][]json.RawMessage),
		manifests:   make(map[string]api.Manifest),
		now:         1700000000000,
	}
}

func (m *mockStore) GetCollection(_ context.Context, userID, collection string) ([]json.RawMessage, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	items, ok := m.collections[userID+"/"+collection]
	if !ok {
		return []json.RawMessage{}, 0, nil
	}
	return items, m.now, nil
}

func (m *mockStore) ReplaceCollection(_ context.Context, userID, collection string, items []json.RawMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.collections[userID+"/"+collection] = items
	return m.now, nil
}

func (m *mockStore) GetManifest(_ context.Context, userID string) (*api.Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	man, ok := m.manifests[userID]
	if !ok {
		return nil, storage.ErrManifestNotFound
	}
	return &man, nil
}

func (m *mockStore) SaveManifest(_ context.Context, userID string, man api.Manifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.manifests[userID] = man
	return nil
}

type countingMetrics struct {
	reads  int
	writes int
	items  int
}

func (c *countingMetrics) CollectionRead(string) { c.reads++ }

func (c *countingMetrics) CollectionWritten(_ string, n int) {
	c.writes++
	c.items += n
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// newRequest создает запрос с user_id и параметром collection
func newRequest(method, target, userID, collection, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := req.Context()
	if userID != "" {
		ctx = WithUserID(ctx, userID)
	}
	if collection != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("collection", collection)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

var errBoom = errors.New("boom")
