package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitsync/pkg/api"
)

func TestCollectionsHandler_PutThenGet(t *testing.T) {
	store := newMockStore()
	metrics := &countingMetrics{}
	handler := NewCollectionsHandler(store, metrics, 0, setupTestLogger())

	body := `{"items":[{"id":"a","version":1},{"id":"b","version":2}]}`
	req := newRequest(http.MethodPut, "/api/v1/collections/activities", "user123", "activities", body)
	w := httptest.NewRecorder()
	handler.PutCollection(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var wr api.WriteResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&wr))
	assert.Equal(t, "activities", wr.Collection)
	assert.Equal(t, 2, wr.Count)
	assert.Equal(t, store.now, wr.UpdatedAt)

	req = newRequest(http.MethodGet, "/api/v1/collections/activities", "user123", "activities", "")
	w = httptest.NewRecorder()
	handler.GetCollection(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp api.CollectionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Items, 2)
	assert.JSONEq(t, `{"id":"a","version":1}`, string(resp.Items[0]))
	assert.JSONEq(t, `{"id":"b","version":2}`, string(resp.Items[1]))

	assert.Equal(t, 1, metrics.reads)
	assert.Equal(t, 1, metrics.writes)
	assert.Equal(t, 2, metrics.items)
}

func TestCollectionsHandler_GetMissingIsEmpty(t *testing.T) {
	handler := NewCollectionsHandler(newMockStore(), nil, 0, setupTestLogger())

	req := newRequest(http.MethodGet, "/api/v1/collections/activities", "user123", "activities", "")
	w := httptest.NewRecorder()
	handler.GetCollection(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[]`)
}

func TestCollectionsHandler_PutNullItemsStoresEmpty(t *testing.T) {
	store := newMockStore()
	handler := NewCollectionsHandler(store, nil, 0, setupTestLogger())

	req := newRequest(http.MethodPut, "/api/v1/collections/activities", "user123", "activities", `{}`)
	w := httptest.NewRecorder()
	handler.PutCollection(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	items, ok := store.collections["user123/activities"]
	require.True(t, ok)
	assert.Empty(t, items)
}

func TestCollectionsHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		userID     string
		collection string
		body       string
		maxBody    int64
		storeErr   error
		wantStatus int
	}{
		{name: "get unauthorized", method: http.MethodGet, collection: "activities", wantStatus: http.StatusUnauthorized},
		{name: "get invalid collection", method: http.MethodGet, userID: "u1", collection: "bad.name", wantStatus: http.StatusBadRequest},
		{name: "get storage error", method: http.MethodGet, userID: "u1", collection: "activities", storeErr: errBoom, wantStatus: http.StatusInternalServerError},
		{name: "put invalid json", method: http.MethodPut, userID: "u1", collection: "activities", body: `{"items":[`, wantStatus: http.StatusBadRequest},
		{name: "put body too large", method: http.MethodPut, userID: "u1", collection: "activities", body: `{"items":[{"id":"a"}]}`, maxBody: 8, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "put storage error", method: http.MethodPut, userID: "u1", collection: "activities", body: `{"items":[]}`, storeErr: errBoom, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			store.err = tt.storeErr
			handler := NewCollectionsHandler(store, nil, tt.maxBody, setupTestLogger())

			req := newRequest(tt.method, "/api/v1/collections/x", tt.userID, tt.collection, tt.body)
			w := httptest.NewRecorder()
			if tt.method == http.MethodGet {
				handler.GetCollection(w, req)
			} else {
				handler.PutCollection(w, req)
			}

			assert.Equal(t, tt.wantStatus, w.Code)
			var errResp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

func TestCollectionsHandler_UsersAreIsolated(t *testing.T) {
	store := newMockStore()
	handler := NewCollectionsHandler(store, nil, 0, setupTestLogger())

	req := newRequest(http.MethodPut, "/", "alice", "activities", `{"items":[{"id":"a"}]}`)
	handler.PutCollection(httptest.NewRecorder(), req)

	req = newRequest(http.MethodGet, "/", "bob", "activities", "")
	w := httptest.NewRecorder()
	handler.GetCollection(w, req)

	var resp api.CollectionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.Items)
}

func TestCollectionsHandler_Manifest(t *testing.T) {
	handler := NewCollectionsHandler(newMockStore(), nil, 0, setupTestLogger())

	w := httptest.NewRecorder()
	handler.GetManifest(w, newRequest(http.MethodGet, "/api/v1/manifest", "user123", "", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := `{"collections":[{"collection":"activities","content_hash":"abc","count":2}],"aggregate_hash":"xyz","updated_at":5}`
	w = httptest.NewRecorder()
	handler.PutManifest(w, newRequest(http.MethodPut, "/api/v1/manifest", "user123", "", body))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	handler.GetManifest(w, newRequest(http.MethodGet, "/api/v1/manifest", "user123", "", ""))
	require.Equal(t, http.StatusOK, w.Code)

	var m api.Manifest
	require.NoError(t, json.NewDecoder(w.Body).Decode(&m))
	assert.Equal(t, "xyz", m.AggregateHash)
	assert.Equal(t, "abc", m.Hash("activities"))
}

func TestCollectionsHandler_ManifestErrors(t *testing.T) {
	t.Run("invalid collection name", func(t *testing.T) {
		handler := NewCollectionsHandler(newMockStore(), nil, 0, setupTestLogger())
		body := `{"collections":[{"collection":"../etc","content_hash":"abc"}]}`
		w := httptest.NewRecorder()
		handler.PutManifest(w, newRequest(http.MethodPut, "/api/v1/manifest", "u1", "", body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthorized", func(t *testing.T) {
		handler := NewCollectionsHandler(newMockStore(), nil, 0, setupTestLogger())
		w := httptest.NewRecorder()
		handler.GetManifest(w, newRequest(http.MethodGet, "/api/v1/manifest", "", "", ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("storage error", func(t *testing.T) {
		store := newMockStore()
		store.err = errBoom
		handler := NewCollectionsHandler(store, nil, 0, setupTestLogger())

		w := httptest.NewRecorder()
		handler.GetManifest(w, newRequest(http.MethodGet, "/api/v1/manifest", "u1", "", ""))
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		w = httptest.NewRecorder()
		handler.PutManifest(w, newRequest(http.MethodPut, "/api/v1/manifest", "u1", "", strings.TrimSpace(`{"collections":[]}`)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
