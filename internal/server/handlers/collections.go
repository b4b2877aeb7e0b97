package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/fitsync/internal/server/storage"
	"github.com/iudanet/fitsync/internal/validation"
	"github.com/iudanet/fitsync/pkg/api"
)

// DefaultMaxBodyBytes предел тела PUT запроса, если не задан в конфигурации
const DefaultMaxBodyBytes int64 = 32 << 20

// Store хранилище, с которым работает CollectionsHandler
type Store interface {
	storage.CollectionStorage
	storage.ManifestStorage
}

// CollectionMetrics счетчики операций с коллекциями
type CollectionMetrics interface {
	CollectionRead(collection string)
	CollectionWritten(collection string, n int)
}

// CollectionsHandler отдает и заменяет коллекции пользователя целиком.
// Сервер не разбирает элементы: конфликты решает клиент.
type CollectionsHandler struct {
	store        Store
	metrics      CollectionMetrics
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewCollectionsHandler создает handler. metrics может быть nil.
func NewCollectionsHandler(store Store, metrics CollectionMetrics, maxBodyBytes int64, logger *slog.Logger) *CollectionsHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &CollectionsHandler{
		store:        store,
		metrics:      metrics,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// GetCollection обрабатывает GET /api/v1/collections/{collection}
func (h *CollectionsHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	userID, collection, ok := h.target(w, r)
	if !ok {
		return
	}

	items, updatedAt, err := h.store.GetCollection(r.Context(), userID, collection)
	if err != nil {
		h.logger.Error("failed to read collection",
			slog.String("user_id", userID),
			slog.String("collection", collection),
			slog.Any("error", err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal server error", "")
		return
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	if h.metrics != nil {
		h.metrics.CollectionRead(collection)
	}

	writeJSON(w, h.logger, http.StatusOK, api.CollectionResponse{
		Collection: collection,
		Items:      items,
		UpdatedAt:  updatedAt,
	})
}

// PutCollection обрабатывает PUT /api/v1/collections/{collection}
func (h *CollectionsHandler) PutCollection(w http.ResponseWriter, r *http.Request) {
	userID, collection, ok := h.target(w, r)
	if !ok {
		return
	}

	var req api.CollectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Items == nil {
		req.Items = []json.RawMessage{}
	}

	updatedAt, err := h.store.ReplaceCollection(r.Context(), userID, collection, req.Items)
	if err != nil {
		h.logger.Error("failed to replace collection",
			slog.String("user_id", userID),
			slog.String("collection", collection),
			slog.Any("error", err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal server error", "")
		return
	}
	if h.metrics != nil {
		h.metrics.CollectionWritten(collection, len(req.Items))
	}

	h.logger.Info("collection replaced",
		slog.String("user_id", userID),
		slog.String("collection", collection),
		slog.Int("items", len(req.Items)))

	writeJSON(w, h.logger, http.StatusOK, api.WriteResponse{
		Collection: collection,
		Count:      len(req.Items),
		UpdatedAt:  updatedAt,
	})
}

// GetManifest обрабатывает GET /api/v1/manifest. 404 если manifest еще не сохранялся.
func (h *CollectionsHandler) GetManifest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	m, err := h.store.GetManifest(r.Context(), userID)
	if errors.Is(err, storage.ErrManifestNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "manifest not found", "")
		return
	}
	if err != nil {
		h.logger.Error("failed to read manifest", slog.String("user_id", userID), slog.Any("error", err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal server error", "")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, m)
}

// PutManifest обрабатывает PUT /api/v1/manifest
func (h *CollectionsHandler) PutManifest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	var m api.Manifest
	if !h.decode(w, r, &m) {
		return
	}
	for _, c := range m.Collections {
		if err := validation.ValidateID(c.Collection); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "invalid manifest", err.Error())
			return
		}
	}

	if err := h.store.SaveManifest(r.Context(), userID, m); err != nil {
		h.logger.Error("failed to save manifest", slog.String("user_id", userID), slog.Any("error", err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal server error", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CollectionsHandler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.logger.Error("user_id not found in context")
		writeError(w, h.logger, http.StatusUnauthorized, "unauthorized", "")
		return "", false
	}
	return userID, true
}

func (h *CollectionsHandler) target(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := h.user(w, r)
	if !ok {
		return "", "", false
	}
	collection := chi.URLParam(r, "collection")
	if err := validation.ValidateID(collection); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid collection name", err.Error())
		return "", "", false
	}
	return userID, collection, true
}

// decode читает JSON тело не больше maxBodyBytes
func (h *CollectionsHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.logger, http.StatusRequestEntityTooLarge, "request body too large", "")
			return false
		}
		h.logger.Warn("invalid request body", slog.Any("error", err))
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body", "")
		return false
	}
	return true
}
