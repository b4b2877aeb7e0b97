package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/fitsync/pkg/api"
)

// writeJSON отправляет JSON ответ
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError отправляет ошибку в формате api.ErrorResponse
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg, details string) {
	writeJSON(w, logger, status, api.ErrorResponse{Error: msg, Message: details})
}

// WriteError доступен middleware, чтобы ошибки имели один формат
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: msg})
}
