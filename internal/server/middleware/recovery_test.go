package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitsync/pkg/api"
)

func TestRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		handler http.HandlerFunc
		name    string
	}{
		{name: "panic with string", handler: func(w http.ResponseWriter, r *http.Request) { panic("something went wrong") }},
		{name: "panic with error", handler: func(w http.ResponseWriter, r *http.Request) { panic(errors.New("db exploded")) }},
		{name: "panic with custom type", handler: func(w http.ResponseWriter, r *http.Request) { panic(struct{ msg string }{"critical"}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logBuf := bufferLogger()
			handler := RecoveryMiddleware(logger)(tt.handler)

			w := httptest.NewRecorder()
			assert.NotPanics(t, func() {
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/collections/activities", nil))
			})

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			var errResp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
			assert.Equal(t, "internal server error", errResp.Error)

			logOutput := logBuf.String()
			assert.Contains(t, logOutput, "Panic recovered")
			assert.Contains(t, logOutput, "stack=")
			assert.Contains(t, logOutput, "path=/api/v1/collections/activities")
		})
	}
}

func TestRecoveryMiddleware_NoPanic(t *testing.T) {
	handler := RecoveryMiddleware(setupTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("success"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", w.Body.String())
}

func TestRecoveryMiddleware_AbortHandlerPropagates(t *testing.T) {
	handler := RecoveryMiddleware(setupTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithError(t, http.ErrAbortHandler.Error(), func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
