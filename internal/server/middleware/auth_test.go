package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitsync/internal/server/handlers"
	"github.com/iudanet/fitsync/pkg/api"
)

var testJWTConfig = handlers.JWTConfig{
	Secret:         []byte("test-secret-key-test-secret-key!"),
	AccessTokenTTL: 15 * time.Minute,
}

// echoUserHandler отвечает user_id из контекста
func echoUserHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := handlers.GetUserID(r.Context())
		require.True(t, ok, "user_id should be in context")
		_, _ = w.Write([]byte(userID))
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	token, _, err := handlers.GenerateAccessToken(testJWTConfig, "user123")
	require.NoError(t, err)

	handler := AuthMiddleware(setupTestLogger(), testJWTConfig)(echoUserHandler(t))

	for _, scheme := range []string{"Bearer", "bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/collections/activities", nil)
		req.Header.Set("Authorization", scheme+" "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user123", w.Body.String())
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired, _, err := handlers.GenerateAccessToken(handlers.JWTConfig{
		Secret:         testJWTConfig.Secret,
		AccessTokenTTL: -time.Minute,
	}, "user123")
	require.NoError(t, err)

	foreign, _, err := handlers.GenerateAccessToken(handlers.JWTConfig{
		Secret:         []byte("wrong-secret-wrong-secret-wrong!"),
		AccessTokenTTL: time.Minute,
	}, "user123")
	require.NoError(t, err)

	tests := []struct {
		name        string
		header      string
		wantMessage string
	}{
		{name: "missing header", header: "", wantMessage: "unauthorized: missing token"},
		{name: "no scheme", header: "token-only", wantMessage: "unauthorized: invalid token format"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantMessage: "unauthorized: invalid token format"},
		{name: "empty token", header: "Bearer ", wantMessage: "unauthorized: invalid token format"},
		{name: "garbage token", header: "Bearer not.a.jwt", wantMessage: "unauthorized: invalid token"},
		{name: "expired token", header: "Bearer " + expired, wantMessage: "unauthorized: invalid token"},
		{name: "wrong secret", header: "Bearer " + foreign, wantMessage: "unauthorized: invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := AuthMiddleware(setupTestLogger(), testJWTConfig)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/manifest", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.False(t, called, "next handler must not be called")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var errResp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
			assert.Equal(t, tt.wantMessage, errResp.Error)
		})
	}
}
