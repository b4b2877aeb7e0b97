package api

// TokenResponse представляет ответ с токеном доступа (команда token сервера)
type TokenResponse struct {
	AccessToken string `json:"access_token"` // JWT access token
	UserID      string `json:"user_id"`      // владелец коллекций
	ExpiresIn   int64  `json:"expires_in"`   // время жизни access token в секундах
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// HealthResponse ответ /api/v1/health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
