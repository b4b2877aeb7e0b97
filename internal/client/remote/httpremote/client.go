// Package httpremote implements a backend on the fitsync server REST API.
package httpremote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/fitsync/internal/client/remote"
	"github.com/iudanet/fitsync/internal/config"
	"github.com/iudanet/fitsync/pkg/api"
)

// Kind имя вида backend'а в конфигурации
const Kind = "http"

const defaultTimeout = 30 * time.Second

// StatusError ответ сервера с кодом не 2xx
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Code)
	}
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

// Client представляет HTTP backend
type Client struct {
	httpClient *http.Client
	name       string
	baseURL    string
	token      string
	logger     *slog.Logger
}

// NewClient создает новый клиент. timeout 0 - 30 секунд.
func NewClient(name, baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Factory для remote.Registry
func Factory(_ context.Context, cfg config.BackendConfig, logger *slog.Logger) (remote.RemoteStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("url is required")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", cfg.URL, err)
	}
	return NewClient(cfg.Name, cfg.URL, cfg.Token, cfg.Timeout, logger), nil
}

// Name implements remote.RemoteStore.
func (c *Client) Name() string {
	return c.name
}

// ReadRemote implements remote.RemoteStore.
func (c *Client) ReadRemote(ctx context.Context, collection string) ([]json.RawMessage, error) {
	var resp api.CollectionResponse
	if err := c.doRequest(ctx, http.MethodGet, collectionPath(collection), nil, &resp); err != nil {
		return nil, remote.IOError("read", collection, err)
	}
	if resp.Items == nil {
		resp.Items = []json.RawMessage{}
	}
	c.logger.Debug("collection read", "collection", collection, "items", len(resp.Items))
	return resp.Items, nil
}

// WriteRemote implements remote.RemoteStore.
func (c *Client) WriteRemote(ctx context.Context, collection string, items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}

	var resp api.WriteResponse
	if err := c.doRequest(ctx, http.MethodPut, collectionPath(collection), api.CollectionRequest{Items: items}, &resp); err != nil {
		return remote.IOError("write", collection, err)
	}
	c.logger.Debug("collection written", "collection", collection, "count", resp.Count)
	return nil
}

// RemoteManifest implements remote.ManifestStore. 404 означает, что manifest
// еще не сохранен.
func (c *Client) RemoteManifest(ctx context.Context) (*remote.Manifest, error) {
	var m remote.Manifest
	err := c.doRequest(ctx, http.MethodGet, "/api/v1/manifest", nil, &m)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, remote.IOError("read manifest", "", err)
	}
	return &m, nil
}

// UpdateManifest implements remote.ManifestStore.
func (c *Client) UpdateManifest(ctx context.Context, m remote.Manifest) error {
	if err := c.doRequest(ctx, http.MethodPut, "/api/v1/manifest", m, nil); err != nil {
		return remote.IOError("write manifest", "", err)
	}
	return nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

func collectionPath(collection string) string {
	return "/api/v1/collections/" + url.PathEscape(collection)
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			msg := errResp.Error
			if errResp.Message != "" {
				msg += ": " + errResp.Message
			}
			return &StatusError{Code: resp.StatusCode, Message: msg}
		}
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

var (
	_ remote.RemoteStore   = (*Client)(nil)
	_ remote.ManifestStore = (*Client)(nil)
)
