// Package remote defines the contract every sync backend implements and the
// registry that builds backends from configuration.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/fitsync/pkg/api"
)

//go:generate moq -out remote_mock.go . RemoteStore ManifestStore

// ErrRemoteIO оборачивает любую ошибку чтения или записи backend'а
var ErrRemoteIO = errors.New("remote io error")

// RemoteStore внешний backend, хранящий коллекции целиком.
type RemoteStore interface {
	// Name возвращает имя backend'а из конфигурации (для сообщений об ошибках)
	Name() string

	// ReadRemote возвращает все элементы коллекции. Отсутствующая коллекция
	// возвращается как пустой срез
	ReadRemote(ctx context.Context, collection string) ([]json.RawMessage, error)

	// WriteRemote полностью заменяет содержимое коллекции
	WriteRemote(ctx context.Context, collection string, items []json.RawMessage) error
}

// ManifestStore необязательная возможность backend'а хранить manifest.
type ManifestStore interface {
	// RemoteManifest возвращает сохраненный manifest или nil, если его нет
	RemoteManifest(ctx context.Context) (*Manifest, error)

	// UpdateManifest сохраняет manifest
	UpdateManifest(ctx context.Context, m Manifest) error
}

// Manifest сводка по хешам коллекций backend'а
type Manifest = api.Manifest

// CollectionSummary хеш одной коллекции в manifest
type CollectionSummary = api.CollectionSummary

// IOError помечает err как ErrRemoteIO с указанием операции и коллекции
func IOError(op, collection string, err error) error {
	if collection == "" {
		return fmt.Errorf("%w: %s: %w", ErrRemoteIO, op, err)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrRemoteIO, op, collection, err)
}

// Read читает коллекцию и декодирует элементы в T. Элементы "null"
// пропускаются.
func Read[T any](ctx context.Context, s RemoteStore, collection string) ([]T, error) {
	raw, err := s.ReadRemote(ctx, collection)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(raw))
	for i, r := range raw {
		if len(bytes.TrimSpace(r)) == 0 || bytes.Equal(bytes.TrimSpace(r), []byte("null")) {
			continue
		}
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, IOError("decode", collection, fmt.Errorf("item %d: %w", i, err))
		}
		items = append(items, item)
	}
	return items, nil
}

// Write кодирует элементы в JSON и записывает коллекцию целиком
func Write[T any](ctx context.Context, s RemoteStore, collection string, items []T) error {
	raw, err := Encode(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	return s.WriteRemote(ctx, collection, raw)
}

// Encode сериализует каждый элемент в отдельный json.RawMessage
func Encode[T any](items []T) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, 0, len(items))
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		raw = append(raw, data)
	}
	return raw, nil
}
