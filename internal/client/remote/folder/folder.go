// Package folder implements a backend on a local or mounted directory
// (a USB stick, a network share, a Syncthing or Dropbox folder). Each
// collection is one blob file; writes go through a temp file and rename so
// a concurrent reader never sees a partial blob.
package folder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/iudanet/fitsync/internal/client/remote"
	"github.com/iudanet/fitsync/internal/client/remote/codec"
	"github.com/iudanet/fitsync/internal/config"
	"github.com/iudanet/fitsync/internal/validation"
)

// Kind имя вида backend'а в конфигурации
const Kind = "folder"

const (
	blobExt      = ".json"
	manifestFile = "manifest.json"
)

// Store backend на каталоге
type Store struct {
	name   string
	dir    string
	codec  *codec.Codec
	logger *slog.Logger
}

// New создает backend и каталог dir, если его нет
func New(name, dir string, c *codec.Codec, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("folder path is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", dir, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{name: name, dir: dir, codec: c, logger: logger}, nil
}

// Factory для remote.Registry
func Factory(_ context.Context, cfg config.BackendConfig, logger *slog.Logger) (remote.RemoteStore, error) {
	c, err := codec.New(codec.Options{
		Compression: cfg.Compression,
		Passphrase:  cfg.ResolvePassphrase(),
	})
	if err != nil {
		return nil, err
	}
	return New(cfg.Name, cfg.Path, c, logger)
}

// Name implements remote.RemoteStore.
func (s *Store) Name() string {
	return s.name
}

// Dir каталог backend'а; autosync следит за ним
func (s *Store) Dir() string {
	return s.dir
}

// ReadRemote implements remote.RemoteStore.
func (s *Store) ReadRemote(ctx context.Context, collection string) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.blobPath(collection)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, remote.IOError("read", collection, err)
	}

	items, err := s.codec.Decode(collection, data)
	if err != nil {
		return nil, remote.IOError("decode", collection, err)
	}

	s.logger.Debug("collection read", "collection", collection, "items", len(items))
	return items, nil
}

// WriteRemote implements remote.RemoteStore.
func (s *Store) WriteRemote(ctx context.Context, collection string, items []json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.blobPath(collection)
	if err != nil {
		return err
	}

	data, err := s.codec.Encode(collection, items)
	if err != nil {
		return remote.IOError("encode", collection, err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return remote.IOError("write", collection, err)
	}

	s.logger.Debug("collection written", "collection", collection, "items", len(items), "bytes", len(data))
	return nil
}

// RemoteManifest implements remote.ManifestStore.
func (s *Store) RemoteManifest(ctx context.Context) (*remote.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, remote.IOError("read manifest", "", err)
	}

	var m remote.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		// Битый manifest не ошибка: полный diff его перезапишет
		s.logger.Warn("ignoring unreadable manifest", "error", err)
		return nil, nil
	}
	return &m, nil
}

// UpdateManifest implements remote.ManifestStore.
func (s *Store) UpdateManifest(ctx context.Context, m remote.Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, manifestFile), data); err != nil {
		return remote.IOError("write manifest", "", err)
	}
	return nil
}

func (s *Store) blobPath(collection string) (string, error) {
	if err := validation.ValidateID(collection); err != nil {
		return "", fmt.Errorf("collection name: %w", err)
	}
	return filepath.Join(s.dir, collection+blobExt), nil
}

// writeFileAtomic пишет data во временный файл рядом с path и переименовывает его
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

var (
	_ remote.RemoteStore   = (*Store)(nil)
	_ remote.ManifestStore = (*Store)(nil)
)
