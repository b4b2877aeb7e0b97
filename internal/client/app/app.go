// Package app wires the client together: config, logger, local store, record
// service, backends and the sync orchestrator. Nothing here is global; every
// command builds its own App and closes it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/iudanet/fitsync/internal/client/autosync"
	"github.com/iudanet/fitsync/internal/client/records"
	"github.com/iudanet/fitsync/internal/client/remote"
	"github.com/iudanet/fitsync/internal/client/remote/folder"
	"github.com/iudanet/fitsync/internal/client/remote/httpremote"
	"github.com/iudanet/fitsync/internal/client/remote/memory"
	"github.com/iudanet/fitsync/internal/client/remote/s3remote"
	"github.com/iudanet/fitsync/internal/client/storage/boltdb"
	"github.com/iudanet/fitsync/internal/client/sync"
	"github.com/iudanet/fitsync/internal/config"
	"github.com/iudanet/fitsync/internal/events"
	"github.com/iudanet/fitsync/internal/reconcile"
)

// App собранный клиент
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *boltdb.Storage
	Bus      *events.Bus
	Records  *records.Service
	Sync     *sync.Service
	Backends []remote.RemoteStore
}

// NewRegistry возвращает реестр со всеми встроенными видами backends
func NewRegistry() *remote.Registry {
	r := remote.NewRegistry()
	r.Register(folder.Kind, folder.Factory)
	r.Register(s3remote.Kind, s3remote.Factory)
	r.Register(httpremote.Kind, httpremote.Factory)
	r.Register(memory.Kind, memory.Factory)
	return r
}

// New открывает локальное хранилище и строит backends из конфигурации
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	return NewWithRegistry(ctx, cfg, logger, NewRegistry())
}

// NewWithRegistry как New, но с заданным реестром backends
func NewWithRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger, registry *remote.Registry) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	backends, err := registry.BuildAll(ctx, cfg.EnabledBackends(), logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	bus := events.NewBus()
	recs := records.NewService(store, reconcile.NewClock(), bus, logger.With("component", "records"))
	syncSvc := sync.NewService(recs, backends, store, bus, logger.With("component", "sync"))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Bus:      bus,
		Records:  recs,
		Sync:     syncSvc,
		Backends: backends,
	}, nil
}

// WatchDirs каталоги folder backends для autosync
func (a *App) WatchDirs() []string {
	var dirs []string
	for _, b := range a.Backends {
		if f, ok := b.(*folder.Store); ok {
			dirs = append(dirs, f.Dir())
		}
	}
	return dirs
}

// NewWatcher создает фоновую синхронизацию по настройкам sync из конфигурации
func (a *App) NewWatcher(onReport func(*sync.Report)) *autosync.Watcher {
	cfg := autosync.Config{
		Interval: a.Config.Sync.Interval,
		Debounce: a.Config.Sync.Debounce,
	}
	if a.Config.Sync.WatchFolders {
		cfg.Dirs = a.WatchDirs()
	}

	w := autosync.New(a.Sync, cfg, a.Logger.With("component", "autosync"), onReport)
	w.Attach(a.Bus)
	return w
}

// Close закрывает локальное хранилище
func (a *App) Close() error {
	return a.Store.Close()
}
