// Package autosync runs sync rounds in the background: on a timer, after
// local record changes, and when a watched backend folder changes on disk
// (another device wrote to a shared cloud-drive folder).
package autosync

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/iudanet/fitsync/internal/client/sync"
	"github.com/iudanet/fitsync/internal/events"
)

const defaultDebounce = 2 * time.Second

// Syncer запускает раунд синхронизации
type Syncer interface {
	SyncNow(ctx context.Context) *sync.Report
}

// Config настройки фоновой синхронизации
type Config struct {
	// Interval период синхронизации по таймеру; 0 - только по событиям
	Interval time.Duration
	// Debounce пауза после последнего события перед запуском раунда
	Debounce time.Duration
	// Dirs каталоги folder backends, за которыми нужно следить
	Dirs []string
}

// Watcher собирает триггеры и запускает не более одного раунда за раз
type Watcher struct {
	syncer   Syncer
	cfg      Config
	logger   *slog.Logger
	trigger  chan struct{}
	onReport func(*sync.Report)
}

// New creates a new watcher. onReport вызывается после каждого раунда и
// может быть nil.
func New(syncer Syncer, cfg Config, logger *slog.Logger, onReport func(*sync.Report)) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	return &Watcher{
		syncer:   syncer,
		cfg:      cfg,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
		onReport: onReport,
	}
}

// Trigger запрашивает раунд синхронизации. Не блокируется.
func (w *Watcher) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Attach подписывает watcher на локальные изменения записей. Записи,
// полученные с remote, раунд не запускают.
func (w *Watcher) Attach(bus *events.Bus) (unsubscribe func()) {
	return bus.Subscribe(func(events.Event) { w.Trigger() },
		events.RecordSaved, events.RecordUpdated, events.RecordDeleted)
}

// Run обрабатывает триггеры до отмены ctx. Первый раунд запускается сразу.
func (w *Watcher) Run(ctx context.Context) error {
	fsEvents, fsErrors, closeFS, err := w.watchDirs()
	if err != nil {
		return err
	}
	defer closeFS()

	var tick <-chan time.Time
	if w.cfg.Interval > 0 {
		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	debounce := time.NewTimer(0)
	defer debounce.Stop()

	w.logger.Info("Auto-sync started",
		"interval", w.cfg.Interval,
		"debounce", w.cfg.Debounce,
		"dirs", len(w.cfg.Dirs))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Auto-sync stopped")
			return nil

		case <-w.trigger:
			debounce.Reset(w.cfg.Debounce)

		case ev, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			if relevant(ev) {
				w.logger.Debug("Backend folder changed", "path", ev.Name, "op", ev.Op.String())
				debounce.Reset(w.cfg.Debounce)
			}

		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			w.logger.Warn("Folder watch error", "error", err)

		case <-tick:
			debounce.Reset(0)

		case <-debounce.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	report := w.syncer.SyncNow(ctx)
	if report.Success {
		w.logger.Debug("Auto-sync round finished", "records_synced", report.RecordsSynced)
	} else {
		w.logger.Warn("Auto-sync round failed", "errors", report.Errors)
	}

	if w.onReport != nil {
		w.onReport(report)
	}
}

func (w *Watcher) watchDirs() (<-chan fsnotify.Event, <-chan error, func(), error) {
	if len(w.cfg.Dirs) == 0 {
		return nil, nil, func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	for _, dir := range w.cfg.Dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, nil, nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	return watcher.Events, watcher.Errors, func() { _ = watcher.Close() }, nil
}

// relevant отбрасывает chmod и временные файлы атомарной записи
func relevant(ev fsnotify.Event) bool {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}
