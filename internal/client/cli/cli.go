// Package cli implements the fitsync command line: a cobra command tree on top
// of the record service and the sync orchestrator.
package cli

import (
	"context"
	"encoding/json"

	"github.com/iudanet/fitsync/internal/client/iocli"
	"github.com/iudanet/fitsync/internal/client/records"
	"github.com/iudanet/fitsync/internal/client/sync"
	"github.com/iudanet/fitsync/internal/config"
	"github.com/iudanet/fitsync/internal/models"
)

// RecordService операции над локальными записями, нужные командам
type RecordService interface {
	SaveWithDetails(ctx context.Context, a *models.Activity, d *models.ActivityDetails) error
	SaveBatchWithDetails(ctx context.Context, activities []*models.Activity, details []*models.ActivityDetails) error
	Update(ctx context.Context, id string, patch records.Patch) (*models.Activity, error)
	SoftDelete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Activity, error)
	GetDetails(ctx context.Context, id string) (*models.ActivityDetails, error)
	List(ctx context.Context, includeDeleted bool) ([]*models.Activity, error)
	GetUnsynced(ctx context.Context) ([]*models.Activity, error)
	Stats(ctx context.Context) (records.Stats, error)
}

// SyncService запуск синхронизации и ее состояние
type SyncService interface {
	SyncNow(ctx context.Context) *sync.Report
	Backends() []string
	LastSyncTimes(ctx context.Context) (map[string]int64, error)
}

// Runner фоновый процесс, работающий до отмены ctx
type Runner interface {
	Run(ctx context.Context) error
}

// WatcherFactory создает autosync с обработчиком отчетов
type WatcherFactory func(onReport func(*sync.Report)) Runner

type Cli struct {
	io         iocli.IO
	records    RecordService
	syncer     SyncService
	backends   []config.BackendConfig
	newWatcher WatcherFactory
	jsonOut    bool
}

func New(io iocli.IO, recs RecordService, syncer SyncService, backends []config.BackendConfig) *Cli {
	return &Cli{
		io:       io,
		records:  recs,
		syncer:   syncer,
		backends: backends,
	}
}

// printJSON выводит v с отступами (режим --json)
func (c *Cli) printJSON(v any) error {
	enc := json.NewEncoder(c.io)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
