package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/fitsync/internal/reconcile"
)

// ErrInProgress текст ошибки при попытке запустить синхронизацию повторно
const ErrInProgress = "Sync already in progress"

// Report итог одного раунда синхронизации по всем backends
type Report struct {
	Success       bool               `json:"success"`
	RecordsSynced int                `json:"records_synced"`
	Errors        []string           `json:"errors"`
	Notices       []reconcile.Notice `json:"notices,omitempty"`
	Backends      []BackendResult    `json:"backends,omitempty"`
}

// BackendResult итог раунда по одному backend'у
type BackendResult struct {
	Backend       string        `json:"backend"`
	RecordsSynced int           `json:"records_synced"`
	Pushed        int           `json:"pushed"`
	Pulled        int           `json:"pulled"`
	Conflicts     int           `json:"conflicts"`
	Skipped       bool          `json:"skipped"` // manifest совпал, данные не передавались
	Errors        []string      `json:"errors,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// OK reports whether the backend round finished without errors.
func (r BackendResult) OK() bool {
	return len(r.Errors) == 0
}

// Summary строка для пользователя: полный успех, частичный успех с N
// ошибками или полный провал.
func (r *Report) Summary() string {
	if r.Success {
		return fmt.Sprintf("Sync complete: %d records synced across %d backend(s)",
			r.RecordsSynced, len(r.Backends))
	}

	succeeded := 0
	for _, b := range r.Backends {
		if b.OK() {
			succeeded++
		}
	}

	if succeeded == 0 && r.RecordsSynced == 0 {
		return "Sync failed: " + strings.Join(r.Errors, "; ")
	}
	return fmt.Sprintf("Sync partially complete: %d records synced, %d error(s)",
		r.RecordsSynced, len(r.Errors))
}

func inProgressReport() *Report {
	return &Report{Success: false, Errors: []string{ErrInProgress}}
}
