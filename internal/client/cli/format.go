package cli

import (
	"fmt"
	"time"

	"github.com/iudanet/fitsync/internal/models"
)

const (
	statusSynced  = "synced"
	statusPending = "pending"
	statusDeleted = "deleted"
)

func recordStatus(a *models.Activity) string {
	switch {
	case a.Deleted && !a.Synced:
		return statusDeleted + ", " + statusPending
	case a.Deleted:
		return statusDeleted
	case a.Synced:
		return statusSynced
	default:
		return statusPending
	}
}

func formatStart(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return "never"
	}
	return time.UnixMilli(ms).Local().Format(time.RFC3339)
}

func formatDistance(m float64) string {
	if m == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f km", m/1000)
}

func formatDuration(sec float64) string {
	if sec == 0 {
		return "-"
	}
	return (time.Duration(sec * float64(time.Second))).Round(time.Second).String()
}
