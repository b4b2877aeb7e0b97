package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/fitsync/internal/client/iocli"
)

type statusView struct {
	Total    int              `json:"total"`
	Deleted  int              `json:"deleted"`
	Pending  int              `json:"pending"`
	LastSync map[string]int64 `json:"last_sync"`
}

func (c *Cli) runStatus(ctx context.Context) error {
	stats, err := c.records.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read local stats: %w", err)
	}

	lastSync, err := c.syncer.LastSyncTimes(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last sync times: %w", err)
	}

	if c.jsonOut {
		return c.printJSON(statusView{
			Total:    stats.Total,
			Deleted:  stats.Deleted,
			Pending:  stats.Pending,
			LastSync: lastSync,
		})
	}

	c.io.Println("=== Local Database ===")
	c.io.Printf("Activities: %d (%d deleted)\n", stats.Total, stats.Deleted)
	if stats.Pending > 0 {
		c.io.Println(iocli.Warn(fmt.Sprintf("⚠️  Pending sync: %d record(s) waiting to be synchronized", stats.Pending)))
	} else {
		c.io.Println(iocli.Success("✓ All data synchronized"))
	}

	c.io.Println()
	c.io.Println("=== Backends ===")
	names := c.syncer.Backends()
	if len(names) == 0 {
		c.io.Println("No backends configured. Add one to the 'backends' section of your config.")
		return nil
	}
	for _, name := range names {
		c.io.Printf("%-20s last sync: %s\n", name, formatTimestamp(lastSync[name]))
	}
	return nil
}
