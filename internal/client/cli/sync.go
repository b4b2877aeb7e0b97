package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/iudanet/fitsync/internal/client/iocli"
	"github.com/iudanet/fitsync/internal/client/sync"
)

// errSyncFailed код выхода 1 после того, как отчет уже выведен
var errSyncFailed = errors.New("synchronization finished with errors")

func (c *Cli) runSync(ctx context.Context) error {
	report := c.syncer.SyncNow(ctx)

	if c.jsonOut {
		if err := c.printJSON(report); err != nil {
			return err
		}
	} else {
		c.printReport(report)
	}

	if !report.Success {
		return errSyncFailed
	}
	return nil
}

func (c *Cli) printReport(report *sync.Report) {
	c.io.Println("=== Synchronization ===")
	c.io.Println()

	for _, b := range report.Backends {
		switch {
		case !b.OK():
			c.io.Printf("%s %s: %d error(s)\n", iocli.Error("✗"), b.Backend, len(b.Errors))
		case b.Skipped:
			c.io.Printf("%s %s: up to date %s\n", iocli.Success("✓"), b.Backend, iocli.Dim("(manifest match)"))
		default:
			c.io.Printf("%s %s: pushed %d, pulled %d, conflicts %d %s\n",
				iocli.Success("✓"), b.Backend, b.Pushed, b.Pulled, b.Conflicts,
				iocli.Dim(b.Duration.Round(time.Millisecond).String()))
		}
	}

	if len(report.Notices) > 0 {
		c.io.Println()
		c.io.Println("Conflicts resolved:")
		for _, n := range report.Notices {
			c.io.Println("  " + iocli.Warn(n.Message))
		}
	}

	if len(report.Errors) > 0 {
		c.io.Println()
		c.io.Println("Errors:")
		for _, e := range report.Errors {
			c.io.Println("  " + iocli.Error(e))
		}
	}

	c.io.Println()
	switch {
	case report.Success:
		c.io.Println(iocli.Success(report.Summary()))
	case report.RecordsSynced > 0:
		c.io.Println(iocli.Warn(report.Summary()))
	default:
		c.io.Println(iocli.Error(report.Summary()))
	}
}

func (c *Cli) runWatch(ctx context.Context) error {
	if c.newWatcher == nil {
		return errors.New("background sync is not available")
	}

	w := c.newWatcher(func(report *sync.Report) {
		if c.jsonOut {
			_ = c.printJSON(report)
			return
		}
		if report.Success {
			c.io.Println(iocli.Success(report.Summary()))
			return
		}
		c.io.Println(iocli.Warn(report.Summary()))
		for _, e := range report.Errors {
			c.io.Println("  " + iocli.Error(e))
		}
	})

	if !c.jsonOut {
		c.io.Println("Watching for changes, press Ctrl+C to stop.")
	}
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("background sync stopped: %w", err)
	}
	return nil
}

type backendView struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Target      string `json:"target"`
	Compression string `json:"compression,omitempty"`
	Encrypted   bool   `json:"encrypted"`
	Enabled     bool   `json:"enabled"`
	LastSync    int64  `json:"last_sync"`
}

func (c *Cli) runBackends(ctx context.Context) error {
	lastSync, err := c.syncer.LastSyncTimes(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last sync times: %w", err)
	}

	views := make([]backendView, 0, len(c.backends))
	for _, b := range c.backends {
		target := b.Path
		switch {
		case b.Bucket != "":
			target = "s3://" + b.Bucket + "/" + b.Prefix
		case b.URL != "":
			target = b.URL
		}
		views = append(views, backendView{
			Name:        b.Name,
			Kind:        b.Kind,
			Target:      target,
			Compression: b.Compression,
			Encrypted:   b.ResolvePassphrase() != "",
			Enabled:     !b.Disabled,
			LastSync:    lastSync[b.Name],
		})
	}

	if c.jsonOut {
		return c.printJSON(views)
	}
	if len(views) == 0 {
		c.io.Println("No backends configured.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tTARGET\tENCRYPTED\tENABLED\tLAST SYNC")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\t%s\n",
			v.Name, v.Kind, v.Target, v.Encrypted, v.Enabled, formatTimestamp(v.LastSync))
	}
	return w.Flush()
}
