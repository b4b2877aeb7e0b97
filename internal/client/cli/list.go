package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/iudanet/fitsync/internal/client/records"
	"github.com/iudanet/fitsync/internal/models"
)

func (c *Cli) runList(ctx context.Context, all bool) error {
	activities, err := c.records.List(ctx, all)
	if err != nil {
		return fmt.Errorf("failed to list activities: %w", err)
	}

	if c.jsonOut {
		return c.printJSON(activities)
	}

	if len(activities) == 0 {
		c.io.Println("No activities found.")
		c.io.Println()
		c.io.Println("Use 'fitsync add' to record your first activity.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTITLE\tSTART\tDISTANCE\tDURATION\tSTATUS")
	for _, a := range activities {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Type, a.Title,
			formatStart(a.StartTime),
			formatDistance(a.DistanceM),
			formatDuration(a.DurationSec),
			recordStatus(a))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	c.io.Printf("\n%d activity(ies)\n", len(activities))
	return nil
}

type activityView struct {
	Activity *models.Activity        `json:"activity"`
	Details  *models.ActivityDetails `json:"details,omitempty"`
}

func (c *Cli) runShow(ctx context.Context, id string) error {
	a, err := c.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return fmt.Errorf("activity not found with ID: %s", id)
		}
		return fmt.Errorf("failed to get activity: %w", err)
	}

	view := activityView{Activity: a}
	d, err := c.records.GetDetails(ctx, id)
	switch {
	case err == nil:
		view.Details = d
	case !errors.Is(err, records.ErrNotFound):
		return fmt.Errorf("failed to get activity details: %w", err)
	}

	if c.jsonOut {
		return c.printJSON(view)
	}
	return activityTmpl.Execute(c.io, view)
}

func (c *Cli) runPending(ctx context.Context) error {
	pending, err := c.records.GetUnsynced(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending activities: %w", err)
	}

	if c.jsonOut {
		return c.printJSON(pending)
	}
	return pendingListTmpl.Execute(c.io, pending)
}
