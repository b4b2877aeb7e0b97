package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/fitsync/internal/client/iocli"
	"github.com/iudanet/fitsync/internal/client/records"
)

func (c *Cli) runDelete(ctx context.Context, id string, yes bool) error {
	a, err := c.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return fmt.Errorf("activity not found with ID: %s", id)
		}
		return fmt.Errorf("failed to get activity: %w", err)
	}
	if a.Deleted {
		c.io.Println("Activity is already deleted.")
		return nil
	}

	if !yes {
		c.io.Println("About to delete:")
		c.io.Printf("  Title: %s\n", a.Title)
		c.io.Printf("  Type:  %s\n", a.Type)
		c.io.Printf("  Start: %s\n", formatStart(a.StartTime))
		c.io.Println()

		confirm, err := c.io.ReadInput("Are you sure you want to delete this activity? (yes/no): ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		confirm = strings.ToLower(strings.TrimSpace(confirm))
		if confirm != "yes" && confirm != "y" {
			c.io.Println("Deletion cancelled.")
			return nil
		}
	}

	if err := c.records.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	c.io.Println(iocli.Success("✓ Activity deleted"))
	c.io.Println("The deletion reaches your other devices on the next 'fitsync sync'.")
	return nil
}
