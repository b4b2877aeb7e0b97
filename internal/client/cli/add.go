package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/fitsync/internal/client/iocli"
	"github.com/iudanet/fitsync/internal/client/records"
	"github.com/iudanet/fitsync/internal/models"
)

// activityFlags поля тренировки, общие для add и update
type activityFlags struct {
	typ        string
	title      string
	notes      string
	start      string
	duration   time.Duration
	distanceKm float64
	elevation  float64
}

func (f *activityFlags) register(cmd *cobra.Command, withDefaults bool) {
	defType := ""
	if withDefaults {
		defType = models.ActivityTypeRun
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.typ, "type", "t", defType, "activity type: "+strings.Join(models.ActivityTypes, ", "))
	fl.StringVar(&f.title, "title", "", "activity title")
	fl.StringVar(&f.notes, "notes", "", "free-form notes")
	fl.StringVar(&f.start, "start", "", `start time, RFC3339 or "2006-01-02 15:04" (default now)`)
	fl.DurationVarP(&f.duration, "duration", "d", 0, "duration, e.g. 45m or 1h10m")
	fl.Float64Var(&f.distanceKm, "distance-km", 0, "distance in kilometers")
	fl.Float64Var(&f.elevation, "elevation", 0, "elevation gain in meters")
}

func (f *activityFlags) activity(now time.Time) (*models.Activity, error) {
	start := now.UnixMilli()
	if f.start != "" {
		ms, err := parseStart(f.start)
		if err != nil {
			return nil, err
		}
		start = ms
	}

	return &models.Activity{
		Type:           f.typ,
		Title:          f.title,
		Notes:          f.notes,
		StartTime:      start,
		DurationSec:    f.duration.Seconds(),
		DistanceM:      f.distanceKm * 1000,
		ElevationGainM: f.elevation,
	}, nil
}

// patch собирает Patch только из явно заданных флагов
func (f *activityFlags) patch(cmd *cobra.Command) (records.Patch, error) {
	var p records.Patch
	changed := cmd.Flags().Changed

	if changed("type") {
		p.Type = &f.typ
	}
	if changed("title") {
		p.Title = &f.title
	}
	if changed("notes") {
		p.Notes = &f.notes
	}
	if changed("start") {
		ms, err := parseStart(f.start)
		if err != nil {
			return p, err
		}
		p.StartTime = &ms
	}
	if changed("duration") {
		sec := f.duration.Seconds()
		p.DurationSec = &sec
	}
	if changed("distance-km") {
		m := f.distanceKm * 1000
		p.DistanceM = &m
	}
	if changed("elevation") {
		p.ElevationGainM = &f.elevation
	}
	return p, nil
}

func parseStart(s string) (int64, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: use RFC3339 or \"2006-01-02 15:04\"", s)
	}
	return t.UnixMilli(), nil
}

func (c *Cli) runAdd(ctx context.Context, in activityFlags, doSync bool) error {
	a, err := in.activity(time.Now())
	if err != nil {
		return err
	}
	d := &models.ActivityDetails{}

	if err := c.records.SaveWithDetails(ctx, a, d); err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}

	if c.jsonOut {
		if err := c.printJSON(a); err != nil {
			return err
		}
	} else {
		c.io.Println(iocli.Success("✓ Activity saved"))
		c.io.Printf("ID: %s\n", a.ID)
	}

	if doSync {
		return c.runSync(ctx)
	}
	if !c.jsonOut {
		c.io.Println("Run 'fitsync sync' to push it to your backends.")
	}
	return nil
}

// importItem элемент файла импорта: тренировка вместе с samples и laps
type importItem struct {
	models.Activity
	Samples []models.Sample `json:"samples,omitempty"`
	Laps    []models.Lap    `json:"laps,omitempty"`
}

func (c *Cli) runImport(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	var items []importItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to parse import file %s: %w", path, err)
	}
	if len(items) == 0 {
		return errors.New("import file contains no activities")
	}

	activities := make([]*models.Activity, len(items))
	details := make([]*models.ActivityDetails, len(items))
	for i := range items {
		a := items[i].Activity
		activities[i] = &a
		details[i] = &models.ActivityDetails{
			VersionedRecord: models.VersionedRecord{ID: a.ID},
			Samples:         items[i].Samples,
			Laps:            items[i].Laps,
		}
	}

	// Пакет сохраняется целиком или не сохраняется вовсе
	if err := c.records.SaveBatchWithDetails(ctx, activities, details); err != nil {
		return fmt.Errorf("import failed, nothing was saved: %w", err)
	}

	if c.jsonOut {
		ids := make([]string, len(activities))
		for i, a := range activities {
			ids[i] = a.ID
		}
		return c.printJSON(map[string]any{"imported": ids})
	}

	c.io.Println(iocli.Success(fmt.Sprintf("✓ Imported %d activity(ies)", len(activities))))
	for _, a := range activities {
		c.io.Printf("  %s  %s\n", a.ID, a.Title)
	}
	return nil
}

func (c *Cli) runUpdate(ctx context.Context, id string, patch records.Patch) error {
	if patch.IsEmpty() {
		return errors.New("nothing to update: pass at least one field flag")
	}

	a, err := c.records.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, records.ErrNotFound):
			return fmt.Errorf("activity not found with ID: %s", id)
		case errors.Is(err, records.ErrDeleted):
			return fmt.Errorf("activity %s is deleted and cannot be changed", id)
		}
		return fmt.Errorf("failed to update activity: %w", err)
	}

	if c.jsonOut {
		return c.printJSON(a)
	}
	c.io.Println(iocli.Success("✓ Activity updated"))
	c.io.Printf("ID: %s  version: %d\n", a.ID, a.Version)
	return nil
}
