package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitsync/internal/client/iocli"
	"github.com/iudanet/fitsync/internal/client/records"
	"github.com/iudanet/fitsync/internal/client/remote"
	"github.com/iudanet/fitsync/internal/client/remote/memory"
	"github.com/iudanet/fitsync/internal/client/storage/boltdb"
	"github.com/iudanet/fitsync/internal/client/sync"
	"github.com/iudanet/fitsync/internal/config"
	"github.com/iudanet/fitsync/internal/events"
	"github.com/iudanet/fitsync/internal/logger"
	"github.com/iudanet/fitsync/internal/models"
	"github.com/iudanet/fitsync/internal/reconcile"
	"github.com/iudanet/fitsync/internal/validation"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type testEnv struct {
	cli     *Cli
	io      *iocli.IOMock
	out     *bytes.Buffer
	records *records.Service
	remote  *memory.Store
}

// newMockIO собирает весь вывод в буфер; ответы на запросы берутся из answers
func newMockIO(answers ...string) (*iocli.IOMock, *bytes.Buffer) {
	out := &bytes.Buffer{}
	next := func() (string, error) {
		if len(answers) == 0 {
			return "", errors.New("no more input")
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}

	return &iocli.IOMock{
		PrintlnFunc: func(a ...any) { fmt.Fprintln(out, a...) },
		PrintfFunc:  func(format string, a ...any) { fmt.Fprintf(out, format, a...) },
		WriteFunc:   out.Write,
		ReadInputFunc: func(prompt string) (string, error) {
			return next()
		},
		ReadPasswordFunc: func(prompt string) (string, error) {
			return next()
		},
	}, out
}

func newTestEnv(t *testing.T, backends ...remote.RemoteStore) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	log := logger.Discard()
	bus := events.NewBus()
	recs := records.NewService(store, reconcile.NewClock(), bus, log)

	mem := memory.New("mem")
	backends = append([]remote.RemoteStore{mem}, backends...)
	syncSvc := sync.NewService(recs, backends, store, bus, log)

	mockIO, out := newMockIO()
	c := New(mockIO, recs, syncSvc, []config.BackendConfig{{Name: "mem", Kind: memory.Kind}})

	return &testEnv{cli: c, io: mockIO, out: out, records: recs, remote: mem}
}

func (e *testEnv) add(t *testing.T, title string) *models.Activity {
	t.Helper()
	a := &models.Activity{Type: models.ActivityTypeRun, Title: title, StartTime: 1_700_000_000_000, DistanceM: 5000}
	d := &models.ActivityDetails{Laps: []models.Lap{{Index: 1, DistanceM: 1000, DurationSec: 300}}}
	require.NoError(t, e.records.SaveWithDetails(context.Background(), a, d))
	return a
}

func TestCli_runAdd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	in := activityFlags{
		typ:        models.ActivityTypeRide,
		title:      "Commute",
		start:      "2026-05-01T07:00:00Z",
		duration:   30 * time.Minute,
		distanceKm: 12.5,
		elevation:  80,
	}
	require.NoError(t, env.cli.runAdd(ctx, in, false))

	list, err := env.records.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 1)

	a := list[0]
	assert.Equal(t, "Commute", a.Title)
	assert.Equal(t, models.ActivityTypeRide, a.Type)
	assert.Equal(t, float64(12500), a.DistanceM)
	assert.Equal(t, float64(1800), a.DurationSec)
	assert.Equal(t, int64(1777618800000), a.StartTime)
	assert.False(t, a.Synced)

	assert.Contains(t, env.out.String(), "✓ Activity saved")
	assert.Contains(t, env.out.String(), a.ID)
	assert.Equal(t, 0, env.remote.Len(models.CollectionActivities))
}

func TestCli_runAdd_WithSync(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.cli.runAdd(context.Background(), activityFlags{typ: models.ActivityTypeRun, title: "Tempo"}, true))

	assert.Equal(t, 1, env.remote.Len(models.CollectionActivities))
	assert.Equal(t, 1, env.remote.Len(models.CollectionActivityDetails))
	assert.Contains(t, env.out.String(), "Sync complete")
}

func TestCli_runAdd_Invalid(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.cli.runAdd(ctx, activityFlags{typ: "yoga"}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, validation.ErrInvalid))

	err = env.cli.runAdd(ctx, activityFlags{typ: models.ActivityTypeRun, start: "yesterday"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid start time")

	list, err := env.records.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParseStart(t *testing.T) {
	ms, err := parseStart("2026-05-01T07:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1777618800000), ms)

	_, err = parseStart("2026-05-01 07:00")
	assert.NoError(t, err)

	_, err = parseStart("01.05.2026")
	assert.Error(t, err)
}

func TestCli_runImport(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	path := filepath.Join(t.TempDir(), "import.json")
	content := `[
  {"id": "imp-1", "type": "run", "title": "Long run", "distance_m": 21100,
   "samples": [{"offset_sec": 0, "heart_rate": 120}, {"offset_sec": 5, "heart_rate": 131}],
   "laps": [{"index": 1, "distance_m": 1000, "duration_sec": 290}]},
  {"type": "swim", "title": "Pool"}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, env.cli.runImport(ctx, path))

	list, err := env.records.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	d, err := env.records.GetDetails(ctx, "imp-1")
	require.NoError(t, err)
	assert.Len(t, d.Samples, 2)
	assert.Len(t, d.Laps, 1)
	assert.Equal(t, 131, d.Samples[1].HeartRate)

	assert.Contains(t, env.out.String(), "Imported 2 activity(ies)")
}

func TestCli_runImport_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	path := filepath.Join(t.TempDir(), "import.json")
	content := `[{"id": "dup", "type": "run"}, {"id": "dup", "type": "ride"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	err := env.cli.runImport(ctx, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing was saved")

	list, err := env.records.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCli_runImport_BadFile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	dir := t.TempDir()

	assert.Error(t, env.cli.runImport(ctx, filepath.Join(dir, "missing.json")))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not": "a list"}`), 0o600))
	assert.Error(t, env.cli.runImport(ctx, bad))

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`[]`), 0o600))
	err := env.cli.runImport(ctx, empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no activities")
}

func TestCli_runUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.add(t, "Easy run")

	title := "Recovery run"
	require.NoError(t, env.cli.runUpdate(ctx, a.ID, records.Patch{Title: &title}))

	got, err := env.records.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Recovery run", got.Title)
	assert.Equal(t, int64(1), got.Version)
	assert.Contains(t, env.out.String(), "version: 1")

	err = env.cli.runUpdate(ctx, a.ID, records.Patch{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")

	err = env.cli.runUpdate(ctx, "missing", records.Patch{Title: &title})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activity not found")

	require.NoError(t, env.records.SoftDelete(ctx, a.ID))
	err = env.cli.runUpdate(ctx, a.ID, records.Patch{Title: &title})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is deleted")
}

func TestCli_runDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelled", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.add(t, "Keep me")
		env.io.ReadInputFunc = func(string) (string, error) { return "no", nil }

		require.NoError(t, env.cli.runDelete(ctx, a.ID, false))

		got, err := env.records.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.False(t, got.Deleted)
		assert.Contains(t, env.out.String(), "Deletion cancelled.")
	})

	t.Run("confirmed", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.add(t, "Drop me")
		env.io.ReadInputFunc = func(string) (string, error) { return "Yes", nil }

		require.NoError(t, env.cli.runDelete(ctx, a.ID, false))

		got, err := env.records.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, got.Deleted)
		assert.Len(t, env.io.ReadInputCalls(), 1)
	})

	t.Run("yes flag skips prompt", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.add(t, "Drop me")

		require.NoError(t, env.cli.runDelete(ctx, a.ID, true))
		assert.Empty(t, env.io.ReadInputCalls())

		// повторное удаление ничего не меняет
		require.NoError(t, env.cli.runDelete(ctx, a.ID, true))
		got, err := env.records.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
		assert.Contains(t, env.out.String(), "already deleted")
	})

	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.cli.runDelete(ctx, "nope", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "activity not found")
	})
}

func TestCli_runList(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.cli.runList(ctx, false))
		assert.Contains(t, env.out.String(), "No activities found.")
	})

	t.Run("table", func(t *testing.T) {
		env := newTestEnv(t)
		env.add(t, "Hill repeats")
		gone := env.add(t, "Deleted one")
		require.NoError(t, env.records.SoftDelete(ctx, gone.ID))

		require.NoError(t, env.cli.runList(ctx, false))
		out := env.out.String()
		assert.Contains(t, out, "TITLE")
		assert.Contains(t, out, "Hill repeats")
		assert.Contains(t, out, "5.00 km")
		assert.Contains(t, out, "pending")
		assert.NotContains(t, out, "Deleted one")
		assert.Contains(t, out, "1 activity(ies)")

		env.out.Reset()
		require.NoError(t, env.cli.runList(ctx, true))
		assert.Contains(t, env.out.String(), "Deleted one")
		assert.Contains(t, env.out.String(), "deleted, pending")
	})

	t.Run("json", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.add(t, "Json run")
		env.cli.jsonOut = true

		require.NoError(t, env.cli.runList(ctx, false))

		var got []models.Activity
		require.NoError(t, json.Unmarshal(env.out.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, a.ID, got[0].ID)
	})
}

func TestCli_runShow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.add(t, "Track session")

	require.NoError(t, env.cli.runShow(ctx, a.ID))
	out := env.out.String()
	assert.Contains(t, out, "=== Activity Details ===")
	assert.Contains(t, out, "Track session")
	assert.Contains(t, out, "Laps:      1")
	assert.Contains(t, out, "Status:    pending")

	env.out.Reset()
	env.cli.jsonOut = true
	require.NoError(t, env.cli.runShow(ctx, a.ID))
	var view activityView
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &view))
	assert.Equal(t, a.ID, view.Activity.ID)
	require.NotNil(t, view.Details)
	assert.Len(t, view.Details.Laps, 1)

	err := env.cli.runShow(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activity not found")
}

func TestCli_runPendingAndStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.add(t, "Pending run")

	require.NoError(t, env.cli.runPending(ctx))
	assert.Contains(t, env.out.String(), "1 activity(ies) waiting for sync")
	assert.Contains(t, env.out.String(), "Pending run")

	env.out.Reset()
	require.NoError(t, env.cli.runStatus(ctx))
	assert.Contains(t, env.out.String(), "Pending sync: 1 record(s)")
	assert.Contains(t, env.out.String(), "last sync: never")

	require.NoError(t, env.cli.runSync(ctx))

	env.out.Reset()
	require.NoError(t, env.cli.runPending(ctx))
	assert.Contains(t, env.out.String(), "All activities are synchronized.")

	env.out.Reset()
	require.NoError(t, env.cli.runStatus(ctx))
	assert.Contains(t, env.out.String(), "✓ All data synchronized")
	assert.NotContains(t, env.out.String(), "never")
}

func TestCli_runSync(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.add(t, "Sync me")

		require.NoError(t, env.cli.runSync(ctx))
		out := env.out.String()
		assert.Contains(t, out, "=== Synchronization ===")
		assert.Contains(t, out, "mem: pushed 1, pulled 0, conflicts 0")
		assert.Contains(t, out, "Sync complete: 1 records synced across 1 backend(s)")

		env.out.Reset()
		require.NoError(t, env.cli.runSync(ctx))
		assert.Contains(t, env.out.String(), "up to date")
	})

	t.Run("partial failure", func(t *testing.T) {
		broken := &remote.RemoteStoreMock{
			NameFunc: func() string { return "broken" },
			ReadRemoteFunc: func(ctx context.Context, collection string) ([]json.RawMessage, error) {
				return nil, remote.IOError("read", collection, errors.New("connection refused"))
			},
		}
		env := newTestEnv(t, broken)
		env.add(t, "Sync me")

		err := env.cli.runSync(ctx)
		require.ErrorIs(t, err, errSyncFailed)

		out := env.out.String()
		assert.Contains(t, out, "✗ broken: 1 error(s)")
		assert.Contains(t, out, "connection refused")
		assert.Contains(t, out, "Sync partially complete")
	})

	t.Run("json", func(t *testing.T) {
		env := newTestEnv(t)
		env.cli.jsonOut = true
		env.add(t, "Sync me")

		require.NoError(t, env.cli.runSync(ctx))

		var report sync.Report
		require.NoError(t, json.Unmarshal(env.out.Bytes(), &report))
		assert.True(t, report.Success)
		assert.Equal(t, 1, report.RecordsSynced)
	})
}

type fakeRunner struct {
	reports []*sync.Report
	emit    func(*sync.Report)
	err     error
}

func (r *fakeRunner) Run(ctx context.Context) error {
	for _, rep := range r.reports {
		r.emit(rep)
	}
	return r.err
}

func TestCli_runWatch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	runner := &fakeRunner{reports: []*sync.Report{
		{Success: true, RecordsSynced: 2, Backends: []sync.BackendResult{{Backend: "mem"}}},
		{Success: false, Errors: []string{"mem: remote io error"}},
	}}
	env.cli.newWatcher = func(onReport func(*sync.Report)) Runner {
		runner.emit = onReport
		return runner
	}

	require.NoError(t, env.cli.runWatch(ctx))
	out := env.out.String()
	assert.Contains(t, out, "Watching for changes")
	assert.Contains(t, out, "Sync complete: 2 records synced")
	assert.Contains(t, out, "mem: remote io error")

	runner.err = errors.New("watch dir vanished")
	err := env.cli.runWatch(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch dir vanished")

	env.cli.newWatcher = nil
	assert.Error(t, env.cli.runWatch(ctx))
}

func TestCli_runBackends(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.cli.backends = []config.BackendConfig{
		{Name: "drive", Kind: "folder", Path: "/mnt/drive/fitsync", Passphrase: "correct-horse-battery"},
		{Name: "bucket", Kind: "s3", Bucket: "fit", Prefix: "alice", Disabled: true},
		{Name: "home", Kind: "http", URL: "https://fit.example.com"},
	}

	require.NoError(t, env.cli.runBackends(ctx))
	out := env.out.String()
	assert.Contains(t, out, "/mnt/drive/fitsync")
	assert.Contains(t, out, "s3://fit/alice")
	assert.Contains(t, out, "https://fit.example.com")
	assert.Contains(t, out, "never")

	env.out.Reset()
	env.cli.jsonOut = true
	require.NoError(t, env.cli.runBackends(ctx))

	var views []backendView
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &views))
	require.Len(t, views, 3)
	assert.True(t, views[0].Encrypted)
	assert.False(t, views[1].Enabled)
	assert.False(t, views[2].Encrypted)
}
