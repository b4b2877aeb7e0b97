// Package sync runs synchronization rounds between the local store and the
// configured remote backends.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/iudanet/fitsync/internal/client/records"
	"github.com/iudanet/fitsync/internal/client/remote"
	"github.com/iudanet/fitsync/internal/client/storage"
	"github.com/iudanet/fitsync/internal/events"
	"github.com/iudanet/fitsync/internal/models"
	"github.com/iudanet/fitsync/internal/reconcile"
)

// ErrNoBackends нет ни одного включенного backend'а
var ErrNoBackends = errors.New("no remote backends configured")

// RecordStore часть records.Service, нужная оркестратору
type RecordStore interface {
	Snapshot(ctx context.Context) (*records.Snapshot, error)
	ApplyRemote(ctx context.Context, pulls []records.Pull) (applied []string, errs []error)
	MarkSyncedVersions(ctx context.Context, versions map[string]int64) (int, error)
}

// Service синхронизирует локальное хранилище с backends. Раунды не
// перекрываются: повторный вызов во время раунда сразу возвращает отказ.
type Service struct {
	records   RecordStore
	backends  []remote.RemoteStore
	metadata  storage.MetadataStorage
	publisher events.Publisher
	logger    *slog.Logger
	running   atomic.Bool
}

// NewService creates a new sync service
func NewService(recs RecordStore, backends []remote.RemoteStore, metadata storage.MetadataStorage, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Service{
		records:   recs,
		backends:  backends,
		metadata:  metadata,
		publisher: publisher,
		logger:    logger,
	}
}

// Backends возвращает имена backends в порядке синхронизации
func (s *Service) Backends() []string {
	names := make([]string, 0, len(s.backends))
	for _, b := range s.backends {
		names = append(names, b.Name())
	}
	return names
}

// Running reports whether a round is in progress.
func (s *Service) Running() bool {
	return s.running.Load()
}

// LastSyncTimes время последнего успешного раунда по каждому backend'у
func (s *Service) LastSyncTimes(ctx context.Context) (map[string]int64, error) {
	if s.metadata == nil {
		return map[string]int64{}, nil
	}
	return s.metadata.LastSyncTimestamps(ctx)
}

// SyncNow выполняет один раунд синхронизации со всеми backends по очереди.
// Ошибка одного backend'а не прерывает остальные.
func (s *Service) SyncNow(ctx context.Context) *Report {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Sync requested while another round is running")
		return inProgressReport()
	}
	defer s.running.Store(false)

	report := &Report{Errors: []string{}}

	if len(s.backends) == 0 {
		report.Errors = append(report.Errors, ErrNoBackends.Error())
		return report
	}

	s.logger.Info("Starting synchronization", "backends", len(s.backends))
	started := time.Now()

	for _, b := range s.backends {
		res, notices := s.syncBackend(ctx, b)

		report.Backends = append(report.Backends, res)
		report.RecordsSynced += res.RecordsSynced
		report.Notices = append(report.Notices, notices...)
		for _, msg := range res.Errors {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", b.Name(), msg))
		}
	}

	report.Success = len(report.Errors) == 0

	s.logger.Info("Synchronization completed",
		"success", report.Success,
		"records_synced", report.RecordsSynced,
		"errors", len(report.Errors),
		"duration", time.Since(started))

	return report
}

// round состояние раунда по одному backend'у
type round struct {
	backend remote.RemoteStore
	result  BackendResult
	notices []reconcile.Notice
}

func (s *Service) syncBackend(ctx context.Context, b remote.RemoteStore) (res BackendResult, notices []reconcile.Notice) {
	started := time.Now()
	logger := s.logger.With("backend", b.Name())

	r := &round{backend: b, result: BackendResult{Backend: b.Name()}}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("Sync round panicked", "panic", p)
			r.result.Errors = append(r.result.Errors, fmt.Sprintf("unexpected failure: %v", p))
		}
		r.result.Duration = time.Since(started)
		res, notices = r.result, r.notices
	}()

	if err := s.runRound(ctx, r, logger); err != nil {
		logger.Warn("Sync with backend failed", "error", err)
		r.result.Errors = append(r.result.Errors, err.Error())
		return
	}

	if len(r.result.Errors) == 0 && s.metadata != nil {
		if err := s.metadata.SaveLastSyncTimestamp(ctx, b.Name(), time.Now().UnixMilli()); err != nil {
			logger.Warn("Failed to save last sync timestamp", "error", err)
		}
	}
	return
}

// runRound шаги раунда: снимок, manifest, чтение remote, diff, LWW, pull,
// сброс manifest, push, пометка synced, новый manifest. Ошибка до push
// прерывает раунд; ошибки отдельных записей копятся в r.result.Errors.
func (s *Service) runRound(ctx context.Context, r *round, logger *slog.Logger) error {
	snap, err := s.records.Snapshot(ctx)
	if err != nil {
		return err
	}

	localManifest, err := buildManifest(snap.Activities, detailsList(snap.Details))
	if err != nil {
		return err
	}

	manifests, hasManifest := r.backend.(remote.ManifestStore)
	var remoteManifest *remote.Manifest
	if hasManifest {
		remoteManifest, err = manifests.RemoteManifest(ctx)
		if err != nil {
			logger.Warn("Failed to read remote manifest, running full diff", "error", err)
			remoteManifest = nil
		}
		if manifestMatches(remoteManifest, localManifest) {
			return s.skipRound(ctx, r, snap, logger)
		}
	}

	remoteActs, err := remote.Read[*models.Activity](ctx, r.backend, models.CollectionActivities)
	if err != nil {
		return err
	}
	remoteDets, err := remote.Read[*models.ActivityDetails](ctx, r.backend, models.CollectionActivityDetails)
	if err != nil {
		return err
	}

	plan := reconcile.Diff(snap.Activities, remoteActs)
	r.result.Conflicts = len(plan.Conflicts)
	for _, n := range plan.Resolve() {
		logger.Warn("Conflict resolved", "id", n.RecordID, "winner", n.Winner)
		r.notices = append(r.notices, n)
		s.publisher.Publish(events.Event{Kind: events.SyncConflict, Message: n.Message})
	}

	logger.Debug("Diff computed",
		"push", len(plan.ToPush),
		"pull", len(plan.ToPull),
		"unchanged", len(plan.Unchanged),
		"conflicts", r.result.Conflicts)

	remoteDetsByID := make(map[string]*models.ActivityDetails, len(remoteDets))
	for _, d := range remoteDets {
		remoteDetsByID[d.ID] = d
	}

	s.pull(ctx, r, snap, plan.ToPull, remoteDetsByID)

	// Пока коллекции переписываются, manifest не должен совпадать ни с чьим
	// снимком: иначе после сбоя записи другие реплики пропускали бы backend.
	if hasManifest && len(plan.ToPush) > 0 {
		if err := manifests.UpdateManifest(ctx, remote.Manifest{}); err != nil {
			return fmt.Errorf("invalidate manifest: %w", err)
		}
		remoteManifest = nil
	}

	pushedActs, pushedDets, lifted, err := s.push(ctx, r, snap, plan.ToPush, remoteActs, remoteDets)
	if err != nil {
		return err
	}

	versions := make(map[string]int64, len(plan.ToPush)+len(plan.AlreadySynced))
	for _, a := range plan.ToPush {
		versions[a.ID] = a.Version
	}
	for _, a := range plan.AlreadySynced {
		versions[a.ID] = a.Version
	}
	for _, p := range lifted {
		delete(versions, p.Activity.ID)
	}
	if len(versions) > 0 {
		if _, err := s.records.MarkSyncedVersions(ctx, versions); err != nil {
			return fmt.Errorf("mark synced: %w", err)
		}
	}
	if len(lifted) > 0 {
		_, errs := s.records.ApplyRemote(ctx, lifted)
		for _, err := range errs {
			r.result.Errors = append(r.result.Errors, err.Error())
		}
	}

	r.result.RecordsSynced = r.result.Pushed + r.result.Pulled

	if hasManifest && len(r.result.Errors) == 0 {
		if err := s.storeManifest(ctx, manifests, remoteManifest, pushedActs, pushedDets); err != nil {
			logger.Warn("Failed to update remote manifest", "error", err)
			r.result.Errors = append(r.result.Errors, err.Error())
		}
	}

	logger.Info("Backend synchronized",
		"pushed", r.result.Pushed,
		"pulled", r.result.Pulled,
		"conflicts", r.result.Conflicts)
	return nil
}

// skipRound вызывается, когда содержимое remote совпадает с локальным.
// Несинхронизированные записи уже лежат на remote в той же ревизии.
func (s *Service) skipRound(ctx context.Context, r *round, snap *records.Snapshot, logger *slog.Logger) error {
	r.result.Skipped = true

	versions := make(map[string]int64)
	for _, a := range snap.Activities {
		if !a.Synced {
			versions[a.ID] = a.Version
		}
	}
	if len(versions) > 0 {
		if _, err := s.records.MarkSyncedVersions(ctx, versions); err != nil {
			return fmt.Errorf("mark synced: %w", err)
		}
	}

	logger.Debug("Manifest matches, skipping backend", "marked", len(versions))
	return nil
}

// pull записывает выигравшие remote записи локально вместе с деталями
func (s *Service) pull(ctx context.Context, r *round, snap *records.Snapshot, toPull []*models.Activity, remoteDets map[string]*models.ActivityDetails) {
	if len(toPull) == 0 {
		return
	}

	localByID := make(map[string]*models.Activity, len(snap.Activities))
	for _, a := range snap.Activities {
		localByID[a.ID] = a
	}

	pulls := make([]records.Pull, 0, len(toPull))
	for _, a := range toPull {
		d, ok := remoteDets[a.ID]
		if !ok {
			r.result.Errors = append(r.result.Errors, fmt.Sprintf("pull %s: details missing on remote", a.ID))
			continue
		}

		p := records.Pull{Activity: a, Details: d}
		if local, ok := localByID[a.ID]; ok {
			expected := local.VersionedRecord
			p.Expected = &expected
		}
		pulls = append(pulls, p)
	}

	applied, errs := s.records.ApplyRemote(ctx, pulls)
	for _, err := range errs {
		r.result.Errors = append(r.result.Errors, err.Error())
	}
	r.result.Pulled = len(applied)
}

// push сливает локальные записи с коллекциями remote и записывает их целиком:
// сначала детали, затем тренировки. Возвращает содержимое remote после записи.
//
// Локальная запись, победившая в LWW при меньшей версии, отправляется с
// версией remote, чтобы версия на backend'е не убывала. Такие записи
// возвращаются в lifted: локальная копия принимает ту же ревизию.
func (s *Service) push(
	ctx context.Context,
	r *round,
	snap *records.Snapshot,
	toPush []*models.Activity,
	remoteActs []*models.Activity,
	remoteDets []*models.ActivityDetails,
) (mergedActs []*models.Activity, mergedDets []*models.ActivityDetails, lifted []records.Pull, err error) {
	if len(toPush) == 0 {
		return remoteActs, remoteDets, nil, nil
	}

	remoteVersions := make(map[string]int64, len(remoteActs))
	for _, a := range remoteActs {
		remoteVersions[a.ID] = a.Version
	}

	acts := make([]*models.Activity, 0, len(toPush))
	dets := make([]*models.ActivityDetails, 0, len(toPush))
	for _, a := range toPush {
		ac := a.Clone()
		ac.Synced = true

		var dc *models.ActivityDetails
		if d, ok := snap.Details[a.ID]; ok {
			dc = d.Clone()
		} else {
			dc = &models.ActivityDetails{VersionedRecord: a.VersionedRecord}
		}
		dc.Synced = true

		if rv, ok := remoteVersions[a.ID]; ok && rv > ac.Version {
			ac.Version, dc.Version = rv, rv
			expected := a.VersionedRecord
			lifted = append(lifted, records.Pull{Activity: ac, Details: dc, Expected: &expected})
		}

		acts = append(acts, ac)
		dets = append(dets, dc)
	}

	mergedDets = merge(remoteDets, dets)
	mergedActs = merge(remoteActs, acts)

	if err := remote.Write(ctx, r.backend, models.CollectionActivityDetails, mergedDets); err != nil {
		return nil, nil, nil, err
	}
	if err := remote.Write(ctx, r.backend, models.CollectionActivities, mergedActs); err != nil {
		return nil, nil, nil, err
	}

	r.result.Pushed = len(toPush)
	return mergedActs, mergedDets, lifted, nil
}

// storeManifest публикует manifest содержимого remote после раунда.
// previous - manifest, который сейчас лежит на backend'е (nil, если его нет
// или он был сброшен перед записью).
func (s *Service) storeManifest(
	ctx context.Context,
	store remote.ManifestStore,
	previous *remote.Manifest,
	acts []*models.Activity,
	dets []*models.ActivityDetails,
) error {
	m, err := buildManifest(acts, dets)
	if err != nil {
		return fmt.Errorf("build manifest: %w", err)
	}
	if previous != nil && previous.AggregateHash == m.AggregateHash {
		return nil
	}
	if err := store.UpdateManifest(ctx, m); err != nil {
		return fmt.Errorf("update manifest: %w", err)
	}
	return nil
}

// merge заменяет в base записи с теми же id и дописывает новые в конец.
// Остальные записи base не меняются.
func merge[T models.Versioned](base, updates []T) []T {
	index := make(map[string]int, len(base))
	out := make([]T, 0, len(base)+len(updates))
	for _, b := range base {
		index[b.Meta().ID] = len(out)
		out = append(out, b)
	}
	for _, u := range updates {
		if i, ok := index[u.Meta().ID]; ok {
			out[i] = u
			continue
		}
		index[u.Meta().ID] = len(out)
		out = append(out, u)
	}
	return out
}
