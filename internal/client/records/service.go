// Package records is the only writer of activity rows in the local store.
// Every mutation stamps version, last_modified and synced, and an activity is
// always written in the same transaction as its details.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/iudanet/fitsync/internal/client/storage"
	"github.com/iudanet/fitsync/internal/events"
	"github.com/iudanet/fitsync/internal/models"
	"github.com/iudanet/fitsync/internal/reconcile"
	"github.com/iudanet/fitsync/internal/validation"
)

// Service handles local activity records
type Service struct {
	store     storage.LocalStore
	clock     *reconcile.Clock
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService creates a new record service
func NewService(store storage.LocalStore, clock *reconcile.Clock, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Service{
		store:     store,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
	}
}

// Pull пара записей, полученная с remote.
type Pull struct {
	Activity *models.Activity
	Details  *models.ActivityDetails
	// Expected ревизия локальной записи на момент снимка, nil если ее не было.
	// Если локальная запись с тех пор изменилась, pull пропускается.
	Expected *models.VersionedRecord
}

// Snapshot полное состояние локальных коллекций для одного раунда синхронизации.
type Snapshot struct {
	Activities []*models.Activity
	Details    map[string]*models.ActivityDetails
}

// Stats сводка по локальному хранилищу
type Stats struct {
	Total   int // все записи, включая удаленные
	Deleted int // tombstones
	Pending int // записи с synced=false, включая tombstones
}

// SaveWithDetails сохраняет тренировку и ее детали одной транзакцией.
// Записи штампуются на месте: lastModified=now, synced=false, deleted=false,
// версия сохраняется (0 для новой записи). Пустой id заменяется новым UUID.
func (s *Service) SaveWithDetails(ctx context.Context, a *models.Activity, d *models.ActivityDetails) error {
	return s.SaveBatchWithDetails(ctx, []*models.Activity{a}, []*models.ActivityDetails{d})
}

// SaveBatchWithDetails сохраняет N пар одной транзакцией. Несовпадение длин
// срезов или id в паре отклоняется до любой записи.
func (s *Service) SaveBatchWithDetails(ctx context.Context, activities []*models.Activity, details []*models.ActivityDetails) error {
	if len(activities) != len(details) {
		return validation.ValidateBatch(activities, details)
	}

	for i := range activities {
		if activities[i] != nil && activities[i].ID == "" {
			activities[i].ID = uuid.New().String()
		}
		if activities[i] != nil && details[i] != nil && details[i].ID == "" {
			details[i].ID = activities[i].ID
		}
	}

	if err := validation.ValidateBatch(activities, details); err != nil {
		return err
	}

	now := s.clock.Now()
	for i := range activities {
		stampSaved(activities[i].Meta(), activities[i].Version, now)
		stampSaved(details[i].Meta(), activities[i].Version, now)
	}

	err := s.store.Update(ctx, func(tx storage.Tx) error {
		for i := range activities {
			// Детали пишутся первыми: без них запись тренировки не имеет смысла
			if err := tx.Put(models.CollectionActivityDetails, details[i].ID, details[i]); err != nil {
				return fmt.Errorf("failed to save details %s: %w", details[i].ID, err)
			}
			if err := tx.Put(models.CollectionActivities, activities[i].ID, activities[i]); err != nil {
				return fmt.Errorf("failed to save activity %s: %w", activities[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := range activities {
		s.publisher.Publish(events.Event{
			Kind:     events.RecordSaved,
			Activity: activities[i].Clone(),
			Details:  details[i].Clone(),
		})
	}

	s.logger.Debug("Saved activities", "count", len(activities))
	return nil
}

// Update применяет patch к тренировке и ее деталям: version+1,
// lastModified=now, synced=false. Возвращает сохраненную тренировку.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*models.Activity, error) {
	var (
		saved   *models.Activity
		details *models.ActivityDetails
	)

	err := s.store.Update(ctx, func(tx storage.Tx) error {
		a, d, err := loadPair(tx, id)
		if err != nil {
			return err
		}
		if a.Deleted {
			return fmt.Errorf("%w: %s", ErrDeleted, id)
		}

		patch.applyActivity(a)
		patch.applyDetails(d)
		if err := validation.ValidateActivity(a); err != nil {
			return err
		}

		now := s.clock.Now()
		stampMutation(a.Meta(), a.Version+1, now)
		stampMutation(d.Meta(), a.Version, now)

		if err := putPair(tx, a, d); err != nil {
			return err
		}
		saved, details = a, d
		return nil
	})
	if err != nil {
		return nil, domainError(err)
	}

	s.publisher.Publish(events.Event{Kind: events.RecordUpdated, Activity: saved.Clone(), Details: details.Clone()})
	return saved, nil
}

// SoftDelete помечает тренировку и ее детали удаленными. Строки остаются в
// хранилище, чтобы tombstone дошел до remote.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	var deleted *models.Activity

	err := s.store.Update(ctx, func(tx storage.Tx) error {
		a, d, err := loadPair(tx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		a.Deleted, d.Deleted = true, true
		stampMutation(a.Meta(), a.Version+1, now)
		stampMutation(d.Meta(), a.Version, now)

		if err := putPair(tx, a, d); err != nil {
			return err
		}
		deleted = a
		return nil
	})
	if err != nil {
		return domainError(err)
	}

	s.publisher.Publish(events.Event{Kind: events.RecordDeleted, Activity: deleted.Clone()})
	return nil
}

// Get возвращает тренировку по id, включая удаленные
func (s *Service) Get(ctx context.Context, id string) (*models.Activity, error) {
	a, err := storage.Get[models.Activity](ctx, s.store, models.CollectionActivities, id)
	if err != nil {
		return nil, domainError(notFound(err, id))
	}
	return a, nil
}

// GetDetails возвращает детали тренировки по id
func (s *Service) GetDetails(ctx context.Context, id string) (*models.ActivityDetails, error) {
	d, err := storage.Get[models.ActivityDetails](ctx, s.store, models.CollectionActivityDetails, id)
	if err != nil {
		return nil, domainError(notFound(err, id))
	}
	return d, nil
}

// List возвращает тренировки, отсортированные по времени начала (новые первыми)
func (s *Service) List(ctx context.Context, includeDeleted bool) ([]*models.Activity, error) {
	all, err := storage.GetAll[models.Activity](ctx, s.store, models.CollectionActivities)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	result := make([]*models.Activity, 0, len(all))
	for _, a := range all {
		if a.Deleted && !includeDeleted {
			continue
		}
		result = append(result, a)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartTime > result[j].StartTime
	})
	return result, nil
}

// GetUnsynced возвращает тренировки с synced=false и deleted=false
func (s *Service) GetUnsynced(ctx context.Context) ([]*models.Activity, error) {
	all, err := storage.GetAll[models.Activity](ctx, s.store, models.CollectionActivities)
	if err != nil {
		return nil, fmt.Errorf("failed to get unsynced activities: %w", err)
	}

	result := make([]*models.Activity, 0)
	for _, a := range all {
		if !a.Synced && !a.Deleted {
			result = append(result, a)
		}
	}
	return result, nil
}

// Snapshot читает обе коллекции в одной транзакции
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Details: make(map[string]*models.ActivityDetails)}

	err := s.store.View(ctx, func(tx storage.Tx) error {
		activities, err := storage.All[models.Activity](tx, models.CollectionActivities)
		if err != nil {
			return err
		}
		details, err := storage.All[models.ActivityDetails](tx, models.CollectionActivityDetails)
		if err != nil {
			return err
		}

		snap.Activities = activities
		for _, d := range details {
			snap.Details[d.ID] = d
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read local snapshot: %w", err)
	}

	return snap, nil
}

// Stats считает записи в локальном хранилище
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := storage.GetAll[models.Activity](ctx, s.store, models.CollectionActivities)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count activities: %w", err)
	}

	var st Stats
	for _, a := range all {
		st.Total++
		if a.Deleted {
			st.Deleted++
		}
		if !a.Synced {
			st.Pending++
		}
	}
	return st, nil
}

// MarkSynced выставляет synced=true тренировкам и их деталям. Остальные поля
// не меняются. Отсутствующий id отменяет всю операцию.
func (s *Service) MarkSynced(ctx context.Context, ids []string) error {
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		for _, id := range ids {
			a, d, err := loadPair(tx, id)
			if err != nil {
				return err
			}
			if err := markPair(tx, a, d); err != nil {
				return err
			}
		}
		return nil
	})
	return domainError(err)
}

// MarkSyncedVersions выставляет synced=true только тем записям, чья версия
// совпадает с ожидаемой. Запись, измененная после планирования push,
// остается несинхронизированной. Возвращает число помеченных записей.
func (s *Service) MarkSyncedVersions(ctx context.Context, versions map[string]int64) (int, error) {
	marked := 0

	err := s.store.Update(ctx, func(tx storage.Tx) error {
		marked = 0
		for id, version := range versions {
			a, d, err := loadPair(tx, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if a.Version != version {
				s.logger.Debug("Skipping mark synced, version moved",
					"id", id, "expected", version, "actual", a.Version)
				continue
			}
			if err := markPair(tx, a, d); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, domainError(err)
	}

	return marked, nil
}

// ApplyRemote записывает полученные с remote пары с synced=true. Каждая пара
// пишется своей транзакцией; ошибка одной пары не прерывает остальные.
// Возвращает id примененных записей и ошибки по отдельным записям.
func (s *Service) ApplyRemote(ctx context.Context, pulls []Pull) (applied []string, errs []error) {
	for _, p := range pulls {
		if err := s.applyOne(ctx, p); err != nil {
			if errors.Is(err, ErrStale) {
				s.logger.Debug("Skipping pull, local record changed", "id", p.Activity.ID)
				continue
			}
			errs = append(errs, err)
			continue
		}
		applied = append(applied, p.Activity.ID)

		s.publisher.Publish(events.Event{
			Kind:     events.RecordPulled,
			Activity: p.Activity.Clone(),
			Details:  p.Details.Clone(),
		})
	}
	return applied, errs
}

func (s *Service) applyOne(ctx context.Context, p Pull) error {
	if p.Activity == nil || p.Details == nil {
		return fmt.Errorf("pull: %w", &validation.Error{Field: "pull", Reason: "activity and details are required"})
	}
	if err := validation.ValidatePair(p.Activity, p.Details); err != nil {
		return fmt.Errorf("pull %s: %w", p.Activity.ID, err)
	}

	a, d := p.Activity.Clone(), p.Details.Clone()
	a.Synced, d.Synced = true, true

	err := s.store.Update(ctx, func(tx storage.Tx) error {
		var current models.Activity
		err := tx.Get(models.CollectionActivities, a.ID, &current)
		switch {
		case errors.Is(err, storage.ErrEntryNotFound):
			if p.Expected != nil {
				return fmt.Errorf("%w: %s", ErrStale, a.ID)
			}
		case err != nil:
			return err
		default:
			if p.Expected == nil || !current.SameRevision(*p.Expected) || current.Synced != p.Expected.Synced {
				return fmt.Errorf("%w: %s", ErrStale, a.ID)
			}
		}

		return putPair(tx, a, d)
	})
	if err != nil {
		return fmt.Errorf("pull %s: %w", a.ID, domainError(err))
	}

	s.clock.Observe(a.LastModified)
	return nil
}

func loadPair(tx storage.Tx, id string) (*models.Activity, *models.ActivityDetails, error) {
	var a models.Activity
	if err := tx.Get(models.CollectionActivities, id, &a); err != nil {
		return nil, nil, notFound(err, id)
	}

	var d models.ActivityDetails
	err := tx.Get(models.CollectionActivityDetails, id, &d)
	switch {
	case errors.Is(err, storage.ErrEntryNotFound):
		// Пара без деталей: восстанавливаем пустые детали с той же ревизией
		d = models.ActivityDetails{VersionedRecord: a.VersionedRecord}
	case err != nil:
		return nil, nil, err
	}

	return &a, &d, nil
}

func putPair(tx storage.Tx, a *models.Activity, d *models.ActivityDetails) error {
	if err := tx.Put(models.CollectionActivityDetails, d.ID, d); err != nil {
		return fmt.Errorf("failed to save details %s: %w", d.ID, err)
	}
	if err := tx.Put(models.CollectionActivities, a.ID, a); err != nil {
		return fmt.Errorf("failed to save activity %s: %w", a.ID, err)
	}
	return nil
}

func markPair(tx storage.Tx, a *models.Activity, d *models.ActivityDetails) error {
	if a.Synced && d.Synced {
		return nil
	}
	a.Synced, d.Synced = true, true
	return putPair(tx, a, d)
}

func stampSaved(r *models.VersionedRecord, version, now int64) {
	r.Version = version
	r.LastModified = now
	r.Synced = false
	r.Deleted = false
}

func stampMutation(r *models.VersionedRecord, version, now int64) {
	r.Version = version
	r.LastModified = now
	r.Synced = false
}

func notFound(err error, id string) error {
	if errors.Is(err, storage.ErrEntryNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

// domainError снимает обертку ErrTransactionFailed с ошибок, которые
// возникли до записи и ничего не изменили.
func domainError(err error) error {
	if err == nil {
		return nil
	}

	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return verr
	case errors.Is(err, ErrStale):
		return unwrapTo(err, ErrStale)
	case errors.Is(err, ErrDeleted):
		return unwrapTo(err, ErrDeleted)
	case errors.Is(err, ErrNotFound):
		return unwrapTo(err, ErrNotFound)
	}
	return err
}

// unwrapTo возвращает самую внешнюю ошибку цепочки, которая еще
// указывает на target, но уже не на storage.ErrTransactionFailed.
func unwrapTo(err, target error) error {
	for e := err; e != nil; {
		if errors.Is(e, target) && !errors.Is(e, storage.ErrTransactionFailed) {
			return e
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				if errors.Is(inner, target) {
					return unwrapTo(inner, target)
				}
			}
			return err
		case interface{ Unwrap() error }:
			e = u.Unwrap()
		default:
			return err
		}
	}
	return err
}
