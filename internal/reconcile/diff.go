// Package reconcile contains the pure parts of synchronization: diffing a
// local snapshot against a remote one, Last-Write-Wins conflict resolution,
// content hashing for manifests and the write clock.
package reconcile

import (
	"reflect"

	"github.com/iudanet/fitsync/internal/models"
)

// Conflict пара записей, измененных независимо: локальная правка еще не
// отправлена, а remote уже содержит другую ревизию той же записи.
type Conflict[T models.Versioned] struct {
	Local  T
	Remote T
}

// Plan результат сравнения локального и удаленного снимков одной коллекции.
// Каждый id из объединения снимков попадает ровно в одну из категорий
// ToPush, ToPull, Conflicts, Unchanged.
type Plan[T models.Versioned] struct {
	// ToPush локальные записи, которые нужно отправить на remote
	ToPush []T
	// ToPull удаленные записи, которые нужно записать локально
	ToPull []T
	// Conflicts пары для разрешения через LWW
	Conflicts []Conflict[T]
	// Unchanged id, не требующие передачи данных
	Unchanged []string
	// AlreadySynced несинхронизированные локальные записи, которые на remote
	// уже лежат в той же ревизии. Подмножество Unchanged: их достаточно
	// пометить synced.
	AlreadySynced []T
}

// Empty reports whether the plan moves no data.
func (p *Plan[T]) Empty() bool {
	return len(p.ToPush) == 0 && len(p.ToPull) == 0 && len(p.Conflicts) == 0
}

// Diff сравнивает локальный снимок коллекции с удаленным.
//
// Кандидаты на отправку - локальные записи с synced=false (включая
// tombstones). Для кандидата:
//   - нет на remote: push;
//   - версии равны, lastModified различается: conflict;
//   - локальная версия выше: push;
//   - удаленная версия выше: conflict, иначе неотправленная правка
//     молча потерялась бы;
//   - та же ревизия: unchanged (AlreadySynced).
//
// Для remote записи, не являющейся кандидатом:
//   - нет локально: pull;
//   - remote новее синхронизированной локальной копии: pull;
//   - синхронизированная локальная копия новее: push;
//   - иначе unchanged.
//
// "Новее" означает большую версию, а при равных версиях строго больший
// lastModified. Так два разошедшихся backend'а сходятся к одной ревизии.
//
// Синхронизированные локальные записи, которых нет на remote, отправляются:
// так новый или отстающий backend получает данные, уже подтвержденные другим.
//
// Функция чистая: входные срезы и записи не изменяются.
func Diff[T models.Versioned](local, remote []T) Plan[T] {
	var plan Plan[T]

	localByID := make(map[string]T, len(local))
	localOrder := make([]string, 0, len(local))
	for _, l := range local {
		if isNil(l) {
			continue
		}
		id := l.Meta().ID
		if _, dup := localByID[id]; !dup {
			localOrder = append(localOrder, id)
		}
		localByID[id] = l
	}

	remoteByID := make(map[string]T, len(remote))
	remoteOrder := make([]string, 0, len(remote))
	for _, r := range remote {
		if isNil(r) {
			continue
		}
		id := r.Meta().ID
		if _, dup := remoteByID[id]; !dup {
			remoteOrder = append(remoteOrder, id)
		}
		remoteByID[id] = r
	}

	// Шаг 1: несинхронизированные локальные кандидаты
	candidates := make(map[string]struct{})
	for _, id := range localOrder {
		l := localByID[id]
		lm := l.Meta()
		if lm.Synced {
			continue
		}
		candidates[id] = struct{}{}

		r, ok := remoteByID[id]
		if !ok {
			plan.ToPush = append(plan.ToPush, l)
			continue
		}

		rm := r.Meta()
		switch {
		case lm.Version > rm.Version:
			plan.ToPush = append(plan.ToPush, l)
		case !lm.SameRevision(*rm):
			plan.Conflicts = append(plan.Conflicts, Conflict[T]{Local: l, Remote: r})
		default:
			plan.Unchanged = append(plan.Unchanged, id)
			plan.AlreadySynced = append(plan.AlreadySynced, l)
		}
	}

	// Шаг 2: remote записи, не попавшие в кандидаты
	for _, id := range remoteOrder {
		if _, ok := candidates[id]; ok {
			continue
		}
		r := remoteByID[id]

		l, ok := localByID[id]
		if !ok {
			plan.ToPull = append(plan.ToPull, r)
			continue
		}

		lm, rm := l.Meta(), r.Meta()
		switch {
		case rm.IsNewerThan(*lm):
			plan.ToPull = append(plan.ToPull, r)
		case lm.IsNewerThan(*rm):
			plan.ToPush = append(plan.ToPush, l)
		default:
			plan.Unchanged = append(plan.Unchanged, id)
		}
	}

	// Шаг 3: синхронизированные локальные записи, которых нет на remote
	for _, id := range localOrder {
		if _, ok := candidates[id]; ok {
			continue
		}
		if _, ok := remoteByID[id]; ok {
			continue
		}
		plan.ToPush = append(plan.ToPush, localByID[id])
	}

	return plan
}

// isNil отсеивает nil-указатели, например "null" в JSON массиве remote.
func isNil[T any](v T) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
