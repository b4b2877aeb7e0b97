package reconcile

import (
	"fmt"

	"github.com/iudanet/fitsync/internal/models"
)

// Side обозначает реплику, победившую в конфликте.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// Notice предупреждение о разрешенном конфликте. Показывается пользователю,
// так как проигравшая версия перезаписывается без слияния.
type Notice struct {
	RecordID string
	Winner   Side
	Message  string
}

func (n Notice) String() string {
	return n.Message
}

// Resolution итог разрешения одного конфликта.
type Resolution[T models.Versioned] struct {
	Winner Side
	Record T
	Notice Notice
}

// titled реализуется записями, у которых есть название для пользователя.
type titled interface {
	DisplayTitle() string
}

// ResolveLWW разрешает конфликт по правилу Last-Write-Wins:
// локальная запись побеждает только если ее lastModified строго больше.
// При равенстве побеждает remote.
func ResolveLWW[T models.Versioned](c Conflict[T]) Resolution[T] {
	lm, rm := c.Local.Meta(), c.Remote.Meta()

	res := Resolution[T]{Winner: SideRemote, Record: c.Remote}
	if lm.LastModified > rm.LastModified {
		res = Resolution[T]{Winner: SideLocal, Record: c.Local}
	}

	name := lm.ID
	if t, ok := any(c.Local).(titled); ok && t.DisplayTitle() != "" {
		name = t.DisplayTitle()
	}

	res.Notice = Notice{
		RecordID: lm.ID,
		Winner:   res.Winner,
		Message:  fmt.Sprintf("Conflict on %q resolved: %s version kept", name, res.Winner),
	}
	return res
}

// Resolve разрешает все конфликты плана: победитель local уходит в ToPush,
// победитель remote в ToPull. Conflicts очищается. Возвращает по одному
// предупреждению на конфликт в исходном порядке.
func (p *Plan[T]) Resolve() []Notice {
	if len(p.Conflicts) == 0 {
		return nil
	}

	notices := make([]Notice, 0, len(p.Conflicts))
	for _, c := range p.Conflicts {
		res := ResolveLWW(c)
		switch res.Winner {
		case SideLocal:
			p.ToPush = append(p.ToPush, res.Record)
		default:
			p.ToPull = append(p.ToPull, res.Record)
		}
		notices = append(notices, res.Notice)
	}
	p.Conflicts = nil

	return notices
}
