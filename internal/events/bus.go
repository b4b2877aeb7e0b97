// Package events delivers record notifications to registered subscribers.
package events

import (
	"sync"

	"github.com/iudanet/fitsync/internal/models"
)

// Kind тип события
type Kind string

const (
	RecordSaved   Kind = "record-saved"
	RecordUpdated Kind = "record-updated"
	RecordDeleted Kind = "record-deleted"
	// RecordPulled отправляется когда запись получена с remote backend
	RecordPulled Kind = "record-pulled"
	// SyncConflict отправляется при разрешении конфликта LWW
	SyncConflict Kind = "sync-conflict"
)

// Event is one notification. Details is nil for events that only touch the
// activity row.
type Event struct {
	Kind     Kind
	Activity *models.Activity
	Details  *models.ActivityDetails
	Message  string
}

// Handler receives events synchronously on the publisher's goroutine.
type Handler func(Event)

// Publisher is what the record service and orchestrator depend on.
type Publisher interface {
	Publish(Event)
}

// Bus is a list of registered callbacks.
type Bus struct {
	handlers map[int]subscription
	nextID   int
	mu       sync.RWMutex
}

type subscription struct {
	handler Handler
	kinds   []Kind
}

// NewBus создает пустую шину событий
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]subscription)}
}

// Subscribe registers h for the given kinds (all kinds when none given) and
// returns a function that removes the registration.
func (b *Bus) Subscribe(h Handler, kinds ...Kind) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = subscription{handler: h, kinds: kinds}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Publish delivers e to every matching subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.handlers))
	for _, s := range b.handlers {
		if s.matches(e.Kind) {
			targets = append(targets, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range targets {
		h(e)
	}
}

func (s subscription) matches(k Kind) bool {
	if len(s.kinds) == 0 {
		return true
	}
	for _, want := range s.kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}
