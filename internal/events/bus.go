// Package events carries solved-problem notifications between the views of
// a running workbench. Subscribers register for as long as they are visible
// and close their subscription when they go away.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jjudge-oj/workbench/types"
)

const defaultBuffer = 16

// SolvedEvent announces that a user's solution to a problem was saved as
// solved.
type SolvedEvent struct {
	// Identity is the problem that was solved.
	Identity types.ProblemIdentity `json:"identity"`

	// UserID is the user who solved it.
	UserID string `json:"user_id"`

	// SolvedAt is when the solved save completed.
	SolvedAt time.Time `json:"solved_at"`

	// Origin is the id of the workbench instance the event came from. Empty
	// for events raised in this process.
	Origin string `json:"origin,omitempty"`
}

// Filter selects the events a subscriber is interested in. A nil filter
// accepts everything.
type Filter func(SolvedEvent) bool

// ForUser accepts events of a single user.
func ForUser(userID string) Filter {
	return func(ev SolvedEvent) bool {
		return ev.UserID == userID
	}
}

// ForProblem accepts events of a single problem.
func ForProblem(id types.ProblemIdentity) Filter {
	return func(ev SolvedEvent) bool {
		return ev.Identity.String() == id.String()
	}
}

// Bus fans solved events out to subscribers. Delivery is best effort: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	logger *slog.Logger
}

// NewBus constructs an empty Bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[uint64]*Subscription),
		logger: logger,
	}
}

// Subscribe registers a subscriber. buffer <= 0 selects a default size.
func (b *Bus) Subscribe(buffer int, filter Filter) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		bus:    b,
		ch:     make(chan SolvedEvent, buffer),
		filter: filter,
	}
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers ev to every matching subscriber without blocking and
// returns how many received it.
func (b *Bus) Publish(ev SolvedEvent) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, sub := range b.subs {
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
			delivered++
		default:
			b.logger.Warn("solved event dropped, subscriber is behind",
				"subscription", sub.id, "problem", ev.Identity.String())
		}
	}
	return delivered
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Subscription is one subscriber's view of the bus.
type Subscription struct {
	id     uint64
	bus    *Bus
	ch     chan SolvedEvent
	filter Filter
	once   sync.Once
}

// C returns the channel events are delivered on. It is closed by Close.
func (s *Subscription) C() <-chan SolvedEvent {
	return s.ch
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}
