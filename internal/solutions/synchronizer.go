// Package solutions loads and saves a user's per-problem solution record and
// announces solved saves to the rest of the workbench.
package solutions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jjudge-oj/workbench/internal/events"
	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/types"
)

const defaultSolvedMemory = 4096

var (
	// ErrNotFound is returned by Load when the user has no record for the
	// problem. It is an expected outcome, not a failure.
	ErrNotFound = platform.ErrNotFound

	// ErrNoUser is returned when no user is signed in.
	ErrNoUser = errors.New("you must be logged in to save solutions")

	// ErrNoProblem is returned when no problem is identified.
	ErrNoProblem = errors.New("no problem id provided")
)

// Key is the persisted key of a solution record. ContestID is empty for
// standalone problems.
type Key struct {
	UserID    string
	ProblemID string
	ContestID string
}

// KeyOf derives the record key for a user and problem. It follows the
// identity split exactly, so a load and a save of the same problem always
// address the same record.
func KeyOf(userID string, id types.ProblemIdentity) Key {
	key := Key{UserID: userID, ProblemID: id.ProblemID}
	if id.IsContestScoped() {
		key.ContestID = id.ContestID
	}
	return key
}

func (k Key) String() string {
	if k.ContestID == "" {
		return k.UserID + "/" + k.ProblemID
	}
	return k.UserID + "/" + k.ContestID + "/" + k.ProblemID
}

// Synchronizer persists solutions and keeps the solved flag monotonic: keys
// it has seen solved are remembered, and a later save cannot clear them.
type Synchronizer struct {
	transport Transport
	bus       *events.Bus
	solved    *lru.Cache[Key, struct{}]
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the synchronizer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Synchronizer. bus may be nil, in which case solved
// notifications reach nobody.
func New(transport Transport, bus *events.Bus, opts ...Option) (*Synchronizer, error) {
	solved, err := lru.New[Key, struct{}](defaultSolvedMemory)
	if err != nil {
		return nil, err
	}
	s := &Synchronizer{
		transport: transport,
		bus:       bus,
		solved:    solved,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WithTransport returns a synchronizer that talks through transport but
// shares the bus and the remembered solved keys with s.
func (s *Synchronizer) WithTransport(transport Transport) *Synchronizer {
	clone := *s
	clone.transport = transport
	return &clone
}

// Load fetches the user's record for the problem. It returns ErrNotFound
// when the user never saved one.
func (s *Synchronizer) Load(ctx context.Context, userID string, id types.ProblemIdentity) (types.Solution, error) {
	if err := checkPreconditions(userID, id); err != nil {
		return types.Solution{}, err
	}

	key := KeyOf(userID, id)
	solution, err := s.transport.Get(ctx, key)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return types.Solution{}, ErrNotFound
		}
		return types.Solution{}, fmt.Errorf("load solution %s: %w", key, err)
	}

	solution.UserID = key.UserID
	solution.ProblemID = key.ProblemID
	solution.ContestID = key.ContestID
	if solution.IsSolved {
		s.solved.Add(key, struct{}{})
	} else if s.solved.Contains(key) {
		solution.IsSolved = true
	}
	return solution, nil
}

// Save upserts the solution. With markAsSolved the stored record is solved
// whatever its prior state; without it a record that is solved, in memory or
// in storage, stays solved.
func (s *Synchronizer) Save(ctx context.Context, solution types.Solution, markAsSolved bool) (types.Solution, error) {
	id := solution.Identity()
	if err := checkPreconditions(solution.UserID, id); err != nil {
		return types.Solution{}, err
	}

	key := KeyOf(solution.UserID, id)
	solution.IsSolved = solution.IsSolved || markAsSolved || s.solved.Contains(key)
	if !solution.IsSolved {
		// The record may have been solved elsewhere: another process, or
		// before this one started.
		stored, err := s.storedSolved(ctx, key)
		if err != nil {
			return types.Solution{}, fmt.Errorf("save solution %s: %w", key, err)
		}
		solution.IsSolved = stored
	}

	saved, err := s.transport.Upsert(ctx, solution)
	if err != nil {
		return types.Solution{}, fmt.Errorf("save solution %s: %w", key, err)
	}
	if saved.ProblemID == "" {
		saved = solution
	}
	if saved.IsSolved {
		s.solved.Add(key, struct{}{})
	}

	s.logger.Debug("solution saved",
		"key", key.String(),
		"language", saved.Language,
		"solved", saved.IsSolved,
		"mark_solved", markAsSolved,
	)
	return saved, nil
}

// storedSolved reports whether the persisted record of key is solved. A
// missing record is unsolved.
func (s *Synchronizer) storedSolved(ctx context.Context, key Key) (bool, error) {
	stored, err := s.transport.Get(ctx, key)
	if errors.Is(err, platform.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read stored record: %w", err)
	}
	if stored.IsSolved {
		s.solved.Add(key, struct{}{})
	}
	return stored.IsSolved, nil
}

// Follow remembers the solved events relayed onto the bus from other
// processes until ctx is done. Solves saved here are remembered by Save.
func (s *Synchronizer) Follow(ctx context.Context) {
	if s.bus == nil {
		return
	}
	sub := s.bus.Subscribe(64, func(ev events.SolvedEvent) bool {
		return ev.Origin != ""
	})
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			s.solved.Add(KeyOf(ev.UserID, ev.Identity), struct{}{})
		}
	}
}

// Remembers reports whether key is known to be solved.
func (s *Synchronizer) Remembers(key Key) bool {
	return s.solved.Contains(key)
}

// NotifySolved tells every live subscriber that the user solved the
// problem. It is best effort and returns how many subscribers were reached.
func (s *Synchronizer) NotifySolved(userID string, id types.ProblemIdentity) int {
	if s.bus == nil {
		return 0
	}
	return s.bus.Publish(events.SolvedEvent{
		Identity: id,
		UserID:   userID,
		SolvedAt: s.now(),
	})
}

// SolvedSet returns the composite ids of every problem the user has solved.
func (s *Synchronizer) SolvedSet(ctx context.Context, userID string) (map[string]bool, error) {
	if userID == "" {
		return nil, ErrNoUser
	}

	records, err := s.transport.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list solutions of %s: %w", userID, err)
	}

	solved := make(map[string]bool, len(records))
	for _, record := range records {
		if !record.IsSolved {
			continue
		}
		id := record.Identity()
		solved[id.String()] = true
		s.solved.Add(KeyOf(userID, id), struct{}{})
	}
	return solved, nil
}

func checkPreconditions(userID string, id types.ProblemIdentity) error {
	if userID == "" {
		return ErrNoUser
	}
	if id.IsZero() {
		return ErrNoProblem
	}
	return nil
}
