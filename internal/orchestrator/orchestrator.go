// Package orchestrator drives the run, save and submit workflow of the
// editing surface on top of the execution client and the solution
// synchronizer.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jjudge-oj/workbench/internal/contest"
	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/internal/solutions"
	"github.com/jjudge-oj/workbench/types"
)

var (
	ErrNoUser            = solutions.ErrNoUser
	ErrNoProblem         = solutions.ErrNoProblem
	ErrContestNotStarted = contest.ErrNotStarted

	// ErrSuperseded is returned to the caller of a run whose response
	// arrived after a newer run had started. The response is discarded.
	ErrSuperseded = errors.New("superseded by a newer run")
)

// Executor runs code on the judge.
type Executor interface {
	Run(ctx context.Context, req types.ExecutionRequest) (types.ExecutionResult, error)
}

// Store persists solutions and announces solved ones.
type Store interface {
	Load(ctx context.Context, userID string, id types.ProblemIdentity) (types.Solution, error)
	Save(ctx context.Context, solution types.Solution, markAsSolved bool) (types.Solution, error)
	NotifySolved(userID string, id types.ProblemIdentity) int
}

// Archiver keeps a copy of submitted code.
type Archiver interface {
	Put(ctx context.Context, solution types.Solution) (string, error)
}

// Gatekeeper refuses actions that the problem's contest does not allow yet.
type Gatekeeper interface {
	Check(ctx context.Context, id types.ProblemIdentity) error
}

// Orchestrator composes the collaborators into the session workflow. It is
// stateless; all per-problem state lives on Session.
type Orchestrator struct {
	exec       Executor
	store      Store
	archive    Archiver
	gate       Gatekeeper
	policy     Policy
	saveNotice time.Duration
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithArchive stores a snapshot of every solved submit.
func WithArchive(a Archiver) Option {
	return func(o *Orchestrator) { o.archive = a }
}

// WithGate refuses actions on problems of contests that have not started.
func WithGate(g Gatekeeper) Option {
	return func(o *Orchestrator) { o.gate = g }
}

// WithPolicy selects when a submit marks the problem solved.
func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithSaveNotice sets how long the save indicator stays raised.
func WithSaveNotice(d time.Duration) Option {
	return func(o *Orchestrator) { o.saveNotice = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New constructs an Orchestrator.
func New(exec Executor, store Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		exec:       exec,
		store:      store,
		policy:     PolicyOptimistic,
		saveNotice: 3 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithClients returns a copy that talks through exec and store, typically
// the same clients bound to another user's credential.
func (o *Orchestrator) WithClients(exec Executor, store Store) *Orchestrator {
	clone := *o
	clone.exec = exec
	clone.store = store
	return &clone
}

// Policy returns the solve policy in effect.
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

// Load fills the session from the user's saved solution. A user with no
// saved solution gets the starter template of the session language.
func (o *Orchestrator) Load(ctx context.Context, s *Session) (types.Solution, error) {
	if err := preconditions(s, true); err != nil {
		return types.Solution{}, err
	}

	solution, err := o.store.Load(ctx, s.userID, s.identity)
	if errors.Is(err, solutions.ErrNotFound) {
		_, lang, _ := s.current()
		solution = types.Solution{
			UserID:    s.userID,
			ProblemID: s.identity.ProblemID,
			ContestID: s.identity.ContestID,
			Code:      lang.Template(),
			Language:  lang,
		}
		s.loaded(solution)
		return solution, nil
	}
	if err != nil {
		s.fail(platform.UserMessage(err))
		return types.Solution{}, err
	}

	s.loaded(solution)
	return solution, nil
}

// Run executes code on the judge. A run started while another is in flight
// supersedes it: the older caller gets ErrSuperseded and its response never
// reaches the session.
func (o *Orchestrator) Run(ctx context.Context, s *Session, code string, lang types.Language) (types.ExecutionResult, error) {
	if err := preconditions(s, false); err != nil {
		return types.ExecutionResult{}, err
	}
	if err := o.check(ctx, s); err != nil {
		return types.ExecutionResult{}, err
	}
	result, _, err := o.run(ctx, s, code, lang)
	return result, err
}

// Save persists the code. A plain save never clears the solved flag, even
// on a session that was never loaded.
func (o *Orchestrator) Save(ctx context.Context, s *Session, code string, lang types.Language) (types.Solution, error) {
	if err := preconditions(s, true); err != nil {
		return types.Solution{}, err
	}
	if err := o.check(ctx, s); err != nil {
		return types.Solution{}, err
	}

	saved, err := o.store.Save(ctx, s.stage(code, lang), false)
	if err != nil {
		s.fail(platform.UserMessage(err))
		return types.Solution{}, err
	}
	if saved.IsSolved {
		s.solved()
	}
	s.noticeSaved(o.saveNotice)
	return saved, nil
}

// Outcome is the result of a submit.
type Outcome struct {
	Result     types.ExecutionResult `json:"result"`
	Output     string                `json:"output"`
	Solved     bool                  `json:"solved"`
	Solution   *types.Solution       `json:"solution,omitempty"`
	ArchiveKey string                `json:"archiveKey,omitempty"`
	Notified   int                   `json:"notified"`
}

// Submit runs the code and, when the solve policy accepts the result,
// saves it as solved and announces it. The save only starts after the run
// has settled, and a run failure stops the submit before anything is
// persisted.
func (o *Orchestrator) Submit(ctx context.Context, s *Session, code string, lang types.Language) (Outcome, error) {
	if err := preconditions(s, true); err != nil {
		return Outcome{}, err
	}
	if err := o.check(ctx, s); err != nil {
		return Outcome{}, err
	}

	result, ran, err := o.run(ctx, s, code, lang)
	if err != nil {
		return Outcome{}, err
	}
	attempt := ran.attempt
	outcome := Outcome{Result: result, Output: result.Display()}
	if !o.policy.Accepts(result) {
		o.logger.Info("submit not accepted",
			"problem", s.identity.String(),
			"user", s.userID,
			"policy", string(o.policy),
			"output_kind", result.Kind.String(),
		)
		return outcome, nil
	}

	if !s.transition(attempt, StateSaving) {
		return Outcome{}, ErrSuperseded
	}
	// Later runs may have replaced the session's code; the solved record is
	// the code this submit ran.
	solution := types.Solution{
		UserID:    s.userID,
		ProblemID: s.identity.ProblemID,
		ContestID: s.identity.ContestID,
		Code:      ran.req.SourceCode,
		Language:  ran.req.Language,
	}
	saved, err := o.store.Save(ctx, solution, true)
	if err != nil {
		s.transition(attempt, StateSucceeded)
		s.fail(platform.UserMessage(err))
		return outcome, err
	}
	s.solved()
	s.transition(attempt, StateSaved)

	outcome.Solved = true
	outcome.Solution = &saved
	outcome.Notified = o.store.NotifySolved(s.userID, s.identity)

	if o.archive != nil {
		key, err := o.archive.Put(ctx, saved)
		if err != nil {
			o.logger.Warn("archive submission failed",
				"problem", s.identity.String(),
				"user", s.userID,
				"error", err,
			)
		}
		outcome.ArchiveKey = key
	}

	o.logger.Info("problem solved",
		"problem", s.identity.String(),
		"user", s.userID,
		"attempt", attempt,
		"notified", outcome.Notified,
	)
	return outcome, nil
}

// settledRun identifies the run an outcome belongs to.
type settledRun struct {
	attempt uint64
	req     types.ExecutionRequest
}

func (o *Orchestrator) run(ctx context.Context, s *Session, code string, lang types.Language) (types.ExecutionResult, settledRun, error) {
	attempt, req := s.begin(code, lang)
	ran := settledRun{attempt: attempt, req: req}

	result, err := o.exec.Run(ctx, req)
	message := ""
	if err != nil {
		message = platform.UserMessage(err)
	}
	if !s.settle(attempt, result, message) {
		o.logger.Debug("stale run discarded",
			"problem", s.identity.String(),
			"attempt", attempt,
		)
		return types.ExecutionResult{}, ran, ErrSuperseded
	}
	if err != nil {
		return types.ExecutionResult{}, ran, fmt.Errorf("run %s: %w", s.identity, err)
	}
	return result, ran, nil
}

func (o *Orchestrator) check(ctx context.Context, s *Session) error {
	if o.gate == nil {
		return nil
	}
	if err := o.gate.Check(ctx, s.identity); err != nil {
		if !errors.Is(err, ErrContestNotStarted) {
			s.fail(platform.UserMessage(err))
		}
		return err
	}
	return nil
}

func preconditions(s *Session, needUser bool) error {
	if s == nil || s.identity.IsZero() {
		return ErrNoProblem
	}
	if needUser && s.userID == "" {
		return ErrNoUser
	}
	return nil
}
