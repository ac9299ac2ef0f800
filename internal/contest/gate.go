package contest

import (
	"context"
	"errors"
	"fmt"

	"github.com/jjudge-oj/workbench/types"
)

// ErrNotStarted is returned for actions on problems of a contest that has
// not started yet.
var ErrNotStarted = errors.New("contest has not started yet")

// StatusSource reports the current status of a contest.
type StatusSource interface {
	StatusOf(ctx context.Context, contestID string) (types.ContestStatus, error)
}

// Gate decides whether actions on a problem are allowed given the status of
// its contest. Standalone problems are always allowed. Finished contests
// stay open for practice, and Unknown is shown to the user rather than
// treated as a reason to refuse.
type Gate struct {
	source StatusSource
}

// NewGate constructs a Gate over source.
func NewGate(source StatusSource) *Gate {
	return &Gate{source: source}
}

// Check returns nil when actions on the problem are allowed.
func (g *Gate) Check(ctx context.Context, id types.ProblemIdentity) error {
	if g == nil || g.source == nil || !id.IsContestScoped() {
		return nil
	}
	status, err := g.source.StatusOf(ctx, id.ContestID)
	if err != nil {
		return fmt.Errorf("check contest %s: %w", id.ContestID, err)
	}
	if status == types.ContestUpcoming {
		return ErrNotStarted
	}
	return nil
}
