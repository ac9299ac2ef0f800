// Package contest classifies contests by lifecycle status and serves the
// contest directory of the platform.
package contest

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/types"
)

// Directory lists contests from the platform and annotates them with their
// status at the time of the call.
type Directory struct {
	api *platform.Client
	loc *time.Location
	now func() time.Time
}

// NewDirectory constructs a Directory. Timings without an offset are read
// in loc; a nil loc means time.Local.
func NewDirectory(api *platform.Client, loc *time.Location) *Directory {
	if loc == nil {
		loc = time.Local
	}
	return &Directory{api: api, loc: loc, now: time.Now}
}

// WithToken returns a copy of the directory that authenticates as token.
func (d *Directory) WithToken(token string) *Directory {
	clone := *d
	clone.api = d.api.WithToken(token)
	return &clone
}

// Status classifies timing against the current time.
func (d *Directory) Status(timing types.ContestTiming) types.ContestStatus {
	return ClassifyAt(timing, d.now(), d.loc)
}

// List returns every contest, sorted by start, each with a fresh status.
func (d *Directory) List(ctx context.Context) ([]types.Contest, error) {
	var resp struct {
		Contests []types.Contest `json:"contests"`
	}
	if err := d.api.Get(ctx, "/api/contests", nil, &resp); err != nil {
		return nil, fmt.Errorf("list contests: %w", err)
	}

	now := d.now()
	for i := range resp.Contests {
		resp.Contests[i].Status = ClassifyAt(resp.Contests[i].ContestTiming, now, d.loc)
	}
	sort.SliceStable(resp.Contests, func(i, j int) bool {
		a, okA := StartInstant(resp.Contests[i].ContestTiming, d.loc)
		b, okB := StartInstant(resp.Contests[j].ContestTiming, d.loc)
		if okA != okB {
			return okA
		}
		return a.Before(b)
	})
	return resp.Contests, nil
}

// Get returns one contest with a fresh status.
func (d *Directory) Get(ctx context.Context, contestID string) (types.Contest, error) {
	var resp struct {
		Contest types.Contest `json:"contest"`
	}
	if err := d.api.Get(ctx, "/api/contests/"+url.PathEscape(contestID), nil, &resp); err != nil {
		return types.Contest{}, fmt.Errorf("get contest %s: %w", contestID, err)
	}
	resp.Contest.Status = d.Status(resp.Contest.ContestTiming)
	return resp.Contest, nil
}

// StatusOf returns the current status of a contest.
func (d *Directory) StatusOf(ctx context.Context, contestID string) (types.ContestStatus, error) {
	c, err := d.Get(ctx, contestID)
	if err != nil {
		return types.ContestUnknown, err
	}
	return c.Status, nil
}

// FilterByStatus keeps the contests whose status matches, ignoring case. An
// empty status keeps everything.
func FilterByStatus(contests []types.Contest, status string) []types.Contest {
	status = strings.TrimSpace(status)
	if status == "" {
		return contests
	}
	out := make([]types.Contest, 0, len(contests))
	for _, c := range contests {
		if strings.EqualFold(string(c.Status), status) {
			out = append(out, c)
		}
	}
	return out
}

// ParseStatus reads a status name, ignoring case.
func ParseStatus(raw string) (types.ContestStatus, bool) {
	for _, status := range []types.ContestStatus{
		types.ContestUpcoming,
		types.ContestRunning,
		types.ContestFinished,
		types.ContestUnknown,
	} {
		if strings.EqualFold(strings.TrimSpace(raw), string(status)) {
			return status, true
		}
	}
	return "", false
}
