// Package problems fetches problem statements from whichever source an
// identity points into.
package problems

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/types"
)

// ErrNotFound is returned when the source has no such problem.
var ErrNotFound = platform.ErrNotFound

// Client looks problems up by identity.
type Client struct {
	api *platform.Client
}

// NewClient constructs a Client over the platform transport.
func NewClient(api *platform.Client) *Client {
	return &Client{api: api}
}

// WithToken returns a copy of the client that authenticates as token.
func (c *Client) WithToken(token string) *Client {
	return &Client{api: c.api.WithToken(token)}
}

// Get fetches the problem from the contest source for contest-scoped
// identities and from the standalone source otherwise.
func (c *Client) Get(ctx context.Context, id types.ProblemIdentity) (types.Problem, error) {
	if id.IsZero() {
		return types.Problem{}, errors.New("no problem id provided")
	}

	var path string
	if id.IsContestScoped() {
		path = "/api/contests/problems/" + url.PathEscape(id.ContestID) + "/" + url.PathEscape(id.ProblemID)
	} else {
		path = "/api/individual-problems/" + url.PathEscape(id.ProblemID)
	}

	var resp struct {
		Problem *types.Problem `json:"problem"`
	}
	if err := c.api.Get(ctx, path, nil, &resp); err != nil {
		return types.Problem{}, fmt.Errorf("get problem %s: %w", id, err)
	}
	if resp.Problem == nil {
		return types.Problem{}, fmt.Errorf("get problem %s: %w", id, ErrNotFound)
	}

	problem := *resp.Problem
	problem.Identity = id
	return problem, nil
}
