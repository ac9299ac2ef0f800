package solutions

import (
	"context"
	"net/url"

	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/types"
)

// Transport is the persistence service holding solution records.
type Transport interface {
	Get(ctx context.Context, key Key) (types.Solution, error)
	Upsert(ctx context.Context, solution types.Solution) (types.Solution, error)
	ListByUser(ctx context.Context, userID string) ([]types.Solution, error)
}

// HTTPTransport reaches the persistence service through the platform API.
type HTTPTransport struct {
	api *platform.Client
}

// NewHTTPTransport constructs a transport over the platform client.
func NewHTTPTransport(api *platform.Client) *HTTPTransport {
	return &HTTPTransport{api: api}
}

// Get fetches one record. A missing record matches platform.ErrNotFound.
func (t *HTTPTransport) Get(ctx context.Context, key Key) (types.Solution, error) {
	path := "/api/solutions/" + url.PathEscape(key.UserID) + "/" + url.PathEscape(key.ProblemID)
	var query url.Values
	if key.ContestID != "" {
		query = url.Values{"contestId": {key.ContestID}}
	}

	var resp struct {
		Solution *types.Solution `json:"solution"`
	}
	if err := t.api.Get(ctx, path, query, &resp); err != nil {
		return types.Solution{}, err
	}
	if resp.Solution == nil {
		return types.Solution{}, platform.ErrNotFound
	}
	return *resp.Solution, nil
}

// Upsert creates or replaces the record for the solution's key.
func (t *HTTPTransport) Upsert(ctx context.Context, solution types.Solution) (types.Solution, error) {
	var resp struct {
		Solution *types.Solution `json:"solution"`
	}
	if err := t.api.Post(ctx, "/api/solutions", solution, &resp); err != nil {
		return types.Solution{}, err
	}
	if resp.Solution == nil {
		return solution, nil
	}
	return *resp.Solution, nil
}

// ListByUser returns every record of a user.
func (t *HTTPTransport) ListByUser(ctx context.Context, userID string) ([]types.Solution, error) {
	var resp struct {
		Solutions []types.Solution `json:"solutions"`
	}
	if err := t.api.Get(ctx, "/api/solutions/user/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Solutions, nil
}
