package problems

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jjudge-oj/workbench/internal/identity"
	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRoutesBySource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/contests/problems/c9/p2":
			_, _ = w.Write([]byte(`{"success":true,"data":{"problem":{"_id":"p2","title":"Contest A"}}}`))
		case "/api/individual-problems/p2":
			_, _ = w.Write([]byte(`{"success":true,"data":{"problem":{"_id":"p2","title":"Practice A"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"Problem not found"}`))
		}
	}))
	defer srv.Close()

	api, err := platform.New(srv.URL)
	require.NoError(t, err)
	client := NewClient(api)
	ctx := context.Background()

	contest, err := client.Get(ctx, identity.Resolve("c9-p2"))
	require.NoError(t, err)
	assert.Equal(t, "Contest A", contest.Title)
	assert.Equal(t, "c9-p2", contest.Identity.String())

	standalone, err := client.Get(ctx, identity.Resolve("p2"))
	require.NoError(t, err)
	assert.Equal(t, "Practice A", standalone.Title)
	assert.Equal(t, "p2", standalone.Identity.String())

	_, err = client.Get(ctx, identity.Resolve("-p2"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Get(ctx, identity.Resolve(""))
	assert.Error(t, err)
}
