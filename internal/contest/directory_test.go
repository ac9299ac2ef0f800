package contest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jjudge-oj/workbench/internal/identity"
	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contestsBody = `{"success":true,"data":{"contests":[
	{"_id":"c3","title":"Later","startDate":"2024-01-03","startTime":"10:00","duration":60},
	{"_id":"c1","title":"Past","startDate":"2024-01-01","startTime":"08:00","duration":60},
	{"_id":"c2","title":"Now","startDate":"2024-01-02T09:30:00Z","duration":120},
	{"_id":"c4","title":"Broken","startDate":"soon","startTime":"","duration":60}
]}}`

func newDirectoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/contests":
			_, _ = w.Write([]byte(contestsBody))
		case "/api/contests/c3":
			_, _ = w.Write([]byte(`{"success":true,"data":{"contest":{"_id":"c3","startDate":"2024-01-03","startTime":"10:00","duration":60}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestDirectory(t *testing.T, url string, now time.Time) *Directory {
	t.Helper()
	api, err := platform.New(url)
	require.NoError(t, err)
	d := NewDirectory(api, time.UTC)
	d.now = func() time.Time { return now }
	return d
}

func TestDirectoryList(t *testing.T) {
	srv := newDirectoryServer(t)
	defer srv.Close()

	d := newTestDirectory(t, srv.URL, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
	contests, err := d.List(context.Background())
	require.NoError(t, err)
	require.Len(t, contests, 4)

	ids := []string{contests[0].ID, contests[1].ID, contests[2].ID, contests[3].ID}
	assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, ids)
	assert.Equal(t, types.ContestFinished, contests[0].Status)
	assert.Equal(t, types.ContestRunning, contests[1].Status)
	assert.Equal(t, types.ContestUpcoming, contests[2].Status)
	assert.Equal(t, types.ContestUnknown, contests[3].Status)

	running := FilterByStatus(contests, "running")
	require.Len(t, running, 1)
	assert.Equal(t, "c2", running[0].ID)
	assert.Len(t, FilterByStatus(contests, ""), 4)
}

func TestDirectoryStatusIsRecomputed(t *testing.T) {
	srv := newDirectoryServer(t)
	defer srv.Close()

	now := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	d := newTestDirectory(t, srv.URL, now)
	d.now = func() time.Time { return now }

	status, err := d.StatusOf(context.Background(), "c3")
	require.NoError(t, err)
	assert.Equal(t, types.ContestUpcoming, status)

	now = now.Add(90 * time.Minute)
	status, err = d.StatusOf(context.Background(), "c3")
	require.NoError(t, err)
	assert.Equal(t, types.ContestRunning, status)
}

func TestParseStatus(t *testing.T) {
	status, ok := ParseStatus(" upcoming ")
	assert.True(t, ok)
	assert.Equal(t, types.ContestUpcoming, status)
	_, ok = ParseStatus("ongoing")
	assert.False(t, ok)
}

type fixedSource struct {
	status types.ContestStatus
	err    error
	calls  int
}

func (f *fixedSource) StatusOf(ctx context.Context, contestID string) (types.ContestStatus, error) {
	f.calls++
	return f.status, f.err
}

func TestGate(t *testing.T) {
	ctx := context.Background()
	contestProblem := identity.Resolve("c1-p1")

	upcoming := &fixedSource{status: types.ContestUpcoming}
	assert.ErrorIs(t, NewGate(upcoming).Check(ctx, contestProblem), ErrNotStarted)
	assert.NoError(t, NewGate(upcoming).Check(ctx, identity.Resolve("p1")))

	for _, status := range []types.ContestStatus{types.ContestRunning, types.ContestFinished, types.ContestUnknown} {
		assert.NoError(t, NewGate(&fixedSource{status: status}).Check(ctx, contestProblem), status)
	}

	failing := &fixedSource{err: errors.New("down")}
	assert.Error(t, NewGate(failing).Check(ctx, contestProblem))

	var nilGate *Gate
	assert.NoError(t, nilGate.Check(ctx, contestProblem))
}
