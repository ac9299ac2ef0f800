package solutions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jjudge-oj/workbench/internal/events"
	"github.com/jjudge-oj/workbench/internal/identity"
	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTransport struct {
	mu      sync.Mutex
	records map[Key]types.Solution
	upserts int
	fail    error
}

func newMemoryTransport() *memoryTransport {
	return &memoryTransport{records: make(map[Key]types.Solution)}
}

func (m *memoryTransport) Get(ctx context.Context, key Key) (types.Solution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return types.Solution{}, m.fail
	}
	record, ok := m.records[key]
	if !ok {
		return types.Solution{}, &platform.StatusError{StatusCode: http.StatusNotFound}
	}
	return record, nil
}

func (m *memoryTransport) Upsert(ctx context.Context, solution types.Solution) (types.Solution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return types.Solution{}, m.fail
	}
	m.upserts++
	solution.UpdatedAt = time.Now()
	m.records[KeyOf(solution.UserID, solution.Identity())] = solution
	return solution, nil
}

func (m *memoryTransport) ListByUser(ctx context.Context, userID string) ([]types.Solution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Solution
	for key, record := range m.records {
		if key.UserID == userID {
			out = append(out, record)
		}
	}
	return out, nil
}

func newTestSynchronizer(t *testing.T, transport Transport, bus *events.Bus) *Synchronizer {
	t.Helper()
	s, err := New(transport, bus)
	require.NoError(t, err)
	return s
}

func TestKeyOfMirrorsIdentitySplit(t *testing.T) {
	contest := KeyOf("u1", identity.Resolve("c9-p2"))
	assert.Equal(t, Key{UserID: "u1", ProblemID: "p2", ContestID: "c9"}, contest)

	standalone := KeyOf("u1", identity.Resolve("p2"))
	assert.Equal(t, Key{UserID: "u1", ProblemID: "p2"}, standalone)
	assert.NotEqual(t, contest, standalone)
}

func TestLoadNotFoundIsDistinguished(t *testing.T) {
	transport := newMemoryTransport()
	s := newTestSynchronizer(t, transport, nil)

	_, err := s.Load(context.Background(), "u1", identity.Resolve("p1"))
	assert.True(t, errors.Is(err, ErrNotFound))

	transport.fail = &platform.TransportError{Method: "GET", Path: "/x", Err: errors.New("refused")}
	_, err = s.Load(context.Background(), "u1", identity.Resolve("p1"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestPreconditions(t *testing.T) {
	s := newTestSynchronizer(t, newMemoryTransport(), nil)
	ctx := context.Background()

	_, err := s.Load(ctx, "", identity.Resolve("p1"))
	assert.ErrorIs(t, err, ErrNoUser)
	_, err = s.Load(ctx, "u1", identity.Resolve(""))
	assert.ErrorIs(t, err, ErrNoProblem)
	_, err = s.Save(ctx, types.Solution{ProblemID: "p1"}, false)
	assert.ErrorIs(t, err, ErrNoUser)
	_, err = s.Save(ctx, types.Solution{UserID: "u1"}, true)
	assert.ErrorIs(t, err, ErrNoProblem)
	_, err = s.SolvedSet(ctx, "")
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestLoadSaveAddressSameRecord(t *testing.T) {
	transport := newMemoryTransport()
	s := newTestSynchronizer(t, transport, nil)
	ctx := context.Background()
	id := identity.Resolve("c9-p2")

	_, err := s.Save(ctx, types.Solution{UserID: "u1", ProblemID: id.ProblemID, ContestID: id.ContestID, Code: "x", Language: types.LanguageCPP}, false)
	require.NoError(t, err)

	loaded, err := s.Load(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "x", loaded.Code)
	assert.Equal(t, "c9", loaded.ContestID)
	assert.Len(t, transport.records, 1)

	_, err = s.Load(ctx, "u1", identity.Resolve("p2"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveIsIdempotent(t *testing.T) {
	for _, before := range []bool{false, true} {
		transport := newMemoryTransport()
		s := newTestSynchronizer(t, transport, nil)
		ctx := context.Background()

		key := Key{UserID: "u1", ProblemID: "p1"}
		transport.records[key] = types.Solution{UserID: "u1", ProblemID: "p1", IsSolved: before}

		solution := types.Solution{UserID: "u1", ProblemID: "p1", Code: "a", Language: types.LanguagePython, IsSolved: before}
		_, err := s.Save(ctx, solution, false)
		require.NoError(t, err)
		_, err = s.Save(ctx, solution, false)
		require.NoError(t, err)

		assert.Equal(t, before, transport.records[key].IsSolved)
	}
}

func TestSolvedIsMonotonic(t *testing.T) {
	transport := newMemoryTransport()
	s := newTestSynchronizer(t, transport, nil)
	ctx := context.Background()
	solution := types.Solution{UserID: "u1", ProblemID: "p1", ContestID: "c1", Code: "a", Language: types.LanguageJava}

	saved, err := s.Save(ctx, solution, true)
	require.NoError(t, err)
	assert.True(t, saved.IsSolved)

	// A caller that lost track of the solved flag still cannot clear it.
	solution.Code = "b"
	solution.IsSolved = false
	saved, err = s.Save(ctx, solution, false)
	require.NoError(t, err)
	assert.True(t, saved.IsSolved)
	assert.True(t, transport.records[Key{UserID: "u1", ProblemID: "p1", ContestID: "c1"}].IsSolved)
}

func TestSynchronizersShareSolvedMemory(t *testing.T) {
	transport := newMemoryTransport()
	base := newTestSynchronizer(t, transport, nil)
	ctx := context.Background()

	_, err := base.Save(ctx, types.Solution{UserID: "u1", ProblemID: "p1"}, true)
	require.NoError(t, err)

	other := base.WithTransport(transport)
	saved, err := other.Save(ctx, types.Solution{UserID: "u1", ProblemID: "p1"}, false)
	require.NoError(t, err)
	assert.True(t, saved.IsSolved)
}

func TestColdSynchronizerKeepsStoredSolved(t *testing.T) {
	transport := newMemoryTransport()
	key := Key{UserID: "u1", ProblemID: "p2"}
	transport.records[key] = types.Solution{UserID: "u1", ProblemID: "p2", Code: "a", IsSolved: true}
	s := newTestSynchronizer(t, transport, nil)

	saved, err := s.Save(context.Background(), types.Solution{UserID: "u1", ProblemID: "p2", Code: "b"}, false)
	require.NoError(t, err)
	assert.True(t, saved.IsSolved)
	assert.True(t, transport.records[key].IsSolved)
	assert.Equal(t, "b", transport.records[key].Code)
	assert.True(t, s.Remembers(key))
}

func TestSaveRefusesWhenStoredRecordIsUnreadable(t *testing.T) {
	transport := newMemoryTransport()
	transport.records[Key{UserID: "u1", ProblemID: "p1"}] = types.Solution{UserID: "u1", ProblemID: "p1", IsSolved: true}
	transport.fail = &platform.TransportError{Method: "GET", Path: "/x", Err: errors.New("refused")}
	s := newTestSynchronizer(t, transport, nil)

	_, err := s.Save(context.Background(), types.Solution{UserID: "u1", ProblemID: "p1", Code: "b"}, false)
	require.Error(t, err)
	assert.Equal(t, 0, transport.upserts)
}

func TestFollowRemembersRelayedSolves(t *testing.T) {
	bus := events.NewBus(nil)
	s := newTestSynchronizer(t, newMemoryTransport(), bus)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Follow(ctx)
	}()
	require.Eventually(t, func() bool { return bus.Len() == 1 }, time.Second, 5*time.Millisecond)

	// Local solves do not count the follower as a view.
	assert.Equal(t, 0, s.NotifySolved("u1", identity.Resolve("p1")))

	bus.Publish(events.SolvedEvent{Identity: identity.Resolve("c1-p2"), UserID: "u2", Origin: "elsewhere"})
	assert.Eventually(t, func() bool {
		return s.Remembers(Key{UserID: "u2", ProblemID: "p2", ContestID: "c1"})
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, bus.Len())
}

func TestNotifySolved(t *testing.T) {
	bus := events.NewBus(nil)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := New(newMemoryTransport(), bus, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	view := bus.Subscribe(1, events.ForUser("u1"))
	defer view.Close()

	assert.Equal(t, 1, s.NotifySolved("u1", identity.Resolve("c1-p1")))
	ev := <-view.C()
	assert.Equal(t, "c1-p1", ev.Identity.String())
	assert.Equal(t, fixed, ev.SolvedAt)

	view.Close()
	assert.Equal(t, 0, s.NotifySolved("u1", identity.Resolve("c1-p1")))

	withoutBus := newTestSynchronizer(t, newMemoryTransport(), nil)
	assert.Equal(t, 0, withoutBus.NotifySolved("u1", identity.Resolve("p1")))
}

func TestSolvedSet(t *testing.T) {
	transport := newMemoryTransport()
	s := newTestSynchronizer(t, transport, nil)
	ctx := context.Background()

	_, err := s.Save(ctx, types.Solution{UserID: "u1", ProblemID: "p1"}, true)
	require.NoError(t, err)
	_, err = s.Save(ctx, types.Solution{UserID: "u1", ProblemID: "p2", ContestID: "c1"}, true)
	require.NoError(t, err)
	_, err = s.Save(ctx, types.Solution{UserID: "u1", ProblemID: "p3"}, false)
	require.NoError(t, err)
	_, err = s.Save(ctx, types.Solution{UserID: "u2", ProblemID: "p4"}, true)
	require.NoError(t, err)

	solved, err := s.SolvedSet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"p1": true, "c1-p2": true}, solved)
}

func TestHTTPTransport(t *testing.T) {
	var stored *types.Solution
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/solutions/u1/p2":
			assert.Equal(t, "c9", r.URL.Query().Get("contestId"))
			if stored == nil {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"success":false,"message":"Solution not found"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"solution": stored}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/solutions":
			var in types.Solution
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			stored = &in
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"solution": in}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/solutions/user/u1":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"solutions": []*types.Solution{stored}}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	api, err := platform.New(srv.URL)
	require.NoError(t, err)
	s := newTestSynchronizer(t, NewHTTPTransport(api), nil)
	ctx := context.Background()
	id := identity.Resolve("c9-p2")

	_, err = s.Load(ctx, "u1", id)
	require.ErrorIs(t, err, ErrNotFound)

	saved, err := s.Save(ctx, types.Solution{UserID: "u1", ProblemID: id.ProblemID, ContestID: id.ContestID, Code: "int main(){}", Language: types.LanguageCPP}, true)
	require.NoError(t, err)
	assert.True(t, saved.IsSolved)
	require.NotNil(t, stored)
	assert.Equal(t, "p2", stored.ProblemID)
	assert.Equal(t, "c9", stored.ContestID)

	loaded, err := s.Load(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "int main(){}", loaded.Code)

	solved, err := s.SolvedSet(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, solved["c9-p2"])
}
