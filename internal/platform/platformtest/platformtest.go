// Package platformtest provides an in-memory platform API for tests.
package platformtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/workbench/types"
)

// Platform is a fake of the platform API backed by maps. Every field may
// be set before the first request.
type Platform struct {
	*httptest.Server

	mu         sync.Mutex
	solutions  map[string]types.Solution
	problems   map[string]types.Problem
	contests   map[string]types.Contest
	result     map[string]string
	executions []types.ExecutionRequest
	tokens     []string
}

// New starts a fake platform. Close it when done.
func New() *Platform {
	p := &Platform{
		solutions: make(map[string]types.Solution),
		problems:  make(map[string]types.Problem),
		contests:  make(map[string]types.Contest),
		result:    map[string]string{"stdout": "ok\n"},
	}

	r := chi.NewRouter()
	r.Use(p.recordToken)
	r.Post("/api/code/execute", p.execute)
	r.Post("/api/solutions", p.upsertSolution)
	r.Get("/api/solutions/user/{userID}", p.listSolutions)
	r.Get("/api/solutions/{userID}/{problemID}", p.getSolution)
	r.Get("/api/individual-problems/{problemID}", p.getProblem)
	r.Get("/api/contests/problems/{contestID}/{problemID}", p.getProblem)
	r.Get("/api/contests", p.listContests)
	r.Get("/api/contests/{contestID}", p.getContest)

	p.Server = httptest.NewServer(r)
	return p
}

// SetResult sets the raw judge result returned for every execution, e.g.
// {"stderr": "boom"}.
func (p *Platform) SetResult(result map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result = result
}

// AddProblem registers a problem under its composite id.
func (p *Platform) AddProblem(rawID string, problem types.Problem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.problems[rawID] = problem
}

// AddContest registers a contest.
func (p *Platform) AddContest(c types.Contest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contests[c.ID] = c
}

// PutSolution stores a record as if it had been saved earlier.
func (p *Platform) PutSolution(s types.Solution) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.solutions[solutionKey(s.UserID, s.ProblemID, s.ContestID)] = s
}

// Solutions returns every stored record.
func (p *Platform) Solutions() []types.Solution {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.Solution, 0, len(p.solutions))
	for _, s := range p.solutions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return solutionKey(out[i].UserID, out[i].ProblemID, out[i].ContestID) <
			solutionKey(out[j].UserID, out[j].ProblemID, out[j].ContestID)
	})
	return out
}

// Executions returns the execution requests received so far.
func (p *Platform) Executions() []types.ExecutionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.ExecutionRequest(nil), p.executions...)
}

// Tokens returns the bearer tokens seen so far, in order.
func (p *Platform) Tokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.tokens...)
}

func (p *Platform) recordToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		p.mu.Lock()
		p.tokens = append(p.tokens, token)
		p.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (p *Platform) execute(w http.ResponseWriter, r *http.Request) {
	var req types.ExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request")
		return
	}
	p.mu.Lock()
	p.executions = append(p.executions, req)
	result := p.result
	p.mu.Unlock()
	ok(w, map[string]any{"result": result})
}

func (p *Platform) upsertSolution(w http.ResponseWriter, r *http.Request) {
	var s types.Solution
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		fail(w, http.StatusBadRequest, "invalid request")
		return
	}
	if s.UserID == "" || s.ProblemID == "" {
		fail(w, http.StatusBadRequest, "userId and problemId are required")
		return
	}
	p.PutSolution(s)
	ok(w, map[string]any{"solution": s})
}

func (p *Platform) getSolution(w http.ResponseWriter, r *http.Request) {
	key := solutionKey(chi.URLParam(r, "userID"), chi.URLParam(r, "problemID"), r.URL.Query().Get("contestId"))
	p.mu.Lock()
	s, found := p.solutions[key]
	p.mu.Unlock()
	if !found {
		fail(w, http.StatusNotFound, "Solution not found")
		return
	}
	ok(w, map[string]any{"solution": s})
}

func (p *Platform) listSolutions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var out []types.Solution
	for _, s := range p.Solutions() {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	ok(w, map[string]any{"solutions": out})
}

func (p *Platform) getProblem(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "problemID")
	if contestID := chi.URLParam(r, "contestID"); contestID != "" {
		rawID = contestID + types.IdentitySeparator + rawID
	}
	p.mu.Lock()
	problem, found := p.problems[rawID]
	p.mu.Unlock()
	if !found {
		fail(w, http.StatusNotFound, "Problem not found")
		return
	}
	ok(w, map[string]any{"problem": problem})
}

func (p *Platform) listContests(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	out := make([]types.Contest, 0, len(p.contests))
	for _, c := range p.contests {
		out = append(out, c)
	}
	p.mu.Unlock()
	ok(w, map[string]any{"contests": out})
}

func (p *Platform) getContest(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	c, found := p.contests[chi.URLParam(r, "contestID")]
	p.mu.Unlock()
	if !found {
		fail(w, http.StatusNotFound, "Contest not found")
		return
	}
	ok(w, map[string]any{"contest": c})
}

func solutionKey(userID, problemID, contestID string) string {
	return userID + "/" + contestID + "/" + problemID
}

func ok(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func fail(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, map[string]any{"success": false, "message": message})
}

func writeEnvelope(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
