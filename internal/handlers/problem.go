package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/workbench/internal/execution"
	"github.com/jjudge-oj/workbench/internal/identity"
	"github.com/jjudge-oj/workbench/internal/orchestrator"
	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/internal/problems"
	"github.com/jjudge-oj/workbench/internal/solutions"
	"github.com/jjudge-oj/workbench/internal/storage"
	"github.com/jjudge-oj/workbench/types"
)

const maxSourceBytes = 1 << 20

// Workbench holds the collaborators of the editing surface. Clients that
// talk to the platform are rebound to each caller's credential.
type Workbench struct {
	Platform     *platform.Client
	Executor     *execution.Client
	Solutions    *solutions.Synchronizer
	Problems     *problems.Client
	Orchestrator *orchestrator.Orchestrator
	Registry     *orchestrator.Registry
	Archive      *storage.Archive
	Logger       *slog.Logger
}

// SourceRequest is the body of run, save and submit.
type SourceRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// SolvedResponse lists the composite ids of solved problems.
type SolvedResponse struct {
	Solved map[string]bool `json:"solved"`
}

// HistoryResponse lists archived submissions, newest first.
type HistoryResponse struct {
	Items []storage.Snapshot `json:"items"`
}

// ProblemHandler serves the per-problem workflow.
type ProblemHandler struct {
	wb     Workbench
	logger *slog.Logger
}

// NewProblemHandler constructs a handler over wb.
func NewProblemHandler(wb Workbench) *ProblemHandler {
	logger := wb.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProblemHandler{wb: wb, logger: logger}
}

// ProblemRouter registers problem routes on the given router.
func ProblemRouter(r chi.Router, wb Workbench) {
	handler := NewProblemHandler(wb)

	r.Route("/{problemID}", func(r chi.Router) {
		r.Get("/", handler.GetProblem)
		r.Get("/solution", handler.LoadSolution)
		r.Get("/state", handler.State)
		r.Get("/history", handler.History)
		r.Post("/run", handler.Run)
		r.Post("/save", handler.Save)
		r.Post("/submit", handler.Submit)
	})
}

// SolvedRouter registers the solved-set route.
func SolvedRouter(r chi.Router, wb Workbench) {
	handler := NewProblemHandler(wb)
	r.Get("/", handler.Solved)
}

func (h *ProblemHandler) GetProblem(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.request(w, r)
	if !ok {
		return
	}

	problem, err := h.wb.Problems.WithToken(principal.Token).Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get problem", err)
		return
	}
	writeJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) LoadSolution(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.request(w, r)
	if !ok {
		return
	}

	session := h.wb.Registry.Session(principal.UserID, id)
	solution, err := h.orchestratorFor(principal).Load(r.Context(), session)
	if err != nil {
		h.fail(w, r, "load solution", err)
		return
	}
	writeJSON(w, http.StatusOK, solution)
}

func (h *ProblemHandler) State(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.request(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.wb.Registry.Session(principal.UserID, id).Snapshot())
}

func (h *ProblemHandler) History(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.request(w, r)
	if !ok {
		return
	}

	items, err := h.wb.Archive.History(r.Context(), principal.UserID, id)
	if err != nil {
		h.fail(w, r, "list history", err)
		return
	}
	if items == nil {
		items = []storage.Snapshot{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Items: items})
}

func (h *ProblemHandler) Run(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.request(w, r)
	if !ok {
		return
	}
	req, lang, ok := decodeSource(w, r)
	if !ok {
		return
	}

	session := h.wb.Registry.Session(principal.UserID, id)
	if _, err := h.orchestratorFor(principal).Run(r.Context(), session, req.Code, lang); err != nil {
		h.fail(w, r, "run", err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *ProblemHandler) Save(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.request(w, r)
	if !ok {
		return
	}
	req, lang, ok := decodeSource(w, r)
	if !ok {
		return
	}

	session := h.wb.Registry.Session(principal.UserID, id)
	saved, err := h.orchestratorFor(principal).Save(r.Context(), session, req.Code, lang)
	if err != nil {
		h.fail(w, r, "save", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *ProblemHandler) Submit(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.request(w, r)
	if !ok {
		return
	}
	req, lang, ok := decodeSource(w, r)
	if !ok {
		return
	}

	session := h.wb.Registry.Session(principal.UserID, id)
	outcome, err := h.orchestratorFor(principal).Submit(r.Context(), session, req.Code, lang)
	if err != nil {
		h.fail(w, r, "submit", err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *ProblemHandler) Solved(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	solved, err := h.synchronizerFor(principal).SolvedSet(r.Context(), principal.UserID)
	if err != nil {
		h.fail(w, r, "solved set", err)
		return
	}
	writeJSON(w, http.StatusOK, SolvedResponse{Solved: solved})
}

func (h *ProblemHandler) request(w http.ResponseWriter, r *http.Request) (types.Principal, types.ProblemIdentity, bool) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.Principal{}, types.ProblemIdentity{}, false
	}
	id := identity.Resolve(chi.URLParam(r, "problemID"))
	if id.IsZero() {
		writeError(w, http.StatusBadRequest, orchestrator.ErrNoProblem.Error())
		return types.Principal{}, types.ProblemIdentity{}, false
	}
	return principal, id, true
}

func (h *ProblemHandler) synchronizerFor(principal types.Principal) *solutions.Synchronizer {
	api := h.wb.Platform.WithToken(principal.Token)
	return h.wb.Solutions.WithTransport(solutions.NewHTTPTransport(api))
}

func (h *ProblemHandler) orchestratorFor(principal types.Principal) *orchestrator.Orchestrator {
	return h.wb.Orchestrator.WithClients(
		h.wb.Executor.WithToken(principal.Token),
		h.synchronizerFor(principal),
	)
}

func (h *ProblemHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if !errors.Is(err, platform.ErrNotFound) {
		h.logger.Warn(op+" failed",
			"problem", chi.URLParam(r, "problemID"),
			"error", err,
		)
	}
	writeFailure(w, err)
}

// decodeSource reads the request body. An empty language keeps the
// session's current one.
func decodeSource(w http.ResponseWriter, r *http.Request) (SourceRequest, types.Language, bool) {
	var req SourceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSourceBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return SourceRequest{}, "", false
	}
	if strings.TrimSpace(req.Language) == "" {
		return req, "", true
	}
	lang, ok := types.ParseLanguage(req.Language)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported language: "+req.Language)
		return SourceRequest{}, "", false
	}
	return req, lang, true
}
