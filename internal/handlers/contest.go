package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/workbench/internal/contest"
	"github.com/jjudge-oj/workbench/types"
)

// ContestListResponse is the body of GET /contests.
type ContestListResponse struct {
	Items []types.Contest `json:"items"`
	Total int             `json:"total"`
}

// ContestStatusResponse carries a freshly computed status.
type ContestStatusResponse struct {
	ContestID string              `json:"contestId,omitempty"`
	Status    types.ContestStatus `json:"status"`
}

// ContestHandler serves the contest directory.
type ContestHandler struct {
	directory *contest.Directory
	logger    *slog.Logger
}

// NewContestHandler constructs a handler over directory.
func NewContestHandler(directory *contest.Directory, logger *slog.Logger) *ContestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContestHandler{directory: directory, logger: logger}
}

// ContestRouter registers contest routes on the given router.
func ContestRouter(r chi.Router, directory *contest.Directory, logger *slog.Logger) {
	handler := NewContestHandler(directory, logger)

	r.Get("/", handler.ListContests)
	r.Get("/classify", handler.Classify)
	r.Get("/{contestID}/status", handler.Status)
}

func (h *ContestHandler) ListContests(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" {
		if _, ok := contest.ParseStatus(status); !ok {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
	}

	contests, err := h.directoryFor(r).List(r.Context())
	if err != nil {
		h.logger.Warn("list contests failed", "error", err)
		writeFailure(w, err)
		return
	}
	items := contest.FilterByStatus(contests, status)
	writeJSON(w, http.StatusOK, ContestListResponse{Items: items, Total: len(items)})
}

func (h *ContestHandler) Status(w http.ResponseWriter, r *http.Request) {
	contestID := strings.TrimSpace(chi.URLParam(r, "contestID"))
	status, err := h.directoryFor(r).StatusOf(r.Context(), contestID)
	if err != nil {
		h.logger.Warn("contest status failed", "contest", contestID, "error", err)
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ContestStatusResponse{ContestID: contestID, Status: status})
}

// Classify evaluates a timing supplied in the query. Malformed timings
// yield Unknown, not an error.
func (h *ContestHandler) Classify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	timing := types.ContestTiming{
		StartDate: query.Get("start_date"),
		StartTime: query.Get("start_time"),
	}
	if raw := query.Get("duration"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid duration")
			return
		}
		timing.DurationMinutes = minutes
	}
	writeJSON(w, http.StatusOK, ContestStatusResponse{Status: h.directory.Status(timing)})
}

func (h *ContestHandler) directoryFor(r *http.Request) *contest.Directory {
	if principal, ok := principalFromContext(r.Context()); ok {
		return h.directory.WithToken(principal.Token)
	}
	return h.directory
}
