package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jjudge-oj/workbench/internal/execution"
	"github.com/jjudge-oj/workbench/internal/orchestrator"
	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/types"
)

type contextKey string

const contextPrincipalKey contextKey = "principal"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func principalFromContext(ctx context.Context) (types.Principal, bool) {
	principal, ok := ctx.Value(contextPrincipalKey).(types.Principal)
	if !ok || !principal.SignedIn() {
		return types.Principal{}, false
	}
	return principal, true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeFailure maps a workflow error onto a status code and a message the
// editor can show as is.
func writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, orchestrator.ErrNoUser):
		status = http.StatusUnauthorized
	case errors.Is(err, orchestrator.ErrNoProblem),
		errors.Is(err, execution.ErrUnsupportedLanguage):
		status = http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrContestNotStarted):
		status = http.StatusForbidden
	case errors.Is(err, orchestrator.ErrSuperseded):
		status = http.StatusConflict
	case errors.Is(err, platform.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	default:
		var statusErr *platform.StatusError
		var transportErr *platform.TransportError
		if errors.As(err, &statusErr) || errors.As(err, &transportErr) {
			status = http.StatusBadGateway
		}
	}

	message := platform.UserMessage(err)
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeError(w, status, message)
}
