// Package execution runs source code on the remote judge and reduces the
// judge's answer to a single output channel.
package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/types"
)

const executePath = "/api/code/execute"

// ErrUnsupportedLanguage is returned before any request is made when the
// language is not one the judge accepts.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Client issues run requests to the judge. It holds no per-run state, so
// concurrent runs never interfere with each other.
type Client struct {
	api    *platform.Client
	logger *slog.Logger
}

// NewClient constructs a Client over the platform transport.
func NewClient(api *platform.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, logger: logger}
}

// WithToken returns a copy of the client that runs code as the holder of
// token.
func (c *Client) WithToken(token string) *Client {
	return &Client{api: c.api.WithToken(token), logger: c.logger}
}

// Run executes the request once. Failures are returned as-is; the client
// never retries.
func (c *Client) Run(ctx context.Context, req types.ExecutionRequest) (types.ExecutionResult, error) {
	if !req.Language.Valid() {
		return types.ExecutionResult{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, req.Language)
	}

	var resp executeResponse
	if err := c.api.Post(ctx, executePath, req, &resp); err != nil {
		return types.ExecutionResult{}, fmt.Errorf("execute code: %w", err)
	}

	result := Normalize(resp.Result)
	c.logger.Debug("code executed",
		"language", req.Language,
		"output", result.Kind.String(),
		"status", result.Status,
	)
	return result, nil
}

// JudgeResult is the judge's raw answer. Any combination of channels may be
// populated.
type JudgeResult struct {
	Stdout        string      `json:"stdout"`
	Stderr        string      `json:"stderr"`
	CompileOutput string      `json:"compile_output"`
	Status        JudgeStatus `json:"status"`
}

// JudgeStatus is the judge's description of the run. Judges report it either
// as a plain string or as an object with a description field.
type JudgeStatus struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

func (s *JudgeStatus) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		return json.Unmarshal(data, &s.Description)
	}
	type plain JudgeStatus
	return json.Unmarshal(data, (*plain)(s))
}

// Normalize keeps the first non-empty channel in the order stdout, stderr,
// compile output. A run with none of them is a successful run without
// output.
func Normalize(raw JudgeResult) types.ExecutionResult {
	result := types.ExecutionResult{Status: strings.TrimSpace(raw.Status.Description)}
	switch {
	case raw.Stdout != "":
		result.Kind, result.Output = types.OutputStdout, raw.Stdout
	case raw.Stderr != "":
		result.Kind, result.Output = types.OutputStderr, raw.Stderr
	case raw.CompileOutput != "":
		result.Kind, result.Output = types.OutputCompile, raw.CompileOutput
	default:
		result.Kind = types.OutputNone
	}
	return result
}

type executeResponse struct {
	Result JudgeResult `json:"result"`
}
