package orchestrator

import (
	"fmt"
	"strings"

	"github.com/jjudge-oj/workbench/types"
)

// Policy decides whether a settled run counts as a solve on submit.
type Policy string

const (
	// PolicyOptimistic marks the problem solved after any settled run.
	// The judge reports no verdict, so this is what the platform's own
	// editor does.
	PolicyOptimistic Policy = "optimistic"

	// PolicyCleanRun marks the problem solved only when the run produced
	// neither runtime errors nor compiler diagnostics.
	PolicyCleanRun Policy = "clean-run"
)

// ParsePolicy reads a policy name. Empty selects PolicyOptimistic.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyOptimistic:
		return PolicyOptimistic, nil
	case PolicyCleanRun:
		return PolicyCleanRun, nil
	default:
		return "", fmt.Errorf("unknown solve policy %q", raw)
	}
}

// Accepts reports whether result counts as a solve.
func (p Policy) Accepts(result types.ExecutionResult) bool {
	if p == PolicyCleanRun {
		return result.Clean()
	}
	return true
}
