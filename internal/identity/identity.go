// Package identity converts between the composite string form of a problem
// identifier and the tagged ProblemIdentity value.
//
// A contest-scoped problem is written as contestID + "-" + problemID; a
// standalone problem is written as its bare id. Input that cannot be split
// into two non-empty halves is resolved as a standalone problem whose id is
// the whole string. That fallback is a policy: the string is kept intact, and
// a lookup against the standalone source will report the problem as missing
// if it does not exist there.
package identity

import (
	"strings"

	"github.com/jjudge-oj/workbench/types"
)

// Resolve parses a raw problem identifier. It splits on the first
// separator only, so everything after it belongs to the problem id.
func Resolve(raw string) types.ProblemIdentity {
	raw = strings.TrimSpace(raw)
	contestID, problemID, found := strings.Cut(raw, types.IdentitySeparator)
	if !found || contestID == "" || problemID == "" {
		return Standalone(raw)
	}
	return types.ProblemIdentity{
		Raw:       raw,
		Kind:      types.SourceContest,
		ContestID: contestID,
		ProblemID: problemID,
	}
}

// Compose builds the raw identifier of a contest-scoped problem. An empty
// contest id yields the standalone form.
func Compose(contestID, problemID string) string {
	return Contest(contestID, problemID).String()
}

// Contest returns the identity of a problem inside a contest.
func Contest(contestID, problemID string) types.ProblemIdentity {
	if contestID == "" {
		return Standalone(problemID)
	}
	id := types.ProblemIdentity{
		Kind:      types.SourceContest,
		ContestID: contestID,
		ProblemID: problemID,
	}
	id.Raw = id.String()
	return id
}

// Standalone returns the identity of a problem outside any contest.
func Standalone(problemID string) types.ProblemIdentity {
	return types.ProblemIdentity{
		Raw:       problemID,
		Kind:      types.SourceStandalone,
		ProblemID: problemID,
	}
}

// Valid reports whether id can be composed into a string that resolves back
// to the same identity. Ids containing the separator cannot.
func Valid(id string) bool {
	return id != "" && !strings.Contains(id, types.IdentitySeparator)
}
