package types

import "fmt"

// IdentitySeparator joins a contest id and a problem id in the string form
// of a contest-scoped problem identity. Neither id may contain it.
const IdentitySeparator = "-"

// SourceKind tells which problem source an identity points into.
type SourceKind int

const (
	// SourceStandalone is a problem that is not tied to any contest.
	SourceStandalone SourceKind = iota

	// SourceContest is a problem that only exists inside a contest.
	SourceContest
)

// String returns the compact name of the source kind used in logs and
// API responses.
func (k SourceKind) String() string {
	switch k {
	case SourceStandalone:
		return "standalone"
	case SourceContest:
		return "contest"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind with its compact name.
func (k SourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a compact name written by MarshalText.
func (k *SourceKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "standalone":
		*k = SourceStandalone
	case "contest":
		*k = SourceContest
	default:
		return fmt.Errorf("unknown source kind %q", text)
	}
	return nil
}

// ProblemIdentity identifies a problem across the two disjoint problem
// sources. It is passed by value; the string form only exists at the edges
// (URLs, CLI arguments, persisted keys).
type ProblemIdentity struct {
	// Raw is the identifier as it was supplied by the caller.
	Raw string `json:"raw"`

	// Kind is the source the problem belongs to.
	Kind SourceKind `json:"kind"`

	// ContestID is set only for contest-scoped problems.
	ContestID string `json:"contest_id,omitempty"`

	// ProblemID is the bare problem identifier within its source.
	ProblemID string `json:"problem_id"`
}

// IsContestScoped reports whether the identity points into a contest.
func (p ProblemIdentity) IsContestScoped() bool {
	return p.Kind == SourceContest
}

// IsZero reports whether no problem is identified.
func (p ProblemIdentity) IsZero() bool {
	return p.ProblemID == ""
}

// String returns the composite identifier of the problem.
func (p ProblemIdentity) String() string {
	if p.Kind == SourceContest {
		return p.ContestID + IdentitySeparator + p.ProblemID
	}
	return p.ProblemID
}
