package types

import "time"

// Solution is a user's saved work on a single problem. The platform keeps at
// most one solution per (user, problem, contest) triple; ContestID is empty
// for standalone problems.
type Solution struct {
	// UserID identifies the owner of the solution.
	UserID string `json:"userId"`

	// ProblemID is the bare problem identifier, never the composite form.
	ProblemID string `json:"problemId"`

	// ContestID is set only when the problem is contest-scoped.
	ContestID string `json:"contestId,omitempty"`

	// Code is the latest saved source code.
	Code string `json:"code"`

	// Language is the language the code is written in.
	Language Language `json:"language"`

	// IsSolved records that the problem has been successfully submitted.
	// Once true it is never reset by the workbench.
	IsSolved bool `json:"isSolved"`

	// UpdatedAt is the time of the most recent save, as reported by the
	// platform.
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Identity returns the problem identity the solution is keyed by.
func (s Solution) Identity() ProblemIdentity {
	if s.ContestID != "" {
		id := ProblemIdentity{
			Kind:      SourceContest,
			ContestID: s.ContestID,
			ProblemID: s.ProblemID,
		}
		id.Raw = id.String()
		return id
	}
	return ProblemIdentity{Raw: s.ProblemID, Kind: SourceStandalone, ProblemID: s.ProblemID}
}
