package types

// ContestStatus is the lifecycle status of a contest relative to the
// current time. It is derived on demand and never stored.
type ContestStatus string

// Contest statuses. Unknown is a displayable status, not an error.
const (
	ContestUpcoming ContestStatus = "Upcoming"
	ContestRunning  ContestStatus = "Running"
	ContestFinished ContestStatus = "Finished"
	ContestUnknown  ContestStatus = "Unknown"
)

// ContestTiming holds the raw scheduling fields of a contest as the
// platform reports them.
type ContestTiming struct {
	// StartDate is either a calendar date ("2024-01-01") or a full ISO
	// datetime, in which case StartTime is ignored.
	StartDate string `json:"startDate"`

	// StartTime is the wall-clock start ("10:00" or "10:00:00").
	StartTime string `json:"startTime"`

	// DurationMinutes is how long the contest runs.
	DurationMinutes int `json:"duration"`
}

// Contest is a scheduled set of contest-scoped problems.
type Contest struct {
	// ID is the unique identifier of the contest.
	ID string `json:"_id"`

	// Title is the human-readable name of the contest.
	Title string `json:"title"`

	// Description is a free-form summary of the contest.
	Description string `json:"description,omitempty"`

	// Difficulty is the platform's difficulty label ("Easy", "Medium", ...).
	Difficulty string `json:"difficulty,omitempty"`

	ContestTiming

	// Problems are the contest-scoped problems, when the platform embeds them.
	Problems []Problem `json:"problems,omitempty"`

	// Status is filled in by the workbench when listing contests.
	Status ContestStatus `json:"status,omitempty"`
}
