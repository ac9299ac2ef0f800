package types

// Problem is a problem statement as served by either problem source.
type Problem struct {
	// ID is the bare identifier of the problem within its source.
	ID string `json:"_id"`

	// Title is the human-readable name of the problem.
	Title string `json:"title"`

	// Topic is a free-form category label.
	Topic string `json:"topic,omitempty"`

	// Difficulty is the platform's difficulty label.
	Difficulty string `json:"difficulty,omitempty"`

	// Description is the full problem statement.
	Description string `json:"description"`

	// Constraints lists the input constraints in free text.
	Constraints string `json:"constraints,omitempty"`

	// Example1 and Example2 are the sample cases shown with the statement.
	Example1 *Example `json:"example1,omitempty"`
	Example2 *Example `json:"example2,omitempty"`

	// Points is the score awarded for solving the problem in a contest.
	Points int `json:"points,omitempty"`

	// TimeLimit is expressed in seconds.
	TimeLimit int `json:"timeLimit,omitempty"`

	// MemoryLimit is expressed in megabytes.
	MemoryLimit int `json:"memoryLimit,omitempty"`

	// Identity is filled in by the workbench so callers can navigate back
	// into the solving view.
	Identity ProblemIdentity `json:"identity"`
}

// Example is a sample input/output pair.
type Example struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}
