package types

import "fmt"

// ExecutionRequest is a single run of source code on the judge.
type ExecutionRequest struct {
	// SourceCode is the program to run.
	SourceCode string `json:"sourceCode"`

	// Language is the language the program is written in.
	Language Language `json:"language"`
}

// OutputKind tells which channel of the judge's answer an ExecutionResult
// carries.
type OutputKind int

// Output kinds, in the order they are preferred when the judge reports
// several channels at once.
const (
	// OutputNone indicates the program ran and printed nothing.
	OutputNone OutputKind = iota

	// OutputStdout indicates the program wrote to standard output.
	OutputStdout

	// OutputStderr indicates the program wrote to standard error.
	OutputStderr

	// OutputCompile indicates the compiler produced diagnostics.
	OutputCompile
)

// String returns the compact name of the output kind.
func (k OutputKind) String() string {
	switch k {
	case OutputNone:
		return "none"
	case OutputStdout:
		return "stdout"
	case OutputStderr:
		return "stderr"
	case OutputCompile:
		return "compile_output"
	default:
		return "unknown"
	}
}

func (k OutputKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *OutputKind) UnmarshalText(text []byte) error {
	for _, kind := range []OutputKind{OutputNone, OutputStdout, OutputStderr, OutputCompile} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown output kind %q", text)
}

// ExecutionResult is the normalized outcome of one run. Exactly one output
// channel is kept; the judge's raw multi-field answer never leaves the
// execution client.
type ExecutionResult struct {
	// Kind is the output channel that was selected.
	Kind OutputKind `json:"kind"`

	// Output is the text of the selected channel. Empty when Kind is
	// OutputNone.
	Output string `json:"output,omitempty"`

	// Status is the judge's own description of the run (for example
	// "Accepted"), when it reports one.
	Status string `json:"status,omitempty"`
}

// Clean reports whether the run produced neither runtime errors nor
// compiler diagnostics.
func (r ExecutionResult) Clean() bool {
	return r.Kind == OutputNone || r.Kind == OutputStdout
}

// Display renders the result the way the editor's output pane shows it.
func (r ExecutionResult) Display() string {
	switch r.Kind {
	case OutputStdout:
		return r.Output
	case OutputStderr:
		return "Error: " + r.Output
	case OutputCompile:
		return "Compilation Error: " + r.Output
	default:
		return "Code executed successfully with no output."
	}
}
