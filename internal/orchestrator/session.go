package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/jjudge-oj/workbench/types"
)

// State is the position of a session in the run and submit workflow.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateFailed
	StateSaving
	StateSaved
)

var stateNames = map[State]string{
	StateIdle:      "idle",
	StateRunning:   "running",
	StateSucceeded: "succeeded",
	StateFailed:    "failed",
	StateSaving:    "saving",
	StateSaved:     "saved",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the state with its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Snapshot is a copy of a session's visible state.
type Snapshot struct {
	Identity    types.ProblemIdentity  `json:"identity"`
	UserID      string                 `json:"userId"`
	State       State                  `json:"state"`
	Attempt     uint64                 `json:"attempt"`
	Code        string                 `json:"code"`
	Language    types.Language         `json:"language"`
	Result      *types.ExecutionResult `json:"result,omitempty"`
	Output      string                 `json:"output,omitempty"`
	Error       string                 `json:"error,omitempty"`
	IsSolved    bool                   `json:"isSolved"`
	SaveSuccess bool                   `json:"saveSuccess"`
}

// Session holds the editing state of one user on one problem. All methods
// are safe for concurrent use; the workflow itself lives on Orchestrator.
type Session struct {
	mu sync.Mutex

	identity types.ProblemIdentity
	userID   string

	state    State
	seq      uint64
	code     string
	language types.Language
	result   *types.ExecutionResult
	errMsg   string
	isSolved bool

	saveSuccess bool
	saveNotice  *time.Timer
}

// NewSession starts an idle session with the default language.
func NewSession(userID string, id types.ProblemIdentity) *Session {
	return &Session{
		identity: id,
		userID:   userID,
		language: types.DefaultLanguage,
	}
}

// Identity returns the problem the session edits.
func (s *Session) Identity() types.ProblemIdentity {
	return s.identity
}

// UserID returns the signed-in user of the session, if any.
func (s *Session) UserID() string {
	return s.userID
}

// Snapshot copies the visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Identity:    s.identity,
		UserID:      s.userID,
		State:       s.state,
		Attempt:     s.seq,
		Code:        s.code,
		Language:    s.language,
		Error:       s.errMsg,
		IsSolved:    s.isSolved,
		SaveSuccess: s.saveSuccess,
	}
	if s.result != nil {
		result := *s.result
		snap.Result = &result
		snap.Output = result.Display()
	}
	return snap
}

func (s *Session) setSource(code string, lang types.Language) {
	s.code = code
	if lang != "" {
		s.language = lang
	}
}

// stage replaces the session's source and returns the solution to persist.
func (s *Session) stage(code string, lang types.Language) types.Solution {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSource(code, lang)
	return types.Solution{
		UserID:    s.userID,
		ProblemID: s.identity.ProblemID,
		ContestID: s.identity.ContestID,
		Code:      s.code,
		Language:  s.language,
		IsSolved:  s.isSolved,
	}
}

func (s *Session) loaded(solution types.Solution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSource(solution.Code, solution.Language)
	s.isSolved = s.isSolved || solution.IsSolved
}

// begin moves the session to Running. It returns the attempt number that
// the response must carry to be accepted, and the request actually run: an
// empty language keeps the session's.
func (s *Session) begin(code string, lang types.Language) (uint64, types.ExecutionRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.setSource(code, lang)
	s.state = StateRunning
	s.result = nil
	s.errMsg = ""
	return s.seq, types.ExecutionRequest{SourceCode: s.code, Language: s.language}
}

// settle records the outcome of attempt. It reports false, and leaves the
// session untouched, when a newer attempt has started since.
func (s *Session) settle(attempt uint64, result types.ExecutionResult, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt != s.seq {
		return false
	}
	if message != "" {
		s.state = StateFailed
		s.errMsg = message
		return true
	}
	s.state = StateSucceeded
	s.result = &result
	return true
}

// transition moves attempt to next if it is still current.
func (s *Session) transition(attempt uint64, next State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt != s.seq {
		return false
	}
	s.state = next
	return true
}

func (s *Session) current() (string, types.Language, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code, s.language, s.isSolved
}

func (s *Session) fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = message
}

func (s *Session) solved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isSolved = true
}

// noticeSaved raises the save indicator and clears it after d. A newer
// save restarts the timer. With d <= 0 the indicator is never raised.
func (s *Session) noticeSaved(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
	if s.saveNotice != nil {
		s.saveNotice.Stop()
		s.saveNotice = nil
	}
	if d <= 0 {
		s.saveSuccess = false
		return
	}
	s.saveSuccess = true
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.saveNotice == timer {
			s.saveSuccess = false
			s.saveNotice = nil
		}
	})
	s.saveNotice = timer
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveNotice != nil {
		s.saveNotice.Stop()
		s.saveNotice = nil
	}
}
