package check

import "time"

// Stage identifies a pre-flight check phase.
type Stage string

const (
	// StageFormat runs formatter verification commands.
	StageFormat Stage = "format"

	// StageLint runs linter commands.
	StageLint Stage = "lint"

	// StageTypecheck runs static typing commands.
	StageTypecheck Stage = "typecheck"

	// StageTest runs the test suite.
	StageTest Stage = "test"
)

// String returns the string representation of the Stage.
func (s Stage) String() string {
	return string(s)
}

// IsValid checks if the stage is a recognized type.
func (s Stage) IsValid() bool {
	switch s {
	case StageFormat, StageLint, StageTypecheck, StageTest:
		return true
	}
	return false
}

// AllStages returns every stage in execution order. Publishing is gated on
// all of them passing.
func AllStages() []Stage {
	return []Stage{StageFormat, StageLint, StageTypecheck, StageTest}
}

// Result captures the outcome of a single check command.
type Result struct {
	Stage       Stage     `json:"stage"`
	Command     string    `json:"command"`
	Success     bool      `json:"success"`
	ExitCode    int       `json:"exit_code"`
	Stdout      string    `json:"stdout"`
	Stderr      string    `json:"stderr"`
	DurationMs  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
