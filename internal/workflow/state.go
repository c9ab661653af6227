// Package workflow sequences the packship pipeline stages.
//
// This file implements the workflow state machine, which enforces valid
// stage transitions so a run can never skip ahead of an incomplete stage.
//
// Import rules:
//   - CAN import: internal/artifact, internal/check, internal/config,
//     internal/constants, internal/devenv, internal/errors, internal/flock,
//     internal/index, internal/logging, internal/manifest, internal/publish
//   - MUST NOT import: internal/cli
package workflow

import (
	"fmt"

	"github.com/packship/packship/internal/errors"
)

// Stage represents a position in the workflow lifecycle.
type Stage string

// Workflow stages.
const (
	// StageIdle is the initial stage before any work has happened.
	StageIdle Stage = "idle"

	// StageCleaned means the output directories have been removed.
	StageCleaned Stage = "cleaned"

	// StageBuilt means the output directory holds at least one artifact.
	StageBuilt Stage = "built"

	// StageHosted means the local index server is bound and ready.
	StageHosted Stage = "hosted"

	// StagePublished means every artifact was uploaded to the target.
	StagePublished Stage = "published"

	// StageDone is the terminal success stage.
	StageDone Stage = "done"

	// StageFailed is the terminal failure stage, reachable from any
	// non-terminal stage.
	StageFailed Stage = "failed"
)

// String returns the stage as a string.
func (s Stage) String() string {
	return string(s)
}

// ValidTransitions defines all allowed stage transitions in a workflow run.
// Format: from_stage -> []to_stages
//
// The machine follows this flow:
//
//	Idle → Cleaned, Built
//	Cleaned → Built
//	Built → Hosted, Published, Done
//	Hosted → Published, Done
//	Published → Done
//
// Idle may jump straight to Built when a run reuses artifacts from an
// earlier build (host-pypi-local without a fresh build). Built may jump
// straight to Published (remote publish has no hosting stage) or to Done
// (a build-only run). Failed is reachable from every non-terminal stage.
//
//nolint:gochecknoglobals // Exported for testing and read-only lookup table
var ValidTransitions = map[Stage][]Stage{
	StageIdle:      {StageCleaned, StageBuilt, StageFailed},
	StageCleaned:   {StageBuilt, StageFailed},
	StageBuilt:     {StageHosted, StagePublished, StageDone, StageFailed},
	StageHosted:    {StagePublished, StageDone, StageFailed},
	StagePublished: {StageDone, StageFailed},
}

// IsTerminalStage returns true for stages with no outgoing transitions.
// Terminal stages: Done, Failed.
func IsTerminalStage(s Stage) bool {
	_, exists := ValidTransitions[s]
	return !exists
}

// IsValidTransition checks if a transition from one stage to another is
// allowed. Returns false for transitions from terminal stages or to the
// same stage.
func IsValidTransition(from, to Stage) bool {
	if from == to {
		return false
	}
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Run tracks the current stage of a single workflow invocation and the
// results of each completed stage. A Run is not safe for concurrent use;
// the workflow engine drives it from a single goroutine.
type Run struct {
	stage   Stage
	results []StageResult
}

// NewRun returns a Run positioned at StageIdle.
func NewRun() *Run {
	return &Run{stage: StageIdle}
}

// Stage returns the current stage.
func (r *Run) Stage() Stage {
	return r.stage
}

// Results returns the recorded stage results in execution order.
func (r *Run) Results() []StageResult {
	out := make([]StageResult, len(r.results))
	copy(out, r.results)
	return out
}

// Transition validates and applies a stage transition, recording it in
// the run history.
func (r *Run) Transition(to Stage, result StageResult) error {
	if !IsValidTransition(r.stage, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s",
			errors.ErrInvalidTransition, r.stage, to)
	}
	r.results = append(r.results, result)
	r.stage = to
	return nil
}

// Record appends a stage result without changing the current stage. Used
// for work that gates a transition but is not itself a machine stage
// (dev-install, pre-flight checks).
func (r *Run) Record(result StageResult) {
	r.results = append(r.results, result)
}

// Complete moves the run to StageDone without recording a result row.
func (r *Run) Complete() error {
	if !IsValidTransition(r.stage, StageDone) {
		return fmt.Errorf("%w: cannot transition from %s to %s",
			errors.ErrInvalidTransition, r.stage, StageDone)
	}
	r.stage = StageDone
	return nil
}

// Fail moves the run to StageFailed unconditionally from any non-terminal
// stage, recording the failing stage result.
func (r *Run) Fail(result StageResult) error {
	if IsTerminalStage(r.stage) {
		return fmt.Errorf("%w: cannot fail from terminal stage %s",
			errors.ErrInvalidTransition, r.stage)
	}
	r.results = append(r.results, result)
	r.stage = StageFailed
	return nil
}
