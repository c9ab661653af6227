package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StageResult records the outcome of one workflow step.
type StageResult struct {
	// Stage is the machine stage this step drove toward, or the stage the
	// run was in when a record-only step (checks, dev-install) ran.
	Stage Stage `json:"stage"`

	// Name is the human-readable step name ("clean", "build", "checks").
	Name string `json:"name"`

	// Duration is the wall-clock time the step took.
	Duration time.Duration `json:"duration"`

	// Err is the failure, nil on success.
	Err error `json:"-"`
}

// summaryStyles holds lipgloss styles for the run summary.
type summaryStyles struct {
	header lipgloss.Style
	ok     lipgloss.Style
	failed lipgloss.Style
	dim    lipgloss.Style
}

func newSummaryStyles() *summaryStyles {
	return &summaryStyles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		ok: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#008700", Dark: "#5FD700"}),
		failed: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}),
		dim: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

// RenderSummary renders a human-readable table of the run's steps, their
// outcomes and durations, followed by the final stage.
func RenderSummary(run *Run) string {
	styles := newSummaryStyles()

	var b strings.Builder
	b.WriteString(styles.header.Render("Workflow summary"))
	b.WriteString("\n")

	for _, res := range run.Results() {
		status := styles.ok.Render("ok")
		if res.Err != nil {
			status = styles.failed.Render("failed")
		}
		name := res.Name
		if name == "" {
			name = res.Stage.String()
		}
		b.WriteString(fmt.Sprintf("  %-14s %s %s\n",
			name, status, styles.dim.Render(res.Duration.Round(time.Millisecond).String())))
		if res.Err != nil {
			b.WriteString("    " + styles.failed.Render(res.Err.Error()) + "\n")
		}
	}

	final := styles.ok
	if run.Stage() == StageFailed {
		final = styles.failed
	}
	b.WriteString(styles.dim.Render("final stage: ") + final.Render(run.Stage().String()))
	b.WriteString("\n")
	return b.String()
}
