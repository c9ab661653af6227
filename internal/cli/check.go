package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/packship/packship/internal/check"
	"github.com/packship/packship/internal/errors"
	"github.com/packship/packship/internal/workflow"
)

// AddCheckCommand adds the check command to the root command.
func AddCheckCommand(root *cobra.Command) {
	var stages []string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the configured pre-flight checks",
		Long: `Run the configured check commands stage by stage, stopping at the
first failing stage. Without --stage every stage runs in order:
format, lint, typecheck, test.

Examples:
  packship check
  packship check --stage lint
  packship check --stage format --stage typecheck`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, cmd.OutOrStdout(), stages)
		},
	}
	cmd.Flags().StringArrayVar(&stages, "stage", nil, "check stage to run (repeatable; default all)")

	root.AddCommand(cmd)
}

func runCheck(cmd *cobra.Command, w io.Writer, stageNames []string) error {
	cfg, ctx, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	stages := check.AllStages()
	if len(stageNames) > 0 {
		stages = stages[:0]
		for _, name := range stageNames {
			stage := check.Stage(name)
			if !stage.IsValid() {
				return errors.Wrapf(errors.ErrCheckFailed, "unknown check stage %q", name)
			}
			stages = append(stages, stage)
		}
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	eng := workflow.NewEngine(cfg, GetLogger())
	eng.SetLiveOutput(os.Stdout)

	results, runErr := eng.RunChecks(ctx, dir, stages)

	if cmd.Flag("output").Value.String() == OutputJSON {
		if err := printJSON(w, results); err != nil {
			return err
		}
	} else {
		printCheckResults(w, results)
	}
	return runErr
}

// printCheckResults writes a one-line status per executed command.
func printCheckResults(w io.Writer, results []check.Result) {
	for _, res := range results {
		status := "ok"
		if !res.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", res.Stage, res.Command, status)
	}
}
