package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/packship/packship/internal/workflow"
)

// AddTestCommand adds the test command to the root command.
func AddTestCommand(root *cobra.Command, flags *GlobalFlags) {
	var (
		coverage bool
		report   string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the project test suite",
		Long: `Run the configured test command. With --coverage the coverage command
runs instead, printing missing-line coverage to the terminal. A
{report} placeholder in the command is replaced with --report (or
test.report_path) so CI can capture a machine-readable report.

Examples:
  packship test
  packship test --coverage
  packship test --coverage --report reports/tests.xml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTest(cmd, cmd.OutOrStdout(), flags, coverage, report)
		},
	}
	cmd.Flags().BoolVar(&coverage, "coverage", false, "run the coverage command and print missing-line coverage")
	cmd.Flags().StringVar(&report, "report", "", "machine-readable report output path")

	root.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, w io.Writer, flags *GlobalFlags, coverage bool, report string) error {
	cfg, ctx, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	eng := workflow.NewEngine(cfg, GetLogger())
	if !flags.Quiet {
		eng.SetLiveOutput(os.Stdout)
	}

	results, runErr := eng.RunTests(ctx, dir, coverage, report)

	if cmd.Flag("output").Value.String() == OutputJSON {
		if err := printJSON(w, results); err != nil {
			return err
		}
	} else {
		printCheckResults(w, results)
	}
	return runErr
}
