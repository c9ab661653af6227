package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/packship/packship/internal/check"
	"github.com/packship/packship/internal/workflow"
)

// AddHooksCommand adds the hooks command and its subcommands to the root command.
func AddHooksCommand(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage git hooks that run the pre-flight checks",
		Long: `Install git hooks that run packship checks on pre-commit, pre-push and
commit-msg, or run the hook checks directly against the full tree.`,
	}

	cmd.AddCommand(newHooksInstallCmd())
	cmd.AddCommand(newHooksRunCmd())

	root.AddCommand(cmd)
}

func newHooksInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the git hooks into the current repository",
		Long: `Write hook scripts into .git/hooks. Existing hooks written by packship
are replaced; foreign hooks are left untouched and reported as an
error.

Examples:
  packship hooks install`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHooksInstall(cmd, cmd.OutOrStdout())
		},
	}
}

func newHooksRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the hook checks against the full tree",
		Long: `Run the format, lint and typecheck stages exactly as the installed
hooks would, failing if any configured command fails.

Examples:
  packship hooks run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHooksRun(cmd, cmd.OutOrStdout())
		},
	}
}

func runHooksInstall(cmd *cobra.Command, w io.Writer) error {
	_, ctx, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	if err := check.InstallHooks(ctx, dir); err != nil {
		return err
	}

	fmt.Fprintln(w, "installed git hooks: pre-commit, pre-push, commit-msg")
	return nil
}

func runHooksRun(cmd *cobra.Command, w io.Writer) error {
	cfg, ctx, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	eng := workflow.NewEngine(cfg, GetLogger())
	eng.SetLiveOutput(os.Stdout)

	stages := []check.Stage{check.StageFormat, check.StageLint, check.StageTypecheck}
	results, runErr := eng.RunChecks(ctx, dir, stages)
	printCheckResults(w, results)
	return runErr
}
