package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/packship/packship/internal/workflow"
)

// AddCleanCommand adds the clean command to the root command.
func AddCleanCommand(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build output directories",
		Long: `Remove the build output and packages directories recursively.

Missing directories are not an error; running clean twice in a row
succeeds both times.

Examples:
  packship clean`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClean(cmd, cmd.OutOrStdout())
		},
	}
	root.AddCommand(cmd)
}

func runClean(cmd *cobra.Command, w io.Writer) error {
	cfg, ctx, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	eng := workflow.NewEngine(cfg, GetLogger())
	if err := eng.Clean(ctx, dir); err != nil {
		return err
	}

	fmt.Fprintf(w, "removed %s and %s\n", cfg.Build.OutputDir, cfg.Index.PackagesDir)
	return nil
}
