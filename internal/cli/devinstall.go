package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/packship/packship/internal/workflow"
)

// AddDevInstallCommand adds the dev-install command to the root command.
func AddDevInstallCommand(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "dev-install",
		Short: "Link the project into the environment for live development",
		Long: `Write editable link files for the project, its subprojects and any
configured extra projects into the environment directory, then verify
every link resolves back to a loadable manifest.

The environment directory defaults to ~/.packship/env and can be set
with dev.env_dir.

Examples:
  packship dev-install
  packship dev-install --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDevInstall(cmd, cmd.OutOrStdout())
		},
	}
	root.AddCommand(cmd)
}

func runDevInstall(cmd *cobra.Command, w io.Writer) error {
	cfg, ctx, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	eng := workflow.NewEngine(cfg, GetLogger())
	links, err := eng.DevInstall(ctx, dir)
	if err != nil {
		return err
	}

	if cmd.Flag("output").Value.String() == OutputJSON {
		return printJSON(w, links)
	}

	for _, link := range links {
		fmt.Fprintf(w, "linked %s -> %s\n", link.Name, link.Path)
	}
	return nil
}
