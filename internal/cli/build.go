package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/packship/packship/internal/workflow"
)

// AddBuildCommand adds the build command to the root command.
func AddBuildCommand(root *cobra.Command) {
	var withSubprojects bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build package artifacts from the project manifest",
		Long: `Build a source archive (.tar.gz) and a built archive (.zip) from the
packship.yaml manifest into the output directory.

Examples:
  packship build
  packship build --with-subprojects   # also build manifest-declared subprojects
  packship build --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, cmd.OutOrStdout(), withSubprojects)
		},
	}
	cmd.Flags().BoolVar(&withSubprojects, "with-subprojects", false, "also build each subproject declared in the manifest")

	root.AddCommand(cmd)
}

func runBuild(cmd *cobra.Command, w io.Writer, withSubprojects bool) error {
	cfg, ctx, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("with-subprojects") {
		cfg.Build.WithSubprojects = withSubprojects
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	eng := workflow.NewEngine(cfg, GetLogger())
	artifacts, err := eng.Build(ctx, dir)
	if err != nil {
		return err
	}

	if cmd.Flag("output").Value.String() == OutputJSON {
		return printJSON(w, artifacts)
	}

	for _, a := range artifacts {
		fmt.Fprintln(w, a.Path)
	}
	return nil
}
