package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/packship/packship/internal/constants"
	"github.com/packship/packship/internal/workflow"
)

// AddPublishCommand adds the publish command to the root command.
func AddPublishCommand(root *cobra.Command) {
	var url string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Run the gated release pipeline against the remote registry",
		Long: `Run the remote release pipeline: editable install, clean, build, the
full pre-flight check gate (format, lint, typecheck, test), then upload
every artifact to the configured remote registry. Any pre-flight
failure aborts before anything is uploaded.

Credentials are read from the ` + constants.PublishUsernameEnv + ` and
` + constants.PublishPasswordEnv + ` environment variables, never from
config files.

Examples:
  packship publish
  packship publish --url https://registry.example.com/upload`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd, cmd.OutOrStdout(), url)
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "remote registry URL (overrides publish.url)")

	root.AddCommand(cmd)
}

func runPublish(cmd *cobra.Command, w io.Writer, url string) error {
	cfg, ctx, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("url") {
		cfg.Publish.URL = url
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	eng := workflow.NewEngine(cfg, GetLogger())
	run, runErr := eng.Release(ctx, dir)

	if run != nil {
		if cmd.Flag("output").Value.String() == OutputJSON {
			if err := printJSON(w, run.Results()); err != nil {
				return err
			}
		} else {
			fmt.Fprint(w, workflow.RenderSummary(run))
		}
	}
	return runErr
}
