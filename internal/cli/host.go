package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/packship/packship/internal/errors"
	"github.com/packship/packship/internal/workflow"
)

// serverShutdownTimeout bounds the graceful stop of a foreground server.
const serverShutdownTimeout = 5 * time.Second

// hostFlags holds the flags shared by the hosting commands.
type hostFlags struct {
	host   string
	port   int
	detach bool
}

func (f *hostFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.host, "host", "", "interface to bind (default 127.0.0.1; use 0.0.0.0 to expose)")
	cmd.Flags().IntVar(&f.port, "port", 0, "port to bind (default 8080)")
	cmd.Flags().BoolVar(&f.detach, "detach", false, "run the index server as a background process")
}

// apply overrides the index config with any explicitly set flags.
func (f *hostFlags) apply(cmd *cobra.Command, host *string, port *int) {
	if cmd.Flags().Changed("host") {
		*host = f.host
	}
	if cmd.Flags().Changed("port") {
		*port = f.port
	}
}

// AddHostCommand adds the host-pypi-local command to the root command.
func AddHostCommand(root *cobra.Command) {
	flags := &hostFlags{}

	cmd := &cobra.Command{
		Use:   "host-pypi-local",
		Short: "Serve previously built artifacts from a local package index",
		Long: `Start the local package index, wait until it accepts connections, then
upload every artifact from the output directory to it. The server keeps
running in the foreground until interrupted so the index can be
inspected manually.

Without a configured index.password an ephemeral credential pair is
generated for this run and printed once.

Examples:
  packship host-pypi-local
  packship host-pypi-local --host 0.0.0.0 --port 9000
  packship host-pypi-local --detach   # requires a static index.password`,
		Aliases: []string{"host"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHost(cmd, cmd.OutOrStdout(), flags, false)
		},
	}
	flags.register(cmd)

	root.AddCommand(cmd)
}

// AddBuildAndHostCommand adds the build-and-host-local command to the root command.
func AddBuildAndHostCommand(root *cobra.Command) {
	flags := &hostFlags{}

	cmd := &cobra.Command{
		Use:   "build-and-host-local",
		Short: "Clean, build, then serve the artifacts from a local index",
		Long: `Run the full local pipeline: remove stale output, build fresh
artifacts, start the local package index and publish the artifacts to
it. Any stage failure aborts the remaining stages.

Examples:
  packship build-and-host-local
  packship build-and-host-local --port 9000`,
		Aliases: []string{"build-and-host"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHost(cmd, cmd.OutOrStdout(), flags, true)
		},
	}
	flags.register(cmd)

	root.AddCommand(cmd)
}

func runHost(cmd *cobra.Command, w io.Writer, flags *hostFlags, build bool) error {
	cfg, ctx, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags.apply(cmd, &cfg.Index.Host, &cfg.Index.Port)

	if flags.detach {
		return spawnDetached(cmd, w, cfg.Index.Password, build)
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	eng := workflow.NewEngine(cfg, GetLogger())

	var res *workflow.HostResult
	if build {
		res, err = eng.BuildAndHostLocal(ctx, dir)
	} else {
		res, err = eng.HostLocal(ctx, dir)
	}
	if res != nil && res.Run != nil {
		fmt.Fprint(w, workflow.RenderSummary(res.Run))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nindex ready at %s\n", res.Server.URL())
	fmt.Fprintf(w, "credentials: %s / %s\n", res.Credential.Username, res.Credential.Password)
	fmt.Fprintln(w, "press Ctrl-C to stop")

	// Serve until the command context is canceled (interrupt).
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	return res.Server.Stop(stopCtx)
}

// spawnDetached restarts the hosting command as a detached background
// process. An ephemeral credential would die with the parent, so a
// static index.password is required.
func spawnDetached(cmd *cobra.Command, w io.Writer, password string, build bool) error {
	if password == "" {
		return errors.Wrap(errors.ErrEmptyValue,
			"--detach requires a static index.password, ephemeral credentials do not outlive the parent process")
	}

	exe, err := os.Executable()
	if err != nil {
		return err
	}

	name := "host-pypi-local"
	if build {
		name = "build-and-host-local"
	}
	args := []string{name}
	if cmd.Flags().Changed("host") {
		args = append(args, "--host", cmd.Flag("host").Value.String())
	}
	if cmd.Flags().Changed("port") {
		args = append(args, "--port", cmd.Flag("port").Value.String())
	}

	child := exec.Command(exe, args...) //nolint:gosec // re-executes this binary
	child.SysProcAttr = detachedSysProcAttr()
	if err := child.Start(); err != nil {
		return fmt.Errorf("failed to start background server: %w", err)
	}

	pid := child.Process.Pid
	if err := child.Process.Release(); err != nil {
		return err
	}

	fmt.Fprintf(w, "index server running in background (pid %d)\n", pid)
	return nil
}
