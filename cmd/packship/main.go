// Package main provides the entry point for the packship CLI.
package main

import (
	"context"
	"os"

	"github.com/packship/packship/internal/cli"
	"github.com/packship/packship/internal/signal"
)

// Build information set at build time via ldflags.
var (
	version = "" //nolint:gochecknoglobals // set via ldflags
	commit  = "" //nolint:gochecknoglobals // set via ldflags
	date    = "" //nolint:gochecknoglobals // set via ldflags
)

func main() {
	handler := signal.NewHandler(context.Background())
	defer handler.Stop()

	err := cli.Execute(handler.Context(), cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	cli.CloseLogFile()
	os.Exit(cli.ExitCodeForError(err))
}
