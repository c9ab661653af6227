package workflow

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/packship/packship/internal/artifact"
	"github.com/packship/packship/internal/check"
	"github.com/packship/packship/internal/config"
	"github.com/packship/packship/internal/constants"
	"github.com/packship/packship/internal/devenv"
	"github.com/packship/packship/internal/errors"
	"github.com/packship/packship/internal/flock"
	"github.com/packship/packship/internal/index"
	"github.com/packship/packship/internal/logging"
	"github.com/packship/packship/internal/manifest"
	"github.com/packship/packship/internal/publish"
)

// serverStopTimeout bounds the shutdown of an index server started by a
// workflow that subsequently failed.
const serverStopTimeout = 5 * time.Second

// Engine drives the workflow stages: clean, build, host, publish, plus
// the editable-install and pre-flight check steps that gate them. There
// is no retry policy; the first failing step is terminal for the run.
type Engine struct {
	cfg       *config.Config
	logger    zerolog.Logger
	checks    *check.Executor
	tests     *check.Executor
	publisher *publish.Publisher
}

// NewEngine creates a workflow engine for the given configuration.
func NewEngine(cfg *config.Config, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		logger:    logger.With().Str("component", "workflow").Logger(),
		checks:    check.NewExecutor(cfg.Checks.Timeout),
		tests:     check.NewExecutor(cfg.Test.Timeout),
		publisher: publish.NewPublisher(cfg.Publish.Timeout),
	}
}

// SetCheckRunner replaces the command runner used for checks and tests.
// Primarily for testing.
func (e *Engine) SetCheckRunner(runner check.CommandRunner) {
	e.checks = check.NewExecutorWithRunner(e.cfg.Checks.Timeout, runner)
	e.tests = check.NewExecutorWithRunner(e.cfg.Test.Timeout, runner)
}

// SetLiveOutput streams check and test command output to w as it runs,
// in addition to capturing it in the results.
func (e *Engine) SetLiveOutput(w io.Writer) {
	e.checks.SetLiveOutput(w)
	e.tests.SetLiveOutput(w)
}

// HostResult is the outcome of a hosting workflow. When Server is
// non-nil the caller owns its lifetime and must either Stop or Detach it.
type HostResult struct {
	Run        *Run
	Server     *index.Handle
	Credential index.Credential
	Artifacts  []artifact.Artifact
}

// resolvePath resolves a configured path against the project directory.
func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (e *Engine) outputDir(dir string) string {
	return resolvePath(dir, e.cfg.Build.OutputDir)
}

func (e *Engine) packagesDir(dir string) string {
	return resolvePath(dir, e.cfg.Index.PackagesDir)
}

// acquireLock takes the advisory single-run lock for the project. Two
// concurrent workflow runs against the same project corrupt each other's
// artifact set, so the lock is held for the whole run.
func (e *Engine) acquireLock(dir string) (*flock.Lock, error) {
	return flock.Acquire(filepath.Join(dir, constants.ProjectConfigDir, constants.LockFileName))
}

// credential resolves the local index credential: the configured static
// pair when one is set, otherwise a fresh ephemeral pair scoped to this
// run. Either way the password is registered with the log redaction layer.
func (e *Engine) credential() index.Credential {
	cred := index.Credential{
		Username: e.cfg.Index.Username,
		Password: e.cfg.Index.Password,
	}
	if cred.Password == "" {
		cred = index.NewEphemeralCredential()
		cred.Username = e.cfg.Index.Username
	}
	logging.RegisterSecret(cred.Password)
	return cred
}

// step runs fn, records its result on the run, and applies the stage
// transition. An empty target stage records the result without moving
// the machine. A failing step moves the run to StageFailed.
func (e *Engine) step(run *Run, to Stage, name string, fn func() error) error {
	start := time.Now()
	err := fn()

	res := StageResult{Stage: to, Name: name, Duration: time.Since(start), Err: err}
	if to == "" {
		res.Stage = run.Stage()
	}

	if err != nil {
		e.logger.Error().Err(err).Str("step", name).
			Dur("duration", res.Duration).Msg("workflow step failed")
		if ferr := run.Fail(res); ferr != nil {
			e.logger.Error().Err(ferr).Msg("failed to record failure")
		}
		return err
	}

	e.logger.Info().Str("step", name).
		Dur("duration", res.Duration).Msg("workflow step completed")
	if to == "" {
		run.Record(res)
		return nil
	}
	return run.Transition(to, res)
}

// Clean removes the build output and packages directories. Missing
// directories are not an error; Clean is idempotent.
func (e *Engine) Clean(ctx context.Context, dir string) error {
	return artifact.Clean(ctx, e.outputDir(dir), e.packagesDir(dir))
}

// Build loads the project manifest and produces artifacts into the
// output directory. With build.with_subprojects set, each subproject is
// built into the same directory.
func (e *Engine) Build(ctx context.Context, dir string) ([]artifact.Artifact, error) {
	builder := artifact.NewBuilder(e.outputDir(dir))

	dirs := []string{dir}
	m, err := manifest.Load(dir)
	if err != nil {
		return nil, err
	}
	if e.cfg.Build.WithSubprojects {
		dirs = append(dirs, m.SubprojectDirs()...)
	}

	var arts []artifact.Artifact
	for _, d := range dirs {
		pm := m
		if d != dir {
			if pm, err = manifest.Load(d); err != nil {
				return nil, err
			}
		}
		built, err := builder.Build(ctx, pm)
		if err != nil {
			return nil, err
		}
		arts = append(arts, built...)
	}
	return arts, nil
}

// DevInstall links the project, its subprojects and any configured
// extras into the environment directory, then verifies every link
// resolves back to a loadable manifest.
func (e *Engine) DevInstall(ctx context.Context, dir string) ([]devenv.Link, error) {
	envDir, err := e.cfg.EnvDir()
	if err != nil {
		return nil, err
	}

	mgr := devenv.NewManager(envDir)
	links, err := mgr.InstallProject(ctx, dir, e.cfg.Dev.Extras)
	if err != nil {
		return nil, err
	}
	if err := mgr.Verify(ctx); err != nil {
		return nil, err
	}

	e.logger.Info().Int("links", len(links)).Str("env_dir", envDir).
		Msg("editable install complete")
	return links, nil
}

// checkCommands maps configured check commands by stage. The test stage
// uses the plain test command.
func (e *Engine) checkCommands() map[check.Stage][]string {
	cmds := map[check.Stage][]string{
		check.StageFormat:    e.cfg.Checks.Format,
		check.StageLint:      e.cfg.Checks.Lint,
		check.StageTypecheck: e.cfg.Checks.Typecheck,
	}
	if e.cfg.Test.Command != "" {
		cmds[check.StageTest] = []string{e.cfg.Test.Command}
	}
	return cmds
}

// RunChecks executes the given check stages in order against the project
// directory, stopping at the first failing stage. The test stage runs
// under the test timeout; all others under the checks timeout.
func (e *Engine) RunChecks(ctx context.Context, dir string, stages []check.Stage) ([]check.Result, error) {
	cmds := e.checkCommands()

	var results []check.Result
	for _, stage := range stages {
		exec := e.checks
		if stage == check.StageTest {
			exec = e.tests
		}
		res, err := exec.Run(ctx, stage, cmds[stage], dir)
		results = append(results, res...)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// RunTests runs the configured test command, or the coverage command
// when coverage is requested. A {report} placeholder in the command is
// replaced with reportPath (falling back to test.report_path) so CI can
// capture a machine-readable report.
func (e *Engine) RunTests(ctx context.Context, dir string, coverage bool, reportPath string) ([]check.Result, error) {
	command := e.cfg.Test.Command
	if coverage && e.cfg.Test.CoverageCommand != "" {
		command = e.cfg.Test.CoverageCommand
	}
	if command == "" {
		return nil, errors.Wrap(errors.ErrEmptyValue, "test.command is not configured")
	}

	if reportPath == "" {
		reportPath = e.cfg.Test.ReportPath
	}
	command = strings.ReplaceAll(command, "{report}", reportPath)

	return e.tests.Run(ctx, check.StageTest, []string{command}, dir)
}

// BuildAndHostLocal runs the full local pipeline: clean, build, start
// the local index server, wait for it to accept connections, then
// publish every artifact to it. On success the returned server handle is
// live and owned by the caller.
func (e *Engine) BuildAndHostLocal(ctx context.Context, dir string) (*HostResult, error) {
	lk, err := e.acquireLock(dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lk.Release() }()

	run := NewRun()
	res := &HostResult{Run: run}

	if err := e.step(run, StageCleaned, "clean", func() error {
		return e.Clean(ctx, dir)
	}); err != nil {
		return res, err
	}

	if err := e.step(run, StageBuilt, "build", func() error {
		arts, buildErr := e.Build(ctx, dir)
		res.Artifacts = arts
		return buildErr
	}); err != nil {
		return res, err
	}

	if err := e.hostAndPublish(ctx, dir, res); err != nil {
		return res, err
	}

	if err := run.Complete(); err != nil {
		return res, err
	}
	return res, nil
}

// HostLocal serves previously built artifacts: it verifies the output
// directory holds at least one artifact, starts the index server and
// publishes the artifacts to it. No clean or build happens.
func (e *Engine) HostLocal(ctx context.Context, dir string) (*HostResult, error) {
	lk, err := e.acquireLock(dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lk.Release() }()

	run := NewRun()
	res := &HostResult{Run: run}

	if err := e.step(run, StageBuilt, "scan", func() error {
		arts, scanErr := artifact.Scan(e.outputDir(dir))
		if scanErr != nil {
			return scanErr
		}
		if len(arts) == 0 {
			return errors.Wrapf(errors.ErrNoArtifacts,
				"no artifacts in %s, run build first", e.outputDir(dir))
		}
		res.Artifacts = arts
		return nil
	}); err != nil {
		return res, err
	}

	if err := e.hostAndPublish(ctx, dir, res); err != nil {
		return res, err
	}

	if err := run.Complete(); err != nil {
		return res, err
	}
	return res, nil
}

// hostAndPublish starts the index server, gates on readiness, and
// publishes the output directory to it. The run must be at StageBuilt.
// On publish failure the server is stopped before returning.
func (e *Engine) hostAndPublish(ctx context.Context, dir string, res *HostResult) error {
	run := res.Run
	cred := e.credential()
	res.Credential = cred

	if err := e.step(run, StageHosted, "host", func() error {
		handle, startErr := index.Start(ctx, e.packagesDir(dir), e.cfg.Index.Host, e.cfg.Index.Port, cred)
		if startErr != nil {
			return startErr
		}
		if readyErr := index.WaitReady(ctx, handle.URL(), constants.IndexReadyTimeout); readyErr != nil {
			e.stopServer(handle)
			return readyErr
		}
		res.Server = handle
		return nil
	}); err != nil {
		return err
	}

	if err := e.step(run, StagePublished, "publish", func() error {
		target := publish.LocalTarget(res.Server.URL(), cred)
		_, pubErr := e.publisher.Publish(ctx, e.outputDir(dir), target)
		return pubErr
	}); err != nil {
		e.stopServer(res.Server)
		res.Server = nil
		return err
	}
	return nil
}

// stopServer shuts down an index server on a failure path, with its own
// deadline so a wedged server cannot hang the error return.
func (e *Engine) stopServer(handle *index.Handle) {
	if handle == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), serverStopTimeout)
	defer cancel()
	if err := handle.Stop(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("failed to stop index server")
	}
}

// Release runs the remote-publish pipeline: editable install, clean,
// build, the full pre-flight check gate, then publish to the configured
// remote registry with environment-sourced credentials. Any pre-flight
// failure aborts before the publisher is invoked.
func (e *Engine) Release(ctx context.Context, dir string) (*Run, error) {
	lk, err := e.acquireLock(dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lk.Release() }()

	run := NewRun()

	if err := e.step(run, "", "dev-install", func() error {
		_, devErr := e.DevInstall(ctx, dir)
		return devErr
	}); err != nil {
		return run, err
	}

	if err := e.step(run, StageCleaned, "clean", func() error {
		return e.Clean(ctx, dir)
	}); err != nil {
		return run, err
	}

	if err := e.step(run, StageBuilt, "build", func() error {
		_, buildErr := e.Build(ctx, dir)
		return buildErr
	}); err != nil {
		return run, err
	}

	if err := e.step(run, "", "checks", func() error {
		_, checkErr := e.RunChecks(ctx, dir, check.AllStages())
		return checkErr
	}); err != nil {
		return run, err
	}

	if err := e.step(run, StagePublished, "publish", func() error {
		target, targetErr := publish.RemoteTarget(e.cfg.Publish.URL)
		if targetErr != nil {
			return targetErr
		}
		_, pubErr := e.publisher.Publish(ctx, e.outputDir(dir), target)
		return pubErr
	}); err != nil {
		return run, err
	}

	if err := run.Complete(); err != nil {
		return run, err
	}
	return run, nil
}
