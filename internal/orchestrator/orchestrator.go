// Package orchestrator sequences a fixture run: validate, build, bring up
// dependencies, launch mock and application servers, wait for readiness, run
// the tests, tear everything down, and report the tests' exit status.
//
// All phases run on a single control goroutine. An interrupt cancels the run
// context; the control goroutine notices, skips to teardown, and returns.
// Teardown happens exactly once per run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/schmitthub/fixture/internal/build"
	"github.com/schmitthub/fixture/internal/compose"
	"github.com/schmitthub/fixture/internal/config"
	"github.com/schmitthub/fixture/internal/exitcodes"
	"github.com/schmitthub/fixture/internal/iostreams"
	"github.com/schmitthub/fixture/internal/logger"
	"github.com/schmitthub/fixture/internal/process"
	"github.com/schmitthub/fixture/internal/readiness"
	"github.com/schmitthub/fixture/internal/signals"
	"github.com/schmitthub/fixture/internal/testinvoker"
)

// downTimeout bounds dependency deactivation during teardown.
const downTimeout = 2 * time.Minute

// Builder compiles application servers.
type Builder interface {
	Build(ctx context.Context, targets []build.Target) []build.Result
}

// Dependencies activates and deactivates the containerized dependency set.
type Dependencies interface {
	Ping(ctx context.Context) error
	Up(ctx context.Context) error
	Down(ctx context.Context) error
}

// Launcher starts process groups and stops everything it started.
type Launcher interface {
	Launch(ctx context.Context, g process.Group) []process.LaunchResult
	StopAll(grace time.Duration) process.TeardownSummary
}

// TestRunner runs the test executable and returns its exit status.
type TestRunner interface {
	Run(ctx context.Context, exe, dir string, args []string) (int, error)
}

// Interrupts turns termination signals into context cancellation.
type Interrupts interface {
	Start(parent context.Context) context.Context
	Signal() os.Signal
	Stop()
}

// AwaitFunc waits for readiness.
type AwaitFunc func(ctx context.Context, probes []readiness.Probe, opts readiness.Options) error

// Options configures an Orchestrator. Collaborators left nil get their
// production implementation.
type Options struct {
	Config    *config.Config
	Run       config.RunOptions
	IOStreams *iostreams.IOStreams

	Builder      Builder
	Dependencies Dependencies
	Launcher     Launcher
	Tests        TestRunner
	Interrupts   Interrupts
	Await        AwaitFunc

	// OnTransition, if set, observes every state change.
	OnTransition func(from, to State)
	// OnValidated, if set, runs once every precondition has passed and
	// before anything is built or spawned.
	OnValidated func()
}

// Orchestrator runs one fixture. It is single-use.
type Orchestrator struct {
	opts  Options
	cfg   *config.Config
	ios   *iostreams.IOStreams
	state State
	runID string

	report        Report
	depsAttempted bool
	lock          *flock.Flock
	teardownOnce  sync.Once
	teardown      process.TeardownSummary
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.IOStreams == nil {
		opts.IOStreams = iostreams.NewIOStreams()
	}
	if opts.Interrupts == nil {
		interrupts := signals.NewInterceptor()
		interrupts.OnRepeat = func(sig os.Signal) {
			logger.Warn().Str("signal", sig.String()).Msg("teardown already in progress; signal ignored")
		}
		opts.Interrupts = interrupts
	}
	if opts.Await == nil {
		opts.Await = readiness.Wait
	}
	return &Orchestrator{
		opts: opts,
		cfg:  opts.Config,
		ios:  opts.IOStreams,
	}
}

// RunID identifies this run in logs and child environments.
func (o *Orchestrator) RunID() string { return o.runID }

// Report returns the pre-flight outcomes gathered so far.
func (o *Orchestrator) Report() Report { return o.report }

// Teardown returns what the teardown pass did.
func (o *Orchestrator) Teardown() process.TeardownSummary { return o.teardown }

func (o *Orchestrator) transition(to State) {
	from := o.state
	o.state = to
	logger.Debug().Str("from", from.String()).Str("to", to.String()).Msg("state")
	if o.opts.OnTransition != nil {
		o.opts.OnTransition(from, to)
	}
}

// Run executes the fixture and returns the process exit status: the test
// executable's status when tests ran, exitcodes.Precondition when validation
// failed, exitcodes.FixtureFailed when a required component failed, or
// 128+signo when interrupted before tests ran.
func (o *Orchestrator) Run(ctx context.Context) int {
	ctx = o.opts.Interrupts.Start(ctx)
	defer o.opts.Interrupts.Stop()

	o.transition(Validating)
	plan, err := o.validate()
	if err != nil {
		fmt.Fprintln(o.ios.ErrOut, err)
		o.transition(Done)
		return exitcodes.Precondition
	}
	if o.opts.OnValidated != nil {
		o.opts.OnValidated()
	}

	code := o.execute(ctx, plan)
	o.stop()
	o.transition(Done)
	return code
}

// validate checks every precondition and prepares the run. Nothing is
// spawned and no log file is created before it succeeds.
func (o *Orchestrator) validate() (*Plan, error) {
	if err := o.opts.Run.Validate(o.cfg); err != nil {
		return nil, err
	}

	o.runID = uuid.NewString()
	logger.SetRunID(o.runID)

	plan, err := NewPlan(o.cfg, o.opts.Run, o.runID)
	if err != nil {
		return nil, &config.ValidationError{Msg: err.Error()}
	}
	if err := o.defaults(); err != nil {
		return nil, &config.ValidationError{Msg: err.Error()}
	}
	if err := o.acquireLock(); err != nil {
		return nil, err
	}
	return plan, nil
}

func (o *Orchestrator) defaults() error {
	if o.opts.Builder == nil {
		o.opts.Builder = build.NewBuilder(o.opts.Run.ToolchainPath(o.cfg))
	}
	if o.opts.Launcher == nil {
		o.opts.Launcher = process.NewRegistry()
	}
	if o.opts.Dependencies == nil {
		deps := o.cfg.Dependencies
		b, err := compose.New(compose.Options{
			Dir:     resolve(o.opts.Run.Root, deps.Dir),
			File:    deps.File,
			Command: deps.Command,
			Project: deps.Project,
			Out:     o.ios.ErrOut,
		})
		if err != nil {
			return err
		}
		o.opts.Dependencies = b
	}
	if o.opts.Tests == nil {
		inv := testinvoker.New()
		inv.Stdin = o.ios.In
		inv.Stdout = o.ios.Out
		inv.Stderr = o.ios.ErrOut
		inv.Env = []string{RunIDEnv + "=" + o.runID}
		o.opts.Tests = inv
	}
	return nil
}

func (o *Orchestrator) acquireLock() error {
	if o.opts.Run.Root == "" {
		return nil
	}
	path := filepath.Join(o.opts.Run.Root, config.LockFileName)
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return &config.ValidationError{Msg: fmt.Sprintf("Could not lock %s: %v", path, err)}
	}
	if !locked {
		return &config.ValidationError{Msg: fmt.Sprintf("Another fixture run is using %s.", o.opts.Run.Root)}
	}
	o.lock = fl
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, plan *Plan) int {
	o.transition(Building)
	o.report.addBuilds(o.opts.Builder.Build(ctx, plan.Targets))
	if ctx.Err() != nil {
		return o.interrupted()
	}
	if o.report.Failed() {
		return o.failed()
	}

	o.transition(DependenciesUp)
	if o.cfg.Dependencies.CheckDaemon {
		err := o.opts.Dependencies.Ping(ctx)
		o.report.add(Entry{Stage: StageDaemon, Name: "docker", Err: err})
	}
	o.depsAttempted = true
	if err := o.opts.Dependencies.Up(ctx); err != nil {
		logger.Warn().Err(err).Msg("dependency activation reported an error")
		o.report.add(Entry{Stage: StageDependencies, Name: "up", Err: err})
	} else {
		o.report.add(Entry{Stage: StageDependencies, Name: "up"})
	}
	if ctx.Err() != nil {
		return o.interrupted()
	}

	o.transition(LaunchingMocks)
	o.report.addLaunches(o.opts.Launcher.Launch(ctx, plan.Mocks))
	if ctx.Err() != nil {
		return o.interrupted()
	}

	o.transition(LaunchingServers)
	o.report.addLaunches(o.opts.Launcher.Launch(ctx, plan.Servers))
	if ctx.Err() != nil {
		return o.interrupted()
	}
	if o.report.Failed() {
		return o.failed()
	}

	o.transition(AwaitingReadiness)
	err := o.opts.Await(ctx, plan.Probes, readiness.Options{
		Delay:    o.cfg.Readiness.Delay,
		Timeout:  o.cfg.Readiness.Timeout,
		Interval: o.cfg.Readiness.Interval,
	})
	if ctx.Err() != nil {
		return o.interrupted()
	}
	if err != nil {
		name := "probes"
		var te *readiness.TimeoutError
		if errors.As(err, &te) {
			name = te.Probe
		}
		o.report.add(Entry{Stage: StageReadiness, Name: name, Required: true, Err: err})
		return o.failed()
	}

	o.transition(RunningTests)
	code, err := o.opts.Tests.Run(ctx, plan.TestExe, o.opts.Run.TestsDir, o.opts.Run.Args())
	if err != nil {
		logger.Error().Err(err).Msg("tests could not be run")
		fmt.Fprintf(o.ios.ErrOut, "%s %v\n", o.ios.ColorScheme().FailureIcon(), err)
		return exitcodes.FixtureFailed
	}
	logger.Info().Int("code", code).Msg("tests finished")
	return code
}

func (o *Orchestrator) failed() int {
	for _, e := range o.report.Failures() {
		logger.Error().Err(e.Err).Str("stage", e.Stage).Str("name", e.Name).Msg("required component failed")
	}
	o.report.Render(o.ios.ErrOut, o.ios.ColorScheme())
	return exitcodes.FixtureFailed
}

func (o *Orchestrator) interrupted() int {
	sig := o.opts.Interrupts.Signal()
	if sig == nil {
		logger.Warn().Str("state", o.state.String()).Msg("run cancelled")
		return exitcodes.FixtureFailed
	}
	logger.Warn().Str("signal", sig.String()).Str("state", o.state.String()).Msg("interrupted")
	if code := signals.ExitCode(sig); code != 0 {
		return code
	}
	return exitcodes.FixtureFailed
}

// stop tears the run down once: every launched process is stopped and its
// log closed, then the dependency set is deactivated if activation was
// attempted, then the run lock is released. Errors are logged and swallowed.
func (o *Orchestrator) stop() {
	o.teardownOnce.Do(func() {
		o.transition(TearingDown)

		o.teardown = o.opts.Launcher.StopAll(o.cfg.Teardown.GracePeriod)
		logger.Info().
			Int("requested", o.teardown.Requested).
			Int("killed", o.teardown.Killed).
			Int("logs_closed", o.teardown.LogsClosed).
			Msg("processes stopped")

		if o.depsAttempted {
			ctx, cancel := context.WithTimeout(context.Background(), downTimeout)
			if err := o.opts.Dependencies.Down(ctx); err != nil {
				logger.Warn().Err(err).Msg("dependency deactivation reported an error")
			}
			cancel()
		}

		if o.lock != nil {
			if err := o.lock.Unlock(); err != nil {
				logger.Warn().Err(err).Msg("failed to release run lock")
			}
		}
	})
}
