package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/grovetools/zzz/pkg/config"
	"github.com/grovetools/zzz/pkg/load"
	"github.com/grovetools/zzz/pkg/logger"
	"github.com/grovetools/zzz/pkg/namespace"
	"github.com/grovetools/zzz/pkg/platform"
	"github.com/grovetools/zzz/pkg/state"
	"github.com/grovetools/zzz/pkg/telemetry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// globalOptions are the persistent flags of every command.
type globalOptions struct {
	Verbose bool
	Force   bool
	Clean   bool
}

func (o *globalOptions) bind(fs *pflag.FlagSet) {
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "Print every step and debug logs")
	fs.BoolVarP(&o.Force, "force", "f", false, "Never ask for confirmation")
	fs.BoolVarP(&o.Clean, "clean", "c", false, "Reinstall even if the project is already loaded")
}

// app is the state shared by all commands of one invocation. It is filled
// in by the root command before any subcommand runs.
type app struct {
	opts   globalOptions
	layout namespace.Layout
	cfg    config.Config
	logger *logrus.Logger
	ui     *ui
	shell  platform.Shell
	prompt *confirmer

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (a *app) setup(in io.Reader, out, errOut io.Writer) error {
	a.in, a.out, a.errOut = in, out, errOut

	layout, err := namespace.DefaultLayout()
	if err != nil {
		return &ExitError{Code: ExitInternal, Err: err}
	}
	a.layout = layout

	cfg, cfgErr := config.Load(layout.ConfigFile())
	a.cfg = cfg

	verbose := a.opts.Verbose || cfg.Log.Verbose
	a.logger = logger.NewWithOutput(errOut, verbose)
	a.ui = newUI(out, errOut, verbose)
	if a.shell == nil {
		a.shell = platform.Default()
	}

	// A broken config file falls back to the defaults so that
	// 'zzz config init -f' can still repair it.
	if cfgErr != nil {
		a.ui.Warn("%v; using defaults", cfgErr)
	}
	for _, key := range cfg.Undecoded {
		a.logger.WithField("key", key).Warn("Unknown key in config file")
	}
	return nil
}

// orchestrator wires a load orchestrator. The returned func releases the
// status store.
func (a *app) orchestrator() (*load.Orchestrator, func()) {
	store, err := state.Open(a.layout.StateDB())
	if err != nil {
		a.logger.WithError(err).Warn("Install status will not be recorded")
		store = nil
	}

	var confirm load.Confirmer
	if !a.opts.Force {
		confirm = a.prompter()
	}

	o := load.New(load.Config{
		Layout:    a.layout,
		Shell:     a.shell,
		Logger:    a.logger,
		Telemetry: telemetry.Default(),
		State:     store,
		Confirmer: confirm,
		Reporter:  reporter{a.ui},
	})
	return o, func() {
		if store != nil {
			store.Close()
		}
	}
}

// prompter returns the confirmer shared by every prompt of this
// invocation, so buffered answers are not lost between questions.
func (a *app) prompter() *confirmer {
	if a.prompt == nil {
		a.prompt = newConfirmer(a.in, a.out)
	}
	return a.prompt
}

// loadFlags are the flags shared by commands that load a project.
type loadFlags struct {
	jobs        int
	timeout     time.Duration
	transitive  bool
	retryFailed bool
}

func (f *loadFlags) bind(fs *pflag.FlagSet) {
	fs.IntVarP(&f.jobs, "jobs", "j", 1, "Install this many packages at once (default from config)")
	fs.DurationVar(&f.timeout, "timeout", 0, "Per-package install timeout (default from config)")
	fs.BoolVar(&f.transitive, "transitive", false, "Resolve requirements of requirements")
	fs.BoolVar(&f.retryFailed, "retry-failed", false, "Reinstall only the packages that failed last time")
}

// options merges flags over the user config. Flags win only when set.
func (f *loadFlags) options(a *app, fs *pflag.FlagSet) (load.Options, error) {
	opts := load.Options{
		Force:       a.opts.Force,
		Verbose:     a.opts.Verbose,
		Clean:       a.opts.Clean,
		Transitive:  a.cfg.Resolve.Transitive,
		RetryFailed: f.retryFailed,
		Jobs:        a.cfg.Install.Jobs,
		Timeout:     time.Duration(a.cfg.Install.Timeout),
	}
	if fs.Changed("jobs") {
		if f.jobs < 1 {
			return opts, fmt.Errorf("--jobs must be at least 1")
		}
		opts.Jobs = f.jobs
	}
	if fs.Changed("timeout") {
		opts.Timeout = f.timeout
	}
	if fs.Changed("transitive") {
		opts.Transitive = f.transitive
	}
	return opts, nil
}
