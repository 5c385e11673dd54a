// Package install materializes resolved tools inside a project's install
// namespace.
package install

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/grovetools/zzz/pkg/namespace"
	"github.com/grovetools/zzz/pkg/platform"
	"github.com/grovetools/zzz/pkg/telemetry"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single package install.
const DefaultTimeout = 10 * time.Minute

// Job is everything a strategy needs to install one tool.
type Job struct {
	Tool      manifest.Tool
	Namespace uint64
	// Dir is the namespace directory receiving the artifact.
	Dir string
	// Scratch is the namespace's temporary build area.
	Scratch string
	Shell   platform.Shell
	Logger  *logrus.Entry
}

// Dest is the installed path of the job's tool.
func (j Job) Dest() string {
	return filepath.Join(j.Dir, j.Tool.Name)
}

// Strategy installs a tool using one install method.
type Strategy interface {
	Install(ctx context.Context, job Job) error
}

// Options configures an Installer.
type Options struct {
	// Timeout bounds each package install. Zero uses DefaultTimeout,
	// a negative value disables the bound.
	Timeout   time.Duration
	Logger    *logrus.Logger
	Telemetry *telemetry.Telemetry
}

// Installer dispatches each tool to the strategy for its method.
type Installer struct {
	layout     namespace.Layout
	shell      platform.Shell
	timeout    time.Duration
	logger     *logrus.Logger
	telemetry  *telemetry.Telemetry
	strategies map[manifest.Method]Strategy
}

// New creates an installer writing below layout and running external
// utilities through shell.
func New(layout namespace.Layout, shell platform.Shell, opts Options) *Installer {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Installer{
		layout:    layout,
		shell:     shell,
		timeout:   timeout,
		logger:    logger,
		telemetry: opts.Telemetry,
		strategies: map[manifest.Method]Strategy{
			manifest.MethodLinkArchive: LinkArchive{},
			manifest.MethodGitSource:   GitSource{},
		},
	}
}

// Install installs tool into namespace ns. Any returned error is an *Error.
func (i *Installer) Install(ctx context.Context, tool manifest.Tool, ns uint64) error {
	log := i.logger.WithFields(logrus.Fields{
		"tool":      tool.Name,
		"method":    string(tool.Method),
		"namespace": namespace.Format(ns),
	})

	// The name becomes a path below the namespace and scratch dirs.
	if err := manifest.CheckName(tool.Name); err != nil {
		return &Error{Kind: KindInvalidName, Tool: tool.Name, Err: err}
	}

	strategy, ok := i.strategies[tool.Method]
	if !ok {
		return &Error{Kind: KindUnknownMethod, Tool: tool.Name, Err: fmt.Errorf("no strategy for method %q", tool.Method)}
	}

	ctx, span := i.telemetry.StartInstall(ctx, tool.Name, string(tool.Method))
	start := time.Now()

	runCtx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	log.Debug("Installing tool")
	err := strategy.Install(runCtx, Job{
		Tool:      tool,
		Namespace: ns,
		Dir:       i.layout.Bins(ns),
		Scratch:   i.layout.Temp(ns),
		Shell:     i.shell,
		Logger:    log,
	})
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = &Error{Kind: KindTimeout, Tool: tool.Name, Err: fmt.Errorf("exceeded %s: %w", i.timeout, err)}
		} else if KindOf(err) == "" {
			err = &Error{Kind: KindFetchFailed, Tool: tool.Name, Err: err}
		}
	}

	elapsed := time.Since(start)
	i.telemetry.EndInstall(ctx, span, string(tool.Method), elapsed, err, string(KindOf(err)))

	if err != nil {
		log.WithError(err).WithField("kind", string(KindOf(err))).Debug("Install failed")
		return err
	}
	log.WithField("duration", elapsed.Round(time.Millisecond)).Debug("Installed tool")
	return nil
}

// runStep runs cmd and converts a failure into an *Error of kind.
func runStep(ctx context.Context, job Job, cmd platform.Command, kind Kind) error {
	job.Logger.WithField("cmd", cmd.String()).Debug("Running")
	status, err := job.Shell.Run(ctx, cmd)
	if err != nil {
		return &Error{Kind: kind, Tool: job.Tool.Name, Err: err}
	}
	if !status.Success() {
		return &Error{Kind: kind, Tool: job.Tool.Name, Err: exitError(cmd, status)}
	}
	return nil
}

func exitError(cmd platform.Command, status platform.Status) error {
	out := strings.TrimSpace(string(status.Output))
	if out == "" {
		return fmt.Errorf("%q exited with status %d", cmd.String(), status.Code)
	}
	return fmt.Errorf("%q exited with status %d\nOutput: %s", cmd.String(), status.Code, out)
}
