// Package load turns a project manifest into an installed namespace of
// tools.
package load

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grovetools/zzz/pkg/depcache"
	"github.com/grovetools/zzz/pkg/depsgraph"
	"github.com/grovetools/zzz/pkg/install"
	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/grovetools/zzz/pkg/namespace"
	"github.com/grovetools/zzz/pkg/platform"
	"github.com/grovetools/zzz/pkg/resolve"
	"github.com/grovetools/zzz/pkg/state"
	"github.com/grovetools/zzz/pkg/telemetry"
	"github.com/sirupsen/logrus"
)

var (
	// ErrManifestInvalid wraps manifest.ErrNotFound or manifest.ErrInvalid.
	ErrManifestInvalid = errors.New("manifest invalid")
	// ErrCacheUnavailable wraps depcache.ErrNotFound.
	ErrCacheUnavailable = errors.New("dependency cache unavailable")
	// ErrAborted means the user declined a confirmation. Nothing was persisted.
	ErrAborted = errors.New("aborted")
)

// ContinuePrompt is asked before installing and after a failed install.
const ContinuePrompt = "Do you want to continue?"

// Options controls a single load.
type Options struct {
	// Force skips every confirmation.
	Force bool
	// Verbose asks reporters for more detail.
	Verbose bool
	// Clean ignores IS_LOADED and reinstalls the closure.
	Clean bool
	// Transitive resolves requirements of requirements.
	Transitive bool
	// RetryFailed reinstalls only the tools whose last install failed.
	RetryFailed bool
	// Jobs is the number of concurrent installs. Zero or one is sequential.
	Jobs int
	// Timeout bounds each package install. Zero uses install.DefaultTimeout.
	Timeout time.Duration
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// Reporter receives progress of a load for display.
type Reporter interface {
	// Plan is called with the declared tools before anything is installed.
	Plan(project string, declared []manifest.Tool)
	// Skipped is called for a declared tool with no cache entry. suggestion
	// is the closest cached name, or empty.
	Skipped(tool manifest.Tool, suggestion string)
	Started(tool manifest.Tool)
	Finished(outcome install.Outcome)
	Warn(msg string)
}

// Result describes a completed load.
type Result struct {
	Namespace uint64
	// Dir is the namespace directory to expose on PATH.
	Dir string
	// Tools names the tools installed by this load. Empty on the fast path.
	Tools []string
	// Failed holds the installs that did not succeed.
	Failed []install.Outcome
	// Missing lists declared tools skipped for lack of a cache entry.
	Missing []manifest.Tool
	// FastPath is set when the project was already loaded and nothing ran.
	FastPath bool
	RunID    string
}

// Config wires an Orchestrator to its collaborators. Only Layout is
// required.
type Config struct {
	Layout    namespace.Layout
	Shell     platform.Shell
	Logger    *logrus.Logger
	Telemetry *telemetry.Telemetry
	// State records per-package outcomes when set.
	State *state.Store
	// Confirmer is consulted unless Options.Force. Nil always confirms.
	Confirmer Confirmer
	Reporter  Reporter
}

// Orchestrator runs loads.
type Orchestrator struct {
	layout    namespace.Layout
	shell     platform.Shell
	logger    *logrus.Logger
	telemetry *telemetry.Telemetry
	state     *state.Store
	confirmer Confirmer
	reporter  Reporter

	// mu serializes manifest writes.
	mu sync.Mutex
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		layout:    cfg.Layout,
		shell:     cfg.Shell,
		logger:    cfg.Logger,
		telemetry: cfg.Telemetry,
		state:     cfg.State,
		confirmer: cfg.Confirmer,
		reporter:  cfg.Reporter,
	}
	if o.shell == nil {
		o.shell = platform.Default()
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}
	if o.reporter == nil {
		o.reporter = NopReporter{}
	}
	return o
}

// Load installs the closure of the manifest at path into its namespace and
// marks the project loaded. Individual install failures are reported in
// Result.Failed and do not fail the load.
func (o *Orchestrator) Load(ctx context.Context, path string, opts Options) (*Result, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}

	id := m.Identity()
	ns := namespace.Hash(id)
	res := &Result{
		Namespace: ns,
		Dir:       o.layout.Bins(ns),
		Tools:     []string{},
		RunID:     uuid.NewString(),
	}
	log := o.logger.WithFields(logrus.Fields{
		"project":   m.Project.Name,
		"namespace": namespace.Format(ns),
		"run":       res.RunID,
	})

	if m.Project.IsLoaded && !opts.Clean && !opts.RetryFailed {
		log.Debug("Project already loaded")
		res.FastPath = true
		return res, nil
	}

	ctx, span := o.telemetry.StartLoad(ctx, m.Project.Name, res.RunID, namespace.Format(ns))
	err = o.run(ctx, log, m, path, opts, res)
	o.telemetry.EndLoad(ctx, span, len(res.Tools), len(res.Failed), err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, log *logrus.Entry, m *manifest.Manifest, path string, opts Options, res *Result) error {
	declared := m.Tools()
	o.reporter.Plan(m.Project.Name, declared)

	if ok, err := o.confirm(opts); err != nil {
		return err
	} else if !ok {
		return ErrAborted
	}

	cache, err := depcache.Load(o.layout.CacheFile())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}

	o.checkIdentity(log, m.Identity())

	closure, err := resolve.Resolve(declared, cache, resolve.Options{Transitive: opts.Transitive, Logger: o.logger})
	if err != nil {
		return err
	}
	res.Missing = closure.Missing
	for _, tool := range closure.Missing {
		suggestion, _ := cache.Suggest(tool.Name)
		o.reporter.Skipped(tool, suggestion)
	}

	batches := [][]manifest.Tool{closure.Tools}
	if opts.Transitive {
		batches = closure.Levels
	}
	if opts.RetryFailed {
		batches, err = o.onlyFailed(ctx, res.Namespace, batches, closure.Graph)
		if err != nil {
			return err
		}
	}

	installer := install.New(o.layout, o.shell, install.Options{
		Timeout:   opts.Timeout,
		Logger:    o.logger,
		Telemetry: o.telemetry,
	})

	record := func(out install.Outcome) {
		o.record(ctx, log, res, out)
		o.reporter.Finished(out)
	}

	for _, batch := range batches {
		if opts.Jobs > 1 {
			for _, tool := range batch {
				o.reporter.Started(tool)
			}
			installer.InstallAll(ctx, batch, res.Namespace, opts.Jobs, record)
		} else {
			for _, tool := range batch {
				if err := ctx.Err(); err != nil {
					return err
				}
				o.reporter.Started(tool)
				start := time.Now()
				err := installer.Install(ctx, tool, res.Namespace)
				record(install.Outcome{Tool: tool, Err: err, Duration: time.Since(start)})

				if err != nil && ctx.Err() == nil {
					ok, cerr := o.confirm(opts)
					if cerr != nil {
						return cerr
					}
					if !ok {
						return ErrAborted
					}
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	// Partial failures still mark the project loaded; the state store keeps
	// what failed for --retry-failed.
	m.Project.IsLoaded = true
	if err := o.save(m, path); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"installed": len(res.Tools),
		"failed":    len(res.Failed),
		"missing":   len(res.Missing),
	}).Debug("Load finished")
	return nil
}

func (o *Orchestrator) confirm(opts Options) (bool, error) {
	if opts.Force || o.confirmer == nil {
		return true, nil
	}
	return o.confirmer.Confirm(ContinuePrompt)
}

// checkIdentity warns when another identity already owns the namespace.
func (o *Orchestrator) checkIdentity(log *logrus.Entry, id manifest.Identity) {
	owner, ok, err := o.layout.CheckIdentity(id)
	if err != nil {
		log.WithError(err).Warn("Could not verify namespace owner")
		return
	}
	if !ok {
		o.reporter.Warn(fmt.Sprintf("namespace %s is shared with project %q version %s",
			namespace.Format(namespace.Hash(id)), owner.Name, owner.Version))
	}
}

// onlyFailed keeps the tools whose last recorded install failed, ordered
// requirements first within the closure graph.
func (o *Orchestrator) onlyFailed(ctx context.Context, ns uint64, batches [][]manifest.Tool, graph *depsgraph.Graph) ([][]manifest.Tool, error) {
	if o.state == nil {
		return batches, nil
	}
	entries, err := o.state.Failed(ctx, ns)
	if err != nil {
		return nil, err
	}
	failed := make(map[string]bool, len(entries))
	for _, e := range entries {
		failed[e.Tool.Name] = true
	}

	byName := make(map[string]manifest.Tool)
	var keep []manifest.Tool
	for _, batch := range batches {
		for _, tool := range batch {
			if failed[tool.Name] {
				byName[tool.Name] = tool
				keep = append(keep, tool)
			}
		}
	}
	if len(keep) == 0 {
		return nil, nil
	}
	if graph == nil {
		return [][]manifest.Tool{keep}, nil
	}

	subset := make(map[string]bool, len(keep))
	var loose []manifest.Tool
	for _, tool := range keep {
		if _, ok := graph.GetNode(tool.Name); ok {
			subset[tool.Name] = true
		} else {
			loose = append(loose, tool)
		}
	}
	levels, err := graph.TopologicalSortWithFilter(subset)
	if err != nil {
		return [][]manifest.Tool{keep}, nil
	}

	var out [][]manifest.Tool
	for _, level := range levels {
		batch := make([]manifest.Tool, 0, len(level))
		for _, name := range level {
			batch = append(batch, byName[name])
		}
		out = append(out, batch)
	}
	if len(loose) > 0 {
		out = append(out, loose)
	}
	return out, nil
}

// record stores one outcome in res and in the state store. It is never
// called concurrently.
func (o *Orchestrator) record(ctx context.Context, log *logrus.Entry, res *Result, out install.Outcome) {
	entry := state.Entry{
		Namespace: res.Namespace,
		Tool:      out.Tool,
		Status:    state.StatusInstalled,
		RunID:     res.RunID,
	}
	if out.Err != nil {
		res.Failed = append(res.Failed, out)
		entry.Status = state.StatusFailed
		entry.Kind = string(install.KindOf(out.Err))
		entry.Error = out.Err.Error()
	} else {
		res.Tools = append(res.Tools, out.Tool.Name)
	}

	if o.state == nil {
		return
	}
	if err := o.state.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.WithError(err).WithField("tool", out.Tool.Name).Warn("Failed to record install status")
	}
}

func (o *Orchestrator) save(m *manifest.Manifest, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := m.Save(path); err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}
	return nil
}

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) Plan(string, []manifest.Tool)  {}
func (NopReporter) Skipped(manifest.Tool, string) {}
func (NopReporter) Started(manifest.Tool)         {}
func (NopReporter) Finished(install.Outcome)      {}
func (NopReporter) Warn(string)                   {}
