package load

import (
	"context"
	"fmt"

	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/grovetools/zzz/pkg/namespace"
	"github.com/grovetools/zzz/pkg/state"
)

// Forget removes the project's namespace and recorded statuses, and clears
// IS_LOADED so the next load installs from scratch.
func (o *Orchestrator) Forget(ctx context.Context, path string) (uint64, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}
	ns := namespace.Hash(m.Identity())

	if err := o.layout.Remove(ns); err != nil {
		return ns, err
	}
	if o.state != nil {
		if err := o.state.Forget(ctx, ns); err != nil {
			return ns, err
		}
	}

	if m.Project.IsLoaded {
		m.Project.IsLoaded = false
		if err := o.save(m, path); err != nil {
			return ns, err
		}
	}
	o.logger.WithField("namespace", namespace.Format(ns)).Debug("Forgot namespace")
	return ns, nil
}

// Status is the recorded install state of one project.
type Status struct {
	Project   string        `json:"project"`
	Namespace uint64        `json:"namespace,string"`
	Dir       string        `json:"dir"`
	Loaded    bool          `json:"loaded"`
	Installed []string      `json:"installed"`
	Entries   []state.Entry `json:"entries"`
}

// Status reports what is on disk and in the state store for the project.
func (o *Orchestrator) Status(ctx context.Context, path string) (*Status, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}
	ns := namespace.Hash(m.Identity())

	installed, err := o.layout.Installed(ns)
	if err != nil {
		return nil, err
	}
	st := &Status{
		Project:   m.Project.Name,
		Namespace: ns,
		Dir:       o.layout.Bins(ns),
		Loaded:    m.Project.IsLoaded,
		Installed: installed,
		Entries:   []state.Entry{},
	}
	if st.Installed == nil {
		st.Installed = []string{}
	}
	if o.state != nil {
		entries, err := o.state.List(ctx, ns)
		if err != nil {
			return nil, err
		}
		if entries != nil {
			st.Entries = entries
		}
	}
	return st, nil
}
