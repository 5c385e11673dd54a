package install

import (
	"context"
	"sync"
	"time"

	"github.com/grovetools/zzz/pkg/manifest"
	"golang.org/x/sync/errgroup"
)

// Outcome is the result of installing one tool.
type Outcome struct {
	Tool     manifest.Tool
	Err      error
	Duration time.Duration
}

// InstallAll installs tools concurrently with at most jobs in flight.
// Failures are collected and never cancel sibling installs. Outcomes are
// returned in the order of tools; onDone, if set, is called as each
// install finishes and is never called concurrently.
func (i *Installer) InstallAll(ctx context.Context, tools []manifest.Tool, ns uint64, jobs int, onDone func(Outcome)) []Outcome {
	if jobs <= 0 {
		jobs = 1
	}

	outcomes := make([]Outcome, len(tools))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(jobs)
	for idx, tool := range tools {
		g.Go(func() error {
			start := time.Now()
			err := i.Install(ctx, tool, ns)
			out := Outcome{Tool: tool, Err: err, Duration: time.Since(start)}
			outcomes[idx] = out

			if onDone != nil {
				mu.Lock()
				onDone(out)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	return outcomes
}
