// Package resolve expands a project's declared tools into the closure of
// tools to install.
package resolve

import (
	"errors"
	"fmt"

	"github.com/grovetools/zzz/pkg/depsgraph"
	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/sirupsen/logrus"
)

// ErrCycle is returned in transitive mode when cache entries require each other.
var ErrCycle = errors.New("closure cannot be ordered")

// Lookuper finds the cache entry for a tool.
type Lookuper = depsgraph.Lookuper

// Options controls closure expansion.
type Options struct {
	// Transitive follows requirements of requirements to a fixed point.
	// The default expands each declared tool exactly one level.
	Transitive bool
	Logger     *logrus.Logger
}

// Result is a resolved closure.
type Result struct {
	// Tools is sorted by name, link and method, without duplicates.
	Tools []manifest.Tool
	// Missing lists declared tools that had no cache entry and were skipped.
	Missing []manifest.Tool
	// Levels groups Tools requirements-first. Only set in transitive mode.
	Levels [][]manifest.Tool
	// Graph holds the requirement edges that produced Tools.
	Graph *depsgraph.Graph
}

// Resolve computes the closure of declared against cache.
func Resolve(declared []manifest.Tool, cache Lookuper, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	graph, missing := depsgraph.NewBuilder(cache, logger).Build(declared, opts.Transitive)

	if !opts.Transitive {
		return &Result{
			Tools:   shallow(declared, cache),
			Missing: missing,
			Graph:   graph,
		}, nil
	}

	levels, err := graph.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}

	res := &Result{Missing: missing, Graph: graph}
	for _, level := range levels {
		tools := make([]manifest.Tool, 0, len(level))
		for _, name := range level {
			node, _ := graph.GetNode(name)
			tools = append(tools, node.Tool)
		}
		res.Levels = append(res.Levels, tools)
		res.Tools = append(res.Tools, tools...)
	}
	res.Tools = sortDedup(res.Tools)

	logger.WithFields(logrus.Fields{
		"tools":  len(res.Tools),
		"levels": len(res.Levels),
	}).Debug("Resolved transitive closure")

	return res, nil
}

// shallow appends each found tool's requirements and then the tool itself,
// sorting and deduplicating the working list after every declared tool.
// A declared tool missing from the cache contributes nothing.
func shallow(declared []manifest.Tool, cache Lookuper) []manifest.Tool {
	var working []manifest.Tool
	for _, tool := range declared {
		entry, ok := cache.Lookup(tool)
		if !ok {
			continue
		}
		working = append(working, entry.Requires...)
		working = append(working, tool)
		working = sortDedup(working)
	}
	if working == nil {
		return []manifest.Tool{}
	}
	return working
}

func sortDedup(tools []manifest.Tool) []manifest.Tool {
	manifest.SortTools(tools)
	out := tools[:0]
	for _, t := range tools {
		if len(out) > 0 && t == out[len(out)-1] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Names returns the tool names of tools in order.
func Names(tools []manifest.Tool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}
