package depsgraph

import (
	"github.com/grovetools/zzz/pkg/depcache"
	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/sirupsen/logrus"
)

// Lookuper finds the cache entry for a tool.
type Lookuper interface {
	Lookup(tool manifest.Tool) (depcache.Entry, bool)
}

// Builder constructs a dependency graph by walking cache entries outward
// from a project's declared tools
type Builder struct {
	cache  Lookuper
	logger *logrus.Logger
}

// NewBuilder creates a new dependency graph builder
func NewBuilder(cache Lookuper, logger *logrus.Logger) *Builder {
	return &Builder{
		cache:  cache,
		logger: logger,
	}
}

// Build walks the cache breadth-first until no new tools appear. When
// transitive is false only the declared tools are expanded, one level deep.
// Declared tools without a cache entry are left out of the graph and
// returned as missing.
func (b *Builder) Build(declared []manifest.Tool, transitive bool) (*Graph, []manifest.Tool) {
	graph := NewGraph()
	var missing []manifest.Tool
	expanded := make(map[string]bool)

	var queue []manifest.Tool
	for _, tool := range declared {
		entry, ok := b.cache.Lookup(tool)
		if !ok {
			b.logger.WithField("tool", tool.Name).Warn("Tool not found in dependency cache, skipping")
			missing = append(missing, tool)
			continue
		}
		graph.AddNode(&Node{Name: tool.Name, Tool: tool, Declared: true, Known: true})
		expanded[tool.Name] = true
		for _, req := range entry.Requires {
			if _, seen := graph.GetNode(req.Name); !seen {
				queue = append(queue, req)
			}
			graph.AddNode(&Node{Name: req.Name, Tool: req})
			graph.AddEdge(tool.Name, req.Name)
		}
	}

	if !transitive {
		return graph, missing
	}

	for len(queue) > 0 {
		tool := queue[0]
		queue = queue[1:]
		if expanded[tool.Name] {
			continue
		}
		expanded[tool.Name] = true

		entry, ok := b.cache.Lookup(tool)
		if !ok {
			b.logger.WithField("tool", tool.Name).Debug("Requirement has no cache entry, treating as leaf")
			continue
		}
		if node, ok := graph.GetNode(tool.Name); ok {
			node.Known = true
		}
		for _, req := range entry.Requires {
			if _, seen := graph.GetNode(req.Name); !seen {
				graph.AddNode(&Node{Name: req.Name, Tool: req})
			}
			graph.AddEdge(tool.Name, req.Name)
			if !expanded[req.Name] {
				queue = append(queue, req)
			}
		}
	}

	return graph, missing
}
