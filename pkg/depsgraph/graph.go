package depsgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grovetools/zzz/pkg/manifest"
)

// Node represents a tool in the dependency graph
type Node struct {
	Name     string        // Tool name, the graph key
	Tool     manifest.Tool // Descriptor used to install it
	Declared bool          // Listed directly in the project manifest
	Known    bool          // Has an entry of its own in the dependency cache
}

// Edge is a directed "From requires To" relation.
type Edge struct {
	From string
	To   string
}

// Graph represents the dependency graph of a project's tools
type Graph struct {
	nodes    map[string]*Node    // Key is tool name
	edges    map[string][]string // Adjacency list: tool -> requirements
	revEdges map[string][]string // Reverse edges: tool -> dependents
}

// NewGraph creates a new dependency graph
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		edges:    make(map[string][]string),
		revEdges: make(map[string][]string),
	}
}

// AddNode adds a node to the graph, keeping flags already set on an existing node
func (g *Graph) AddNode(node *Node) {
	if existing, ok := g.nodes[node.Name]; ok {
		existing.Declared = existing.Declared || node.Declared
		existing.Known = existing.Known || node.Known
		return
	}
	g.nodes[node.Name] = node
}

// AddEdge adds a directed edge from 'from' to 'to' (from requires to).
// Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	for _, existing := range g.edges[from] {
		if existing == to {
			return
		}
	}
	g.edges[from] = append(g.edges[from], to)
	g.revEdges[to] = append(g.revEdges[to], from)
}

// GetNode returns a node by name
func (g *Graph) GetNode(name string) (*Node, bool) {
	node, exists := g.nodes[name]
	return node, exists
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// TopologicalSort performs a topological sort of the graph using Kahn's algorithm
// Returns tools grouped by levels that can be installed in parallel, requirements first
func (g *Graph) TopologicalSort() ([][]string, error) {
	return g.TopologicalSortWithFilter(nil)
}

// TopologicalSortWithFilter performs a topological sort on a subset of nodes
// If nodesToConsider is nil, sorts the entire graph
// If nodesToConsider is provided, only considers requirements within that set
func (g *Graph) TopologicalSortWithFilter(nodesToConsider map[string]bool) ([][]string, error) {
	var nodesToProcess map[string]bool
	if nodesToConsider == nil {
		nodesToProcess = make(map[string]bool)
		for name := range g.nodes {
			nodesToProcess[name] = true
		}
	} else {
		nodesToProcess = nodesToConsider
	}

	if len(nodesToProcess) == 0 {
		return [][]string{}, nil
	}

	// In-degree is the number of unmet requirements within the considered set
	inDegree := make(map[string]int)
	for name := range nodesToProcess {
		count := 0
		for _, dep := range g.edges[name] {
			if nodesToProcess[dep] {
				count++
			}
		}
		inDegree[name] = count
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}

	var result [][]string
	processed := 0

	for len(queue) > 0 {
		currentLevel := make([]string, len(queue))
		copy(currentLevel, queue)
		sort.Strings(currentLevel)
		result = append(result, currentLevel)
		processed += len(currentLevel)

		var nextQueue []string
		for _, node := range queue {
			for _, dep := range g.revEdges[node] {
				if nodesToProcess[dep] {
					inDegree[dep]--
					if inDegree[dep] == 0 {
						nextQueue = append(nextQueue, dep)
					}
				}
			}
		}
		queue = nextQueue
	}

	if processed != len(nodesToProcess) {
		var cycleNodes []string
		for name, degree := range inDegree {
			if degree > 0 {
				cycleNodes = append(cycleNodes, name)
			}
		}
		sort.Strings(cycleNodes)
		return nil, &CycleError{Nodes: cycleNodes}
	}

	return result, nil
}

// CycleError reports the tools left unsorted because they require each other.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected among tools: [%s]", strings.Join(e.Nodes, ", "))
}

// GetDependencies returns the direct requirements of a tool
func (g *Graph) GetDependencies(name string) []string {
	return g.edges[name]
}

// GetDependents returns the tools that require the given tool
func (g *Graph) GetDependents(name string) []string {
	return g.revEdges[name]
}

// Nodes returns all nodes sorted by name
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes
}

// Edges returns all edges sorted by source, then target
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for from, tos := range g.edges {
		for _, to := range tos {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}
