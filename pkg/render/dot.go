// Package render draws a project's dependency closure as a Graphviz graph.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/grovetools/zzz/pkg/depsgraph"
)

// Options configures DOT output.
type Options struct {
	// Title labels the graph, usually the project name.
	Title string
	// Detailed adds the install method to each node label.
	Detailed bool
}

// ToDOT converts a closure graph to Graphviz DOT. Declared tools are drawn
// bold, tools without a cache entry of their own are dashed.
func ToDOT(g *depsgraph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph zzz {\n")
	buf.WriteString("  rankdir=LR;\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", opts.Title)
		buf.WriteString("  labelloc=t;\n")
	}
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Name, strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *depsgraph.Node, detailed bool) []string {
	label := n.Name
	if detailed && n.Tool.Method != "" {
		label += "\n" + string(n.Tool.Method)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}

	switch {
	case n.Declared:
		attrs = append(attrs, "penwidth=2")
	case !n.Known:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
