// Package render turns a network graph into Graphviz DOT text and SVG
// images for inspection and reporting.
//
// Rendering is meant for diagnostics, not cartography: node positions come
// from the Graphviz layout engine, not from the map geometry. Nodes carry
// their object id as label; reaches are drawn as directed edges annotated
// with their length.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/sewerflow/sewerflow/pkg/network"
)

// Options configures network diagram rendering.
type Options struct {
	// Detailed includes node kinds and edge weights in the labels.
	// When false, only object ids are shown.
	Detailed bool

	// Highlight marks the given node ids, typically a query result path.
	Highlight []int64
}

// ToDOT converts a graph to Graphviz DOT format. The output is
// deterministic: nodes appear in ascending id order and edges sorted by
// (from, to). Render the result with [RenderSVG].
func ToDOT(g *network.Graph, opts Options) string {
	marked := make(map[int64]bool, len(opts.Highlight))
	for _, id := range opts.Highlight {
		marked[id] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph network {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)
		attrs := nodeAttrs(*n, marked[id], opts.Detailed)
		fmt.Fprintf(&buf, "  %d [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if opts.Detailed {
			fmt.Fprintf(&buf, "  %d -> %d [label=%q];\n", e.From, e.To, fmt.Sprintf("%s (%.1f)", e.ObjID, e.Weight))
		} else {
			fmt.Fprintf(&buf, "  %d -> %d;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n network.Node, highlighted, detailed bool) []string {
	label := n.ObjID
	if label == "" {
		label = fmt.Sprintf("#%d", n.ID)
	}
	if detailed && n.Kind != "" {
		label += "\n" + n.Kind
	}

	attrs := []string{fmt.Sprintf("label=%q", label)}
	if highlighted {
		attrs = append(attrs, "fillcolor=gold", "penwidth=2")
	}
	if !n.HasPoint {
		// Records without geometry still show up, visibly different.
		attrs = append(attrs, "style=\"filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
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
