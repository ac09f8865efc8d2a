package render

import (
	"strings"
	"testing"

	"github.com/sewerflow/sewerflow/pkg/geom"
	"github.com/sewerflow/sewerflow/pkg/network"
)

func sampleGraph(t *testing.T) *network.Graph {
	t.Helper()
	g := network.New()
	g.AddNode(network.Node{ID: 1, ObjID: "wn_1", Kind: "wastewater_node", Point: geom.Point{}, HasPoint: true})
	g.AddNode(network.Node{ID: 2, ObjID: "wn_2", Kind: "wastewater_node", Point: geom.Point{X: 10}, HasPoint: true})
	g.AddNode(network.Node{ID: 3, ObjID: "wn_3", Kind: "manhole"})
	if err := g.AddEdge(network.Edge{From: 1, To: 2, Weight: 10, ObjID: "re_1"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(network.Edge{From: 2, To: 3, Weight: 7.5, ObjID: "re_2"}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{})

	for _, want := range []string{
		"digraph network {",
		`1 [label="wn_1"]`,
		"1 -> 2;",
		"2 -> 3;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	// Node without geometry is drawn dashed.
	if !strings.Contains(dot, "fillcolor=lightgrey") {
		t.Errorf("geometry-less node not marked:\n%s", dot)
	}

	// Deterministic output.
	if dot != ToDOT(sampleGraph(t), Options{}) {
		t.Error("two renders of the same graph differ")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{Detailed: true})

	if !strings.Contains(dot, "re_1 (10.0)") {
		t.Errorf("edge label missing:\n%s", dot)
	}
	if !strings.Contains(dot, "wn_1\\nwastewater_node") {
		t.Errorf("node kind missing:\n%s", dot)
	}
}

func TestToDOTHighlight(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{Highlight: []int64{1, 2}})

	if !strings.Contains(dot, "fillcolor=gold") {
		t.Errorf("highlight missing:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(ToDOT(sampleGraph(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("output does not look like SVG: %.80s", svg)
	}
}

func TestRenderSVGBadDOT(t *testing.T) {
	if _, err := RenderSVG("digraph {"); err == nil {
		t.Error("expected an error for malformed DOT")
	}
}
