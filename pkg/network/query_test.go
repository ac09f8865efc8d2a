package network

import (
	"errors"
	"testing"
)

// buildGraph creates a graph from node ids and weighted edges.
func buildGraph(t *testing.T, nodes []int64, edges []Edge) *Graph {
	t.Helper()
	g := New()
	for _, id := range nodes {
		g.AddNode(Node{ID: id, ObjID: objID(id)})
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%+v): %v", e, err)
		}
	}
	return g
}

func objID(id int64) string {
	return string(rune('a' + id - 1))
}

func TestShortestPath(t *testing.T) {
	tests := []struct {
		name       string
		nodes      []int64
		edges      []Edge
		start, end int64
		wantPath   []int64
		wantWeight float64
	}{
		{
			name:     "SameNode",
			nodes:    []int64{1},
			start:    1,
			end:      1,
			wantPath: []int64{1},
		},
		{
			name:  "PrefersLowerTotalWeight",
			nodes: []int64{1, 2, 3},
			edges: []Edge{
				{From: 1, To: 2, Weight: 2}, // direct A->B
				{From: 1, To: 3, Weight: 1}, // A->C
				{From: 3, To: 2, Weight: 1}, // C->B
			},
			start:      1,
			end:        2,
			wantPath:   []int64{1, 3, 2},
			wantWeight: 2,
		},
		{
			name:  "Chain",
			nodes: []int64{1, 2, 3, 4},
			edges: []Edge{
				{From: 1, To: 2, Weight: 1},
				{From: 2, To: 3, Weight: 1},
				{From: 3, To: 4, Weight: 1},
			},
			start:      1,
			end:        4,
			wantPath:   []int64{1, 2, 3, 4},
			wantWeight: 3,
		},
		{
			name:  "NoPath",
			nodes: []int64{1, 2, 3},
			edges: []Edge{
				{From: 2, To: 1, Weight: 1}, // only wrong direction
			},
			start:    1,
			end:      2,
			wantPath: []int64{},
		},
		{
			name:  "DirectionalityRespected",
			nodes: []int64{1, 2},
			edges: []Edge{
				{From: 2, To: 1, Weight: 1},
			},
			start:    1,
			end:      2,
			wantPath: []int64{},
		},
		{
			name:  "EqualWeightTieIsStable",
			nodes: []int64{1, 2, 3, 4},
			edges: []Edge{
				{From: 1, To: 2, Weight: 1},
				{From: 1, To: 3, Weight: 1},
				{From: 2, To: 4, Weight: 1},
				{From: 3, To: 4, Weight: 1},
			},
			start:      1,
			end:        4,
			wantPath:   []int64{1, 2, 4}, // lowest predecessor id wins
			wantWeight: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, tt.nodes, tt.edges)

			got, err := g.ShortestPath(tt.start, tt.end)
			if err != nil {
				t.Fatalf("ShortestPath: %v", err)
			}

			if len(got.Nodes) != len(tt.wantPath) {
				t.Fatalf("path = %v, want %v", got.Nodes, tt.wantPath)
			}
			for i := range tt.wantPath {
				if got.Nodes[i] != tt.wantPath[i] {
					t.Fatalf("path = %v, want %v", got.Nodes, tt.wantPath)
				}
			}

			if len(tt.wantPath) > 0 {
				if wantEdges := len(tt.wantPath) - 1; len(got.Edges) != wantEdges {
					t.Errorf("edges = %d, want %d", len(got.Edges), wantEdges)
				}
				if got.TotalWeight() != tt.wantWeight {
					t.Errorf("TotalWeight = %v, want %v", got.TotalWeight(), tt.wantWeight)
				}
			} else {
				if !got.Empty() {
					t.Error("expected empty result")
				}
				if len(got.Edges) != 0 {
					t.Errorf("no-path edges = %v, want empty", got.Edges)
				}
			}
		})
	}
}

func TestShortestPathUnknownNode(t *testing.T) {
	g := buildGraph(t, []int64{1}, nil)

	if _, err := g.ShortestPath(1, 99); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
	if _, err := g.ShortestPath(99, 1); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
}

func TestShortestPathDeterministic(t *testing.T) {
	g := buildGraph(t, []int64{1, 2, 3, 4, 5},
		[]Edge{
			{From: 1, To: 2, Weight: 1},
			{From: 1, To: 3, Weight: 1},
			{From: 2, To: 5, Weight: 1},
			{From: 3, To: 5, Weight: 1},
			{From: 1, To: 4, Weight: 1},
			{From: 4, To: 5, Weight: 1},
		})

	first, err := g.ShortestPath(1, 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := g.ShortestPath(1, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(again.Nodes) != len(first.Nodes) {
			t.Fatalf("run %d: path %v differs from %v", i, again.Nodes, first.Nodes)
		}
		for j := range first.Nodes {
			if again.Nodes[j] != first.Nodes[j] {
				t.Fatalf("run %d: path %v differs from %v", i, again.Nodes, first.Nodes)
			}
		}
	}
}

func TestTreeDownstream(t *testing.T) {
	// A(1) -> B(2) -> C(3), plus disconnected D(4).
	g := buildGraph(t, []int64{1, 2, 3, 4},
		[]Edge{
			{From: 1, To: 2, Weight: 1, ObjID: "r1"},
			{From: 2, To: 3, Weight: 1, ObjID: "r2"},
		})

	tree, err := g.Tree(1, false)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}

	if len(tree.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3 (disconnected node excluded)", len(tree.Nodes))
	}
	for _, n := range tree.Nodes {
		if n.ID == 4 {
			t.Error("unreachable node included")
		}
	}

	if len(tree.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(tree.Edges))
	}
	if tree.Edges[0].From != 1 || tree.Edges[0].To != 2 {
		t.Errorf("edges[0] = (%d,%d), want (1,2)", tree.Edges[0].From, tree.Edges[0].To)
	}
	if tree.Edges[1].From != 2 || tree.Edges[1].To != 3 {
		t.Errorf("edges[1] = (%d,%d), want (2,3)", tree.Edges[1].From, tree.Edges[1].To)
	}
}

func TestTreeUpstream(t *testing.T) {
	// A(1) -> B(2) -> C(3); upstream from C reaches B and A, with edges
	// still expressed in the original direction.
	g := buildGraph(t, []int64{1, 2, 3},
		[]Edge{
			{From: 1, To: 2, Weight: 1, ObjID: "r1"},
			{From: 2, To: 3, Weight: 1, ObjID: "r2"},
		})

	tree, err := g.Tree(3, true)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}

	if len(tree.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(tree.Nodes))
	}
	if len(tree.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(tree.Edges))
	}
	for _, e := range tree.Edges {
		switch e.ObjID {
		case "r1":
			if e.From != 1 || e.To != 2 {
				t.Errorf("r1 = (%d,%d), want original orientation (1,2)", e.From, e.To)
			}
		case "r2":
			if e.From != 2 || e.To != 3 {
				t.Errorf("r2 = (%d,%d), want original orientation (2,3)", e.From, e.To)
			}
		default:
			t.Errorf("unexpected edge %+v", e)
		}
	}
}

func TestTreeSourceOnly(t *testing.T) {
	g := buildGraph(t, []int64{1, 2}, []Edge{{From: 2, To: 1, Weight: 1}})

	tree, err := g.Tree(1, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Nodes) != 1 || tree.Nodes[0].ID != 1 {
		t.Errorf("nodes = %+v, want only the source", tree.Nodes)
	}
	if len(tree.Edges) != 0 {
		t.Errorf("edges = %+v, want none", tree.Edges)
	}
}

func TestTreeSelfLoop(t *testing.T) {
	g := buildGraph(t, []int64{1, 2}, []Edge{
		{From: 1, To: 1, Weight: 0},
		{From: 1, To: 2, Weight: 1},
	})

	tree, err := g.Tree(1, false)
	if err != nil {
		t.Fatal(err)
	}
	// The self-loop contributes no predecessor edge for the source.
	if len(tree.Edges) != 1 {
		t.Fatalf("edges = %+v, want only 1->2", tree.Edges)
	}
	if tree.Edges[0].To != 2 {
		t.Errorf("edge = %+v", tree.Edges[0])
	}
}

func TestTreeSelfLoopOnReachedNode(t *testing.T) {
	// A zero-weight self-loop on a reached node ties with that node's
	// real distance; it must not win the tie and replace the real
	// predecessor edge.
	g := buildGraph(t, []int64{1, 5}, []Edge{
		{From: 5, To: 1, Weight: 1, ObjID: "real"},
		{From: 1, To: 1, Weight: 0, ObjID: "loop"},
	})

	tree, err := g.Tree(5, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Edges) != 1 || tree.Edges[0].From != 5 || tree.Edges[0].To != 1 {
		t.Fatalf("edges = %+v, want only the edge 5 -> 1", tree.Edges)
	}
	if tree.Edges[0].ObjID != "real" {
		t.Errorf("predecessor edge = %q, want %q", tree.Edges[0].ObjID, "real")
	}

	// Same property on the reversed view.
	tree, err = g.Tree(1, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Edges) != 1 || tree.Edges[0].ObjID != "real" {
		t.Fatalf("reversed edges = %+v, want only the original edge 5 -> 1", tree.Edges)
	}
}

func TestTreeUnknownNode(t *testing.T) {
	g := buildGraph(t, []int64{1}, nil)
	if _, err := g.Tree(42, false); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
}
