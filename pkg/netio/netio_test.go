package netio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sewerflow/sewerflow/pkg/geom"
	"github.com/sewerflow/sewerflow/pkg/network"
)

func sampleGraph(t *testing.T) *network.Graph {
	t.Helper()
	g := network.New()
	g.AddNode(network.Node{ID: 1, ObjID: "wn_1", Kind: "wastewater_node", Point: geom.Point{X: 0, Y: 0}, HasPoint: true})
	g.AddNode(network.Node{ID: 2, ObjID: "wn_2", Kind: "wastewater_node", Point: geom.Point{X: 10, Y: 0}, HasPoint: true})
	g.AddNode(network.Node{ID: 3, ObjID: "wn_3", Kind: "manhole"})
	if err := g.AddEdge(network.Edge{From: 1, To: 2, Weight: 10, FeatureID: 101, ObjID: "re_1", Kind: "reach"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(network.Edge{From: 2, To: 3, Weight: 7.5, FeatureID: 102, ObjID: "re_2", Kind: "reach"}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestRoundTrip(t *testing.T) {
	g := sampleGraph(t)

	var buf bytes.Buffer
	if err := WriteJSON(g, "snap-1", &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	got, snapshotID, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if snapshotID != "snap-1" {
		t.Errorf("snapshot id = %q", snapshotID)
	}
	if got.NodeCount() != 3 || got.EdgeCount() != 2 {
		t.Fatalf("graph = %d/%d, want 3/2", got.NodeCount(), got.EdgeCount())
	}

	n, ok := got.Node(1)
	if !ok || !n.HasPoint || n.Point.X != 0 {
		t.Errorf("node 1 = %+v", n)
	}
	n, _ = got.Node(3)
	if n.HasPoint {
		t.Error("node 3 should have no point")
	}

	e, ok := got.Edge(2, 3)
	if !ok || e.Weight != 7.5 || e.ObjID != "re_2" {
		t.Errorf("edge (2,3) = %+v", e)
	}
	if id, ok := got.NodeByObjID("wn_2"); !ok || id != 2 {
		t.Error("object-id index not rebuilt on import")
	}
}

func TestWriteJSONDeterministic(t *testing.T) {
	g := sampleGraph(t)

	var a, b bytes.Buffer
	if err := WriteJSON(g, "s", &a); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSON(g, "s", &b); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Error("two exports of the same graph differ")
	}

	// Node order is by id.
	first := strings.Index(a.String(), `"obj_id": "wn_1"`)
	second := strings.Index(a.String(), `"obj_id": "wn_2"`)
	if first == -1 || second == -1 || first > second {
		t.Errorf("node ordering wrong in:\n%s", a.String())
	}
}

func TestReadJSONRejectsBadEdges(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "UnknownEndpoint",
			doc:  `{"nodes":[{"id":1}],"edges":[{"from":1,"to":99,"weight":1}]}`,
		},
		{
			name: "NegativeWeight",
			doc:  `{"nodes":[{"id":1},{"id":2}],"edges":[{"from":1,"to":2,"weight":-1}]}`,
		},
		{
			name: "Malformed",
			doc:  `{"nodes": [`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ReadJSON(strings.NewReader(tt.doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestExportImportFile(t *testing.T) {
	g := sampleGraph(t)
	path := filepath.Join(t.TempDir(), "network.json")

	if err := ExportJSON(g, "snap-file", path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, snapshotID, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if snapshotID != "snap-file" || got.NodeCount() != 3 {
		t.Errorf("imported %d nodes, snapshot %q", got.NodeCount(), snapshotID)
	}

	if _, _, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
