package netio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sewerflow/sewerflow/pkg/geom"
	"github.com/sewerflow/sewerflow/pkg/network"
)

type graphDoc struct {
	SnapshotID string `json:"snapshot_id,omitempty" bson:"snapshot_id,omitempty"`
	Nodes      []node `json:"nodes" bson:"nodes"`
	Edges      []edge `json:"edges" bson:"edges"`
}

type node struct {
	ID    int64       `json:"id" bson:"id"`
	ObjID string      `json:"obj_id,omitempty" bson:"obj_id,omitempty"`
	Kind  string      `json:"kind,omitempty" bson:"kind,omitempty"`
	Point *geom.Point `json:"point,omitempty" bson:"point,omitempty"`
}

type edge struct {
	From      int64   `json:"from" bson:"from"`
	To        int64   `json:"to" bson:"to"`
	Weight    float64 `json:"weight" bson:"weight"`
	FeatureID int64   `json:"feature_id,omitempty" bson:"feature_id,omitempty"`
	ObjID     string  `json:"obj_id,omitempty" bson:"obj_id,omitempty"`
	Kind      string  `json:"kind,omitempty" bson:"kind,omitempty"`
}

// WriteJSON encodes a graph snapshot as JSON and writes it to w.
// Nodes are emitted in ascending id order and edges sorted by (from, to),
// so the same graph always serializes to the same bytes. The output can be
// re-imported with [ReadJSON].
func WriteJSON(g *network.Graph, snapshotID string, w io.Writer) error {
	out := graphDoc{
		SnapshotID: snapshotID,
		Nodes:      make([]node, 0, g.NodeCount()),
		Edges:      make([]edge, 0, g.EdgeCount()),
	}

	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)
		nd := node{ID: n.ID, ObjID: n.ObjID, Kind: n.Kind}
		if n.HasPoint {
			pt := n.Point
			nd.Point = &pt
		}
		out.Nodes = append(out.Nodes, nd)
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, edge{
			From:      e.From,
			To:        e.To,
			Weight:    e.Weight,
			FeatureID: e.FeatureID,
			ObjID:     e.ObjID,
			Kind:      e.Kind,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a graph snapshot to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(g *network.Graph, snapshotID, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, snapshotID, f)
}
