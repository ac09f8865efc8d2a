package netio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sewerflow/sewerflow/pkg/network"
)

// ReadJSON decodes a JSON graph snapshot from r.
//
// The input must be a JSON object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [{"id": 1, "obj_id": "wn_1"}, {"id": 2, "obj_id": "wn_2"}],
//	  "edges": [{"from": 1, "to": 2, "weight": 12.5}]
//	}
//
// Each node needs an "id"; "obj_id", "kind" and "point" are optional. Each
// edge needs "from" and "to" referencing node ids, plus a non-negative
// "weight". An edge referencing an unknown node id or carrying a negative
// weight fails the import with context naming the offending record.
//
// The returned graph and snapshot id are independent of r; ReadJSON does
// not close r.
func ReadJSON(r io.Reader) (*network.Graph, string, error) {
	var data graphDoc
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, "", fmt.Errorf("decode: %w", err)
	}

	g := network.New()
	for _, n := range data.Nodes {
		node := network.Node{ID: n.ID, ObjID: n.ObjID, Kind: n.Kind}
		if n.Point != nil {
			node.Point = *n.Point
			node.HasPoint = true
		}
		g.AddNode(node)
	}
	for _, e := range data.Edges {
		err := g.AddEdge(network.Edge{
			From:      e.From,
			To:        e.To,
			Weight:    e.Weight,
			FeatureID: e.FeatureID,
			ObjID:     e.ObjID,
			Kind:      e.Kind,
		})
		if err != nil {
			return nil, "", fmt.Errorf("edge %d->%d: %w", e.From, e.To, err)
		}
	}

	return g, data.SnapshotID, nil
}

// ImportJSON reads a JSON file at path and returns the decoded graph.
// It returns the same validation errors as [ReadJSON].
func ImportJSON(path string) (*network.Graph, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
