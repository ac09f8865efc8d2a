// Package netio provides JSON import and export for network graph
// snapshots.
//
// The format carries the snapshot id plus two arrays:
//
//	{
//	  "snapshot_id": "6f1c…",
//	  "nodes": [
//	    {"id": 1, "obj_id": "wn_1", "kind": "wastewater_node", "point": {"x": 0, "y": 0}},
//	    {"id": 2, "obj_id": "wn_2", "kind": "wastewater_node"}
//	  ],
//	  "edges": [
//	    {"from": 1, "to": 2, "weight": 12.5, "feature_id": 101, "obj_id": "re_1"}
//	  ]
//	}
//
// Export is deterministic: nodes are written in ascending id order and
// edges sorted by (from, to), so identical graphs produce identical bytes.
// That makes the files diffable and usable as cache payloads.
//
// Use [ExportJSON] / [WriteJSON] to write and [ImportJSON] / [ReadJSON]
// to read. Import validates edge endpoints and weights the same way the
// builder does, so a round-tripped graph behaves identically in queries.
package netio
