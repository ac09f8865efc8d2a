package network

import "slices"

// TreeResult holds a traversal-tree answer: the attribute bundles of every
// node reachable from the source, and the predecessor edges of the tree.
// Edges are always oriented in the original edge direction, also when the
// traversal ran on the reversed graph.
type TreeResult struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Tree computes single-source shortest distances and predecessor links
// using Bellman-Ford relaxation. With reverse set, traversal runs on the
// edge-reversed view of the graph (weights unchanged), answering "what
// flows into this node" instead of "what this node flows into".
//
// Unreachable nodes are excluded from the result. The source node appears
// in the node list but contributes no predecessor edge. Under duplicate
// distance ties the predecessor with the lowest node id wins, so results
// are stable for a fixed graph. Unknown source ids yield ErrNodeNotFound.
func (g *Graph) Tree(source int64, reverse bool) (TreeResult, error) {
	if _, ok := g.nodes[source]; !ok {
		return TreeResult{}, ErrNodeNotFound
	}

	dist := map[int64]float64{source: 0}
	pred := map[int64]int64{}

	// Deterministic relaxation order: edges sorted by (from, to), flipped
	// when traversing the reversed view.
	edges := g.Edges()
	if reverse {
		for i := range edges {
			edges[i].From, edges[i].To = edges[i].To, edges[i].From
		}
		slices.SortFunc(edges, func(a, b Edge) int {
			if a.From != b.From {
				return int(a.From - b.From)
			}
			return int(a.To - b.To)
		})
	}

	// Bellman-Ford: at most N-1 passes; stop early once stable. Weights
	// are non-negative here, but the relaxation loop tolerates anything
	// without a negative cycle.
	for pass := 0; pass < len(g.nodes); pass++ {
		changed := false
		for _, e := range edges {
			if e.From == e.To {
				// A self-loop can never shorten a distance and must not
				// displace a node's real predecessor on a zero-weight tie.
				continue
			}
			du, ok := dist[e.From]
			if !ok {
				continue
			}
			nd := du + e.Weight
			cur, seen := dist[e.To]
			if !seen || nd < cur {
				dist[e.To] = nd
				pred[e.To] = e.From
				changed = true
			} else if nd == cur && e.From < pred[e.To] && e.To != source {
				pred[e.To] = e.From
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	// Collect reached nodes in ascending id order.
	reached := make([]int64, 0, len(dist))
	for id := range dist {
		reached = append(reached, id)
	}
	slices.Sort(reached)

	result := TreeResult{
		Nodes: make([]Node, 0, len(reached)),
		Edges: make([]Edge, 0, len(pred)),
	}
	for _, id := range reached {
		result.Nodes = append(result.Nodes, *g.nodes[id])
		if id == source {
			continue
		}
		p := pred[id]
		// Reconstruct the original edge: the reversed traversal edge
		// p -> id corresponds to the original edge id -> p.
		var orig *Edge
		if reverse {
			orig, _ = g.Edge(id, p)
		} else {
			orig, _ = g.Edge(p, id)
		}
		if orig != nil {
			result.Edges = append(result.Edges, *orig)
		}
	}
	return result, nil
}
