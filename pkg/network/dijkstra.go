package network

import (
	"container/heap"
)

// PathResult holds a shortest-path answer: the ordered node sequence and
// the edge for each consecutive node pair. An empty result (no nodes, no
// edges) means no path exists; that is a normal outcome, not an error.
type PathResult struct {
	Nodes []int64 `json:"nodes"`
	Edges []Edge  `json:"edges"`
}

// Empty reports whether the result describes "no path".
func (r PathResult) Empty() bool { return len(r.Nodes) == 0 }

// TotalWeight returns the summed weight of the path edges.
func (r PathResult) TotalWeight() float64 {
	var total float64
	for _, e := range r.Edges {
		total += e.Weight
	}
	return total
}

// ShortestPath computes the minimum-total-weight path from start to end
// using Dijkstra's algorithm over the non-negative edge weights.
//
// When several minimum-weight paths exist the one reaching each node
// through the lowest predecessor id wins; for a fixed graph the result is
// therefore stable. If end is unreachable from start, an empty result is
// returned. Unknown start or end ids yield ErrNodeNotFound.
func (g *Graph) ShortestPath(start, end int64) (PathResult, error) {
	if _, ok := g.nodes[start]; !ok {
		return PathResult{}, ErrNodeNotFound
	}
	if _, ok := g.nodes[end]; !ok {
		return PathResult{}, ErrNodeNotFound
	}

	if start == end {
		return PathResult{Nodes: []int64{start}, Edges: []Edge{}}, nil
	}

	dist := map[int64]float64{start: 0}
	prev := map[int64]int64{}
	settled := map[int64]bool{}

	pq := &nodeQueue{{id: start, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(queueItem)
		if settled[item.id] {
			continue
		}
		settled[item.id] = true
		if item.id == end {
			break
		}

		for _, e := range g.OutEdges(item.id) {
			if settled[e.To] {
				continue
			}
			nd := dist[item.id] + e.Weight
			cur, seen := dist[e.To]
			switch {
			case !seen || nd < cur:
				dist[e.To] = nd
				prev[e.To] = item.id
				heap.Push(pq, queueItem{id: e.To, dist: nd})
			case nd == cur && item.id < prev[e.To]:
				// Equal-weight tie: prefer the lowest predecessor id.
				prev[e.To] = item.id
			}
		}
	}

	if !settled[end] {
		return PathResult{Nodes: []int64{}, Edges: []Edge{}}, nil
	}

	// Walk predecessors back from the end node.
	var nodes []int64
	for at := end; ; at = prev[at] {
		nodes = append(nodes, at)
		if at == start {
			break
		}
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}

	edges := make([]Edge, 0, len(nodes)-1)
	for i := 1; i < len(nodes); i++ {
		e, _ := g.Edge(nodes[i-1], nodes[i])
		edges = append(edges, *e)
	}
	return PathResult{Nodes: nodes, Edges: edges}, nil
}

type queueItem struct {
	id   int64
	dist float64
}

// nodeQueue is a min-heap ordered by distance, breaking ties by node id
// so that the traversal order is deterministic.
type nodeQueue []queueItem

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].id < q[j].id
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(queueItem)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
