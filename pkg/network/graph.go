// Package network implements the directed, weighted graph of a wastewater
// network and the path and traversal queries over it.
//
// Nodes are keyed by the internal feature id of the node layer; edges are
// keyed by their (from, to) node pair and carry a length-based weight plus
// provenance attributes. The graph is a plain directed graph, not a
// multigraph: inserting a second edge between the same node pair replaces
// the first.
//
// A Graph represents one immutable snapshot of the network. It is built in
// one shot by a Builder and replaced wholesale on rebuild; it is not safe
// for concurrent mutation.
package network

import (
	"errors"
	"slices"

	"github.com/sewerflow/sewerflow/pkg/geom"
)

var (
	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From
	// node does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To
	// node does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrNegativeWeight is returned by [Graph.AddEdge] for negative edge
	// weights. Shortest-path queries assume non-negative weights.
	ErrNegativeWeight = errors.New("negative edge weight")

	// ErrNodeNotFound is returned by query operations when a start or end
	// node id is not present in the graph.
	ErrNodeNotFound = errors.New("node not in graph")
)

// Node is a vertex of the network, created from one node-layer record.
// Nodes are immutable for the lifetime of one graph instance.
type Node struct {
	ID       int64      // internal feature id, assigned by the source layer
	ObjID    string     // domain object id, unique across nodes
	Kind     string     // domain type tag, e.g. "wastewater_node"
	Point    geom.Point // situation geometry
	HasPoint bool       // false if the record had no usable geometry
}

// Edge is a directed reach between two nodes, identified by its
// (From, To) pair.
type Edge struct {
	From      int64   // source node id
	To        int64   // target node id
	Weight    float64 // computed length, non-negative
	FeatureID int64   // internal feature id of the reach record
	ObjID     string  // domain object id of the reach
	Kind      string  // domain type tag
}

// Graph is the directed collection of all nodes and edges for one network
// snapshot. Every edge's endpoints reference nodes present in the graph.
type Graph struct {
	nodes    map[int64]*Node
	outgoing map[int64]map[int64]*Edge // from -> to -> edge
	incoming map[int64]map[int64]*Edge // to -> from -> edge
	objIndex map[string]int64          // domain object id -> node id
	edges    int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[int64]*Node),
		outgoing: make(map[int64]map[int64]*Edge),
		incoming: make(map[int64]map[int64]*Edge),
		objIndex: make(map[string]int64),
	}
}

// AddNode inserts a node and indexes its object id. Inserting a node with
// an existing id replaces it; a duplicate object id silently overwrites the
// index entry (last one wins).
func (g *Graph) AddNode(n Node) {
	node := n
	g.nodes[node.ID] = &node
	if node.ObjID != "" {
		g.objIndex[node.ObjID] = node.ID
	}
}

// AddEdge inserts a directed edge between two existing nodes. Inserting a
// second edge for the same (from, to) pair replaces the first.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Weight < 0 {
		return ErrNegativeWeight
	}

	if g.outgoing[e.From] == nil {
		g.outgoing[e.From] = make(map[int64]*Edge)
	}
	if g.incoming[e.To] == nil {
		g.incoming[e.To] = make(map[int64]*Edge)
	}
	if _, exists := g.outgoing[e.From][e.To]; !exists {
		g.edges++
	}
	edge := e
	g.outgoing[e.From][e.To] = &edge
	g.incoming[e.To][e.From] = &edge
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id int64) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge for the (from, to) pair.
func (g *Graph) Edge(from, to int64) (*Edge, bool) {
	e, ok := g.outgoing[from][to]
	return e, ok
}

// NodeByObjID resolves a domain object id to an internal node id.
func (g *Graph) NodeByObjID(objID string) (int64, bool) {
	id, ok := g.objIndex[objID]
	return id, ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct (from, to) edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Nodes returns all nodes. The order is not guaranteed; use NodeIDs for a
// deterministic traversal.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// NodeIDs returns all node ids in ascending order.
func (g *Graph) NodeIDs() []int64 {
	ids := make([]int64, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Edges returns copies of all edges sorted by (from, to).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for _, targets := range g.outgoing {
		for _, e := range targets {
			edges = append(edges, *e)
		}
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.From != b.From {
			return int(a.From - b.From)
		}
		return int(a.To - b.To)
	})
	return edges
}

// OutEdges returns the outgoing edges of a node sorted by target id.
func (g *Graph) OutEdges(id int64) []*Edge {
	return sortedEdges(g.outgoing[id])
}

// InEdges returns the incoming edges of a node sorted by source id.
func (g *Graph) InEdges(id int64) []*Edge {
	return sortedEdges(g.incoming[id])
}

func sortedEdges(m map[int64]*Edge) []*Edge {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	edges := make([]*Edge, len(keys))
	for i, k := range keys {
		edges[i] = m[k]
	}
	return edges
}

// ObjIDIndex returns a copy of the object-id index.
func (g *Graph) ObjIDIndex() map[string]int64 {
	out := make(map[string]int64, len(g.objIndex))
	for k, v := range g.objIndex {
		out[k] = v
	}
	return out
}

// Validate checks that every edge references nodes present in the graph.
func (g *Graph) Validate() error {
	for from, targets := range g.outgoing {
		if _, ok := g.nodes[from]; !ok {
			return ErrUnknownSourceNode
		}
		for to := range targets {
			if _, ok := g.nodes[to]; !ok {
				return ErrUnknownTargetNode
			}
		}
	}
	return nil
}
