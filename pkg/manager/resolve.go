package manager

import (
	"context"
	"slices"

	"github.com/sewerflow/sewerflow/pkg/geom"
	"github.com/sewerflow/sewerflow/pkg/network"
)

// CandidateResolver picks one node out of several candidates sharing a map
// location. Implementations may decide automatically or ask the user.
type CandidateResolver interface {
	Resolve(ctx context.Context, candidates []network.Node) (network.Node, error)
}

// ResolverFunc adapts a function to the CandidateResolver interface.
type ResolverFunc func(ctx context.Context, candidates []network.Node) (network.Node, error)

// Resolve calls the wrapped function.
func (f ResolverFunc) Resolve(ctx context.Context, candidates []network.Node) (network.Node, error) {
	return f(ctx, candidates)
}

// PreferKindResolver picks the first candidate of the preferred kind.
// Hydraulic nodes and structure nodes often share a coordinate, and the
// hydraulic node is almost always the one a traversal should start from.
// With no candidate of the preferred kind the first candidate wins.
type PreferKindResolver struct {
	Kind string
}

// Resolve implements CandidateResolver.
func (r PreferKindResolver) Resolve(_ context.Context, candidates []network.Node) (network.Node, error) {
	for _, n := range candidates {
		if n.Kind == r.Kind {
			return n, nil
		}
	}
	return candidates[0], nil
}

var (
	_ CandidateResolver = PreferKindResolver{}
	_ CandidateResolver = ResolverFunc(nil)
)

// nodesNear returns the graph nodes within tolerance of a point, closest
// first; equally distant nodes are ordered by id.
func nodesNear(g *network.Graph, pt geom.Point, tolerance float64) []network.Node {
	var out []network.Node
	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)
		if !n.HasPoint {
			continue
		}
		if n.Point.DistanceTo(pt) <= tolerance {
			out = append(out, *n)
		}
	}
	slices.SortFunc(out, func(a, b network.Node) int {
		da, db := a.Point.DistanceTo(pt), b.Point.DistanceTo(pt)
		if da != db {
			if da < db {
				return -1
			}
			return 1
		}
		return int(a.ID - b.ID)
	})
	return out
}
