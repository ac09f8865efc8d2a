package network

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/sewerflow/sewerflow/pkg/feature"
	"github.com/sewerflow/sewerflow/pkg/observability"
)

// Builder reads the node and reach layers and produces one graph snapshot.
//
// Records that cannot be fully used never abort the build: a node without
// parseable geometry is added without a usable point, and a reach whose
// endpoints cannot be resolved against the node index is skipped. Both
// conditions are logged and collected in the Report.
type Builder struct {
	nodeSource  feature.Source
	reachSource feature.Source
	logger      *log.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuildLogger sets the diagnostics logger.
func WithBuildLogger(l *log.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a builder over the given node and reach layers.
func NewBuilder(nodes, reaches feature.Source, opts ...BuilderOption) *Builder {
	b := &Builder{
		nodeSource:  nodes,
		reachSource: reaches,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SkippedEdge describes a reach record that was excluded from the graph
// because one of its endpoints did not resolve.
type SkippedEdge struct {
	FeatureID    int64  `json:"feature_id"`
	ObjID        string `json:"obj_id"`
	Side         string `json:"side"` // "from" or "to"
	MissingObjID string `json:"missing_obj_id"`
}

// Report summarizes one build run.
type Report struct {
	Nodes                int           `json:"nodes"`
	Edges                int           `json:"edges"`
	NodesWithoutGeometry int           `json:"nodes_without_geometry"`
	SkippedEdges         []SkippedEdge `json:"skipped_edges,omitempty"`
	Phases               []Phase       `json:"-"`
}

// Build runs the two construction phases and returns the finished graph.
// The returned graph is complete even when the report lists skipped edges.
func (b *Builder) Build(ctx context.Context) (*Graph, *Report, error) {
	g := New()
	report := &Report{}
	prof := NewProfiler()

	observability.Build().OnBuildStart(ctx, b.nodeSource.ID(), b.reachSource.ID())

	if err := b.addVertices(ctx, g, report); err != nil {
		observability.Build().OnBuildComplete(ctx, 0, 0, err)
		return nil, nil, err
	}
	prof.Checkpoint("add vertices")

	if err := b.addEdges(ctx, g, report); err != nil {
		observability.Build().OnBuildComplete(ctx, g.NodeCount(), 0, err)
		return nil, nil, err
	}
	prof.Checkpoint("add edges")

	report.Nodes = g.NodeCount()
	report.Edges = g.EdgeCount()
	report.Phases = prof.Phases()
	prof.LogTo(b.logger)

	observability.Build().OnBuildComplete(ctx, report.Nodes, report.Edges, nil)
	return g, report, nil
}

// addVertices inserts one node per node-layer record and fills the
// object-id index.
func (b *Builder) addVertices(ctx context.Context, g *Graph, report *Report) error {
	feats, err := b.nodeSource.Features(ctx)
	if err != nil {
		return err
	}

	cache := feature.NewCache(feature.WithLogger(b.logger))
	for _, f := range feats {
		cache.Add(f)

		objID, _ := cache.AttrAsString(f, feature.AttrObjID)
		kind, _ := cache.AttrAsString(f, feature.AttrType)

		node := Node{ID: f.ID, ObjID: objID, Kind: kind}
		if pt, err := f.Point(); err == nil {
			node.Point = pt
			node.HasPoint = true
		} else {
			// The node is still part of the network topology.
			report.NodesWithoutGeometry++
			b.logger.Warn("node without usable geometry", "feature", f.ID, "obj_id", objID, "err", err)
		}
		g.AddNode(node)
	}

	observability.Build().OnVerticesAdded(ctx, g.NodeCount())
	return nil
}

// addEdges inserts one edge per reach record whose endpoints both resolve
// against the object-id index.
func (b *Builder) addEdges(ctx context.Context, g *Graph, report *Report) error {
	feats, err := b.reachSource.Features(ctx)
	if err != nil {
		return err
	}

	cache := feature.NewCache(feature.WithLogger(b.logger))
	for _, f := range feats {
		cache.Add(f)

		objID, _ := cache.AttrAsString(f, feature.AttrObjID)
		kind, _ := cache.AttrAsString(f, feature.AttrType)
		fromObjID, _ := cache.AttrAsString(f, feature.AttrFromObjID)
		toObjID, _ := cache.AttrAsString(f, feature.AttrToObjID)

		from, ok := g.NodeByObjID(fromObjID)
		if !ok {
			b.skip(ctx, report, f.ID, objID, "from", fromObjID)
			continue
		}
		to, ok := g.NodeByObjID(toObjID)
		if !ok {
			b.skip(ctx, report, f.ID, objID, "to", toObjID)
			continue
		}

		length, ok := cache.AttrAsFloat(f, feature.AttrLengthCalc)
		if !ok {
			b.logger.Debug("reach without length, using zero weight", "feature", f.ID, "obj_id", objID)
		}

		if err := g.AddEdge(Edge{
			From:      from,
			To:        to,
			Weight:    length,
			FeatureID: f.ID,
			ObjID:     objID,
			Kind:      kind,
		}); err != nil {
			// Endpoints were just resolved; only a negative weight can
			// land here. Treat it like an unresolvable record.
			b.logger.Warn("reach rejected", "feature", f.ID, "obj_id", objID, "err", err)
			report.SkippedEdges = append(report.SkippedEdges, SkippedEdge{FeatureID: f.ID, ObjID: objID})
		}
	}

	observability.Build().OnEdgesAdded(ctx, g.EdgeCount(), len(report.SkippedEdges))
	return nil
}

func (b *Builder) skip(ctx context.Context, report *Report, featureID int64, objID, side, missing string) {
	b.logger.Warn("reach endpoint does not resolve, skipping",
		"feature", featureID, "obj_id", objID, "side", side, "missing_obj_id", missing)
	report.SkippedEdges = append(report.SkippedEdges, SkippedEdge{
		FeatureID:    featureID,
		ObjID:        objID,
		Side:         side,
		MissingObjID: missing,
	})
	observability.Build().OnEdgeSkipped(ctx, objID, missing)
}
