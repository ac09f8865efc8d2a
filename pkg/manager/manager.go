// Package manager owns the lifecycle of the network graph: which layers
// feed it, when it is stale, and when it gets rebuilt.
//
// A Manager holds at most one graph snapshot at a time. Assigning a layer
// marks the state dirty; once both layers are present the graph is rebuilt
// eagerly, and every query entry point rebuilds lazily if the state is
// still dirty. Queries therefore never answer from a stale snapshot.
package manager

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sewerflow/sewerflow/pkg/errors"
	"github.com/sewerflow/sewerflow/pkg/feature"
	"github.com/sewerflow/sewerflow/pkg/geom"
	"github.com/sewerflow/sewerflow/pkg/network"
	"github.com/sewerflow/sewerflow/pkg/observability"
)

// Refresher re-reads a layer's backing store before a rebuild, for sources
// that cache their result set. A refresh failure is reported but never
// blocks the rebuild.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Manager coordinates layer assignment, rebuilds, and queries over the
// current graph snapshot. It is safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	nodeSource  feature.Source
	reachSource feature.Source
	refresher   Refresher
	resolver    CandidateResolver
	logger      *log.Logger

	graph      *network.Graph
	report     *network.Report
	nodeCache  *feature.Cache
	reachCache *feature.Cache
	snapshotID string
	dirty      bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the diagnostics logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithRefresher sets the collaborator invoked before every rebuild.
func WithRefresher(r Refresher) Option {
	return func(m *Manager) { m.refresher = r }
}

// WithResolver sets the strategy used to pick one node out of several
// candidates at the same location.
func WithResolver(r CandidateResolver) Option {
	return func(m *Manager) { m.resolver = r }
}

// New creates a manager with no layers assigned.
func New(opts ...Option) *Manager {
	m := &Manager{
		logger:   log.Default(),
		resolver: PreferKindResolver{Kind: "wastewater_node"},
		dirty:    true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetNodeLayer assigns the node layer. The state becomes dirty; if the
// reach layer is already assigned the graph is rebuilt immediately.
func (m *Manager) SetNodeLayer(ctx context.Context, src feature.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeSource = src
	m.dirty = true
	if m.reachSource == nil {
		return nil
	}
	return m.rebuildLocked(ctx)
}

// SetReachLayer assigns the reach layer. The state becomes dirty; if the
// node layer is already assigned the graph is rebuilt immediately.
func (m *Manager) SetReachLayer(ctx context.Context, src feature.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reachSource = src
	m.dirty = true
	if m.nodeSource == nil {
		return nil
	}
	return m.rebuildLocked(ctx)
}

// NodeLayerID returns the assigned node layer's identifier, or "".
func (m *Manager) NodeLayerID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nodeSource == nil {
		return ""
	}
	return m.nodeSource.ID()
}

// ReachLayerID returns the assigned reach layer's identifier, or "".
func (m *Manager) ReachLayerID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reachSource == nil {
		return ""
	}
	return m.reachSource.ID()
}

// Dirty reports whether the current snapshot is stale (or absent).
func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// SnapshotID returns the identifier of the current graph snapshot, or ""
// before the first successful rebuild.
func (m *Manager) SnapshotID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotID
}

// Report returns the build report of the current snapshot, or nil.
func (m *Manager) Report() *network.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.report
}

// Invalidate marks the current snapshot stale without touching the layer
// assignment. The next query rebuilds lazily.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty = true
}

// Rebuild discards the current snapshot and builds a new one from the
// assigned layers. Both layers must be assigned.
func (m *Manager) Rebuild(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty = true
	return m.rebuildLocked(ctx)
}

// Graph returns the current snapshot, rebuilding first if it is stale.
func (m *Manager) Graph(ctx context.Context) (*network.Graph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureFreshLocked(ctx); err != nil {
		return nil, err
	}
	return m.graph, nil
}

// ShortestPath answers a minimum-weight path query between two node ids,
// rebuilding the graph first if it is stale.
func (m *Manager) ShortestPath(ctx context.Context, start, end int64) (network.PathResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureFreshLocked(ctx); err != nil {
		return network.PathResult{}, err
	}

	started := time.Now()
	res, err := m.graph.ShortestPath(start, end)
	observability.Query().OnQuery(ctx, "path", time.Since(started), err)
	if err != nil {
		return network.PathResult{}, codeQueryErr(err, "shortest path %d -> %d", start, end)
	}
	return res, nil
}

// Tree answers a traversal-tree query from a node id, rebuilding the graph
// first if it is stale. With reverse set, the tree covers everything that
// drains into the node instead of everything downstream of it.
func (m *Manager) Tree(ctx context.Context, source int64, reverse bool) (network.TreeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureFreshLocked(ctx); err != nil {
		return network.TreeResult{}, err
	}

	started := time.Now()
	res, err := m.graph.Tree(source, reverse)
	observability.Query().OnQuery(ctx, "tree", time.Since(started), err)
	if err != nil {
		return network.TreeResult{}, codeQueryErr(err, "tree from %d", source)
	}
	return res, nil
}

// EdgeGeometry returns the polyline of the reach connecting two node ids.
func (m *Manager) EdgeGeometry(ctx context.Context, from, to int64) (geom.Polyline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureFreshLocked(ctx); err != nil {
		return nil, err
	}

	started := time.Now()
	line, err := m.edgeGeometryLocked(from, to)
	observability.Query().OnQuery(ctx, "geometry", time.Since(started), err)
	return line, err
}

func (m *Manager) edgeGeometryLocked(from, to int64) (geom.Polyline, error) {
	e, ok := m.graph.Edge(from, to)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no reach between nodes %d and %d", from, to)
	}
	f, err := m.reachCache.ByID(e.FeatureID)
	if err != nil {
		return nil, err
	}
	line, err := f.Polyline()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "reach %s", e.ObjID)
	}
	return line, nil
}

// EdgeGeometries resolves the polylines of a set of reach feature ids in
// input order, through a cache built fresh for this call from the reach
// layer. An id absent from the layer yields FEATURE_NOT_FOUND.
func (m *Manager) EdgeGeometries(ctx context.Context, featureIDs []int64) ([]geom.Polyline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureFreshLocked(ctx); err != nil {
		return nil, err
	}

	started := time.Now()
	lines, err := m.edgeGeometriesLocked(ctx, featureIDs)
	observability.Query().OnQuery(ctx, "geometry", time.Since(started), err)
	return lines, err
}

func (m *Manager) edgeGeometriesLocked(ctx context.Context, featureIDs []int64) ([]geom.Polyline, error) {
	cache, err := m.FeaturesByID(ctx, m.reachSource, featureIDs)
	if err != nil {
		return nil, err
	}

	lines := make([]geom.Polyline, 0, len(featureIDs))
	for _, id := range featureIDs {
		f, err := cache.ByID(id)
		if err != nil {
			return nil, err
		}
		line, err := f.Polyline()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "reach feature %d", id)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ResolveNode finds the network node at a map location. Candidates within
// the tolerance are handed to the configured resolver when the location is
// ambiguous.
func (m *Manager) ResolveNode(ctx context.Context, pt geom.Point, tolerance float64) (network.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureFreshLocked(ctx); err != nil {
		return network.Node{}, err
	}

	candidates := nodesNear(m.graph, pt, tolerance)
	switch len(candidates) {
	case 0:
		return network.Node{}, errors.New(errors.ErrCodeNodeNotFound, "no node within %g of POINT(%g %g)", tolerance, pt.X, pt.Y)
	case 1:
		return candidates[0], nil
	default:
		return m.resolver.Resolve(ctx, candidates)
	}
}

// FeaturesByID loads the records with the given internal ids from a layer
// into a fresh cache. Ids absent from the layer are silently omitted.
func (m *Manager) FeaturesByID(ctx context.Context, src feature.Source, ids []int64) (*feature.Cache, error) {
	feats, err := src.Features(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayer, err, "read layer %s", src.ID())
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	cache := feature.NewCache(feature.WithLogger(m.logger))
	for _, f := range feats {
		if want[f.ID] {
			cache.Add(f)
		}
	}
	return cache, nil
}

// FeaturesByAttr loads the records whose attribute matches one of the
// given values from a layer into a fresh cache, keyed by that attribute.
func (m *Manager) FeaturesByAttr(ctx context.Context, src feature.Source, attr string, values []string) (*feature.Cache, error) {
	feats, err := src.Features(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayer, err, "read layer %s", src.ID())
	}
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	cache := feature.NewCache(feature.WithLogger(m.logger), feature.WithObjIDField(attr))
	for _, f := range feats {
		if s, ok := cache.AttrAsString(f, attr); ok && want[s] {
			cache.Add(f)
		}
	}
	return cache, nil
}

// ensureFreshLocked rebuilds the snapshot if it is stale. Rebuilds from
// here count as lazy.
func (m *Manager) ensureFreshLocked(ctx context.Context) error {
	if !m.dirty && m.graph != nil {
		return nil
	}
	observability.Query().OnLazyRebuild(ctx)
	return m.rebuildLocked(ctx)
}

func (m *Manager) rebuildLocked(ctx context.Context) error {
	if m.nodeSource == nil || m.reachSource == nil {
		return errors.New(errors.ErrCodeLayerUnset, "node and reach layers must both be assigned")
	}

	if m.refresher != nil {
		if err := m.refresher.Refresh(ctx); err != nil {
			// A failed refresh means we may build from slightly stale
			// data, which beats not building at all.
			m.logger.Warn("layer refresh failed, rebuilding anyway", "err", err)
		}
	}

	nodeFeats, err := m.nodeSource.Features(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidLayer, err, "read node layer %s", m.nodeSource.ID())
	}
	reachFeats, err := m.reachSource.Features(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidLayer, err, "read reach layer %s", m.reachSource.ID())
	}

	builder := network.NewBuilder(
		feature.NewMemorySource(m.nodeSource.ID(), nodeFeats),
		feature.NewMemorySource(m.reachSource.ID(), reachFeats),
		network.WithBuildLogger(m.logger),
	)
	g, report, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	nodeCache := feature.NewCache(feature.WithLogger(m.logger))
	for _, f := range nodeFeats {
		nodeCache.Add(f)
	}
	reachCache := feature.NewCache(feature.WithLogger(m.logger))
	for _, f := range reachFeats {
		reachCache.Add(f)
	}

	m.graph = g
	m.report = report
	m.nodeCache = nodeCache
	m.reachCache = reachCache
	m.snapshotID = uuid.NewString()
	m.dirty = false

	m.logger.Info("graph rebuilt",
		"snapshot", m.snapshotID,
		"nodes", report.Nodes,
		"edges", report.Edges,
		"skipped", len(report.SkippedEdges))
	return nil
}

// codeQueryErr maps graph-level sentinel errors onto coded errors.
func codeQueryErr(err error, format string, args ...any) error {
	if stderrors.Is(err, network.ErrNodeNotFound) {
		return errors.Wrap(errors.ErrCodeNodeNotFound, err, format, args...)
	}
	return errors.Wrap(errors.ErrCodeInternal, err, format, args...)
}
