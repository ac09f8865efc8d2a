package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/sewerflow/sewerflow/pkg/netio"
	"github.com/sewerflow/sewerflow/pkg/network"
	"github.com/sewerflow/sewerflow/pkg/observability"
)

// SnapshotStore persists serialized graph snapshots in a Cache, keyed by
// the layer pair they were built from. It lets a process skip the build
// phase entirely when the layers have not changed since the last run.
type SnapshotStore struct {
	cache Cache
	keyer Keyer
	ttl   time.Duration
}

// NewSnapshotStore creates a store over the given backend.
// A nil keyer falls back to the default key scheme; a zero ttl stores
// snapshots without expiry.
func NewSnapshotStore(c Cache, keyer Keyer, ttl time.Duration) *SnapshotStore {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &SnapshotStore{cache: c, keyer: keyer, ttl: ttl}
}

// Store serializes the graph and writes it under the layer pair's key.
func (s *SnapshotStore) Store(ctx context.Context, nodeLayer, reachLayer, snapshotID string, g *network.Graph) error {
	var buf bytes.Buffer
	if err := netio.WriteJSON(g, snapshotID, &buf); err != nil {
		return err
	}

	key := s.keyer.SnapshotKey(nodeLayer, reachLayer)
	if err := s.cache.Set(ctx, key, buf.Bytes(), s.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, "snapshot", buf.Len())
	return nil
}

// Load reads back the snapshot stored for the layer pair.
// The second return value is false on a miss.
func (s *SnapshotStore) Load(ctx context.Context, nodeLayer, reachLayer string) (*network.Graph, string, bool, error) {
	key := s.keyer.SnapshotKey(nodeLayer, reachLayer)
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, "", false, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "snapshot")
		return nil, "", false, nil
	}
	observability.Cache().OnCacheHit(ctx, "snapshot")

	g, snapshotID, err := netio.ReadJSON(bytes.NewReader(data))
	if err != nil {
		// A payload that no longer parses is as good as absent.
		_ = s.cache.Delete(ctx, key)
		return nil, "", false, nil
	}
	return g, snapshotID, true, nil
}

// Invalidate drops the snapshot stored for the layer pair.
func (s *SnapshotStore) Invalidate(ctx context.Context, nodeLayer, reachLayer string) error {
	return s.cache.Delete(ctx, s.keyer.SnapshotKey(nodeLayer, reachLayer))
}
