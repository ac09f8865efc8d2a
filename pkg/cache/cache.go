// Package cache provides pluggable byte caches for graph snapshots and
// query results, plus the key scheme that names the entries.
//
// Backends share one small interface so the engine can run against a local
// file cache, a shared Redis, or no cache at all without code changes. The
// payloads are the deterministic JSON documents produced by the netio
// package, which makes entries portable between backends.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with optional per-entry expiry.
type Cache interface {
	// Get retrieves a value. The second return value is false on a miss;
	// a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the engine's cacheable artifacts.
type Keyer interface {
	// SnapshotKey names a serialized graph snapshot built from the given
	// layer pair.
	SnapshotKey(nodeLayer, reachLayer string) string

	// QueryKey names a query result computed against a snapshot.
	QueryKey(snapshotID, kind string, params ...any) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SnapshotKey implements Keyer.
func (DefaultKeyer) SnapshotKey(nodeLayer, reachLayer string) string {
	return hashKey("snapshot", nodeLayer, reachLayer)
}

// QueryKey implements Keyer.
func (DefaultKeyer) QueryKey(snapshotID, kind string, params ...any) string {
	return hashKey("query:"+kind, append([]any{snapshotID}, params...)...)
}

// ScopedKeyer wraps a Keyer with a prefix so several networks can share
// one cache backend without key collisions.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix prepended to every key.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SnapshotKey generates a prefixed snapshot key.
func (k *ScopedKeyer) SnapshotKey(nodeLayer, reachLayer string) string {
	return k.prefix + k.inner.SnapshotKey(nodeLayer, reachLayer)
}

// QueryKey generates a prefixed query-result key.
func (k *ScopedKeyer) QueryKey(snapshotID, kind string, params ...any) string {
	return k.prefix + k.inner.QueryKey(snapshotID, kind, params...)
}
