// Package feature models the geospatial feature records the network engine
// consumes: node and reach layers exposed as iterable record collections.
//
// A Feature is a flat record with an internal identifier, an attribute map
// and an optional WKT geometry. Sources deliver batches of features; the
// engine never mutates them. The Cache type provides the typed attribute
// accessors (float, string, geometry) with null handling.
package feature

import (
	"context"

	"github.com/sewerflow/sewerflow/pkg/geom"
)

// Well-known attribute names shared by the node and reach layers.
const (
	AttrObjID      = "obj_id"
	AttrType       = "type"
	AttrFromObjID  = "from_obj_id"
	AttrToObjID    = "to_obj_id"
	AttrLengthCalc = "length_calc"
)

// Feature is a single record from a source layer.
// Attribute values may be nil, which represents a database NULL.
type Feature struct {
	ID       int64          `json:"id" bson:"id"`
	Fields   map[string]any `json:"fields" bson:"fields"`
	Geometry string         `json:"geometry,omitempty" bson:"geometry,omitempty"` // WKT or EWKT text
}

// Point parses the feature geometry as a point.
func (f Feature) Point() (geom.Point, error) {
	return geom.ParsePoint(f.Geometry)
}

// Polyline parses the feature geometry as a polyline.
func (f Feature) Polyline() (geom.Polyline, error) {
	return geom.ParsePolyline(f.Geometry)
}

// Source is an iterable collection of feature records, typically a map
// layer backed by a database view or a file.
type Source interface {
	// ID returns a stable identifier for the layer.
	ID() string

	// Features returns the current batch of records. Implementations
	// backed by mutable stores re-read on every call.
	Features(ctx context.Context) ([]Feature, error)
}

// MemorySource is an in-memory Source, used in tests and for small
// fixed layers.
type MemorySource struct {
	id    string
	feats []Feature
}

// NewMemorySource creates a source serving the given records.
func NewMemorySource(id string, feats []Feature) *MemorySource {
	return &MemorySource{id: id, feats: feats}
}

// ID returns the layer identifier.
func (s *MemorySource) ID() string { return s.id }

// Features returns the records as provided.
func (s *MemorySource) Features(ctx context.Context) ([]Feature, error) {
	return s.feats, nil
}

// Replace swaps the served records, simulating an external data change.
func (s *MemorySource) Replace(feats []Feature) { s.feats = feats }

var _ Source = (*MemorySource)(nil)
