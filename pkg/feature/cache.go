package feature

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/sewerflow/sewerflow/pkg/errors"
	"github.com/sewerflow/sewerflow/pkg/geom"
)

// Cache is an in-memory index over a batch of features, keyed both by the
// internal feature id and by the domain object id attribute.
//
// The backing store can be slow, so when a set of features is used several
// times consecutively it is cheaper to keep them in memory. There is no
// bound on the cache size; the caller owns the cache and its memory, and
// discards it when done.
type Cache struct {
	objIDField string
	byID       map[int64]Feature
	byObjID    map[string]Feature
	logger     *log.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithObjIDField overrides the attribute used as the object id key.
// The default is "obj_id".
func WithObjIDField(name string) CacheOption {
	return func(c *Cache) { c.objIDField = name }
}

// WithLogger sets the logger used for attribute diagnostics.
func WithLogger(l *log.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// NewCache creates an empty feature cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		objIDField: AttrObjID,
		byID:       make(map[int64]Feature),
		byObjID:    make(map[string]Feature),
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add inserts a feature, indexing it by internal id and by object id.
func (c *Cache) Add(f Feature) {
	c.byID[f.ID] = f
	if objID, ok := c.AttrAsString(f, c.objIDField); ok {
		c.byObjID[objID] = f
	}
}

// Len returns the number of cached features.
func (c *Cache) Len() int { return len(c.byID) }

// ByID returns the feature with the given internal id.
// Asking for an id that was never added is caller misuse and surfaces as a
// FEATURE_NOT_FOUND error.
func (c *Cache) ByID(id int64) (Feature, error) {
	f, ok := c.byID[id]
	if !ok {
		return Feature{}, errors.New(errors.ErrCodeFeatureNotFound, "no feature with id %d", id)
	}
	return f, nil
}

// ByObjID returns the feature with the given object id.
func (c *Cache) ByObjID(objID string) (Feature, error) {
	f, ok := c.byObjID[objID]
	if !ok {
		return Feature{}, errors.New(errors.ErrCodeFeatureNotFound, "no feature with object id %q", objID)
	}
	return f, nil
}

// AsMap returns the cached features keyed by internal id.
// The returned map is the cache's own index; treat it as read-only.
func (c *Cache) AsMap() map[int64]Feature { return c.byID }

// AsObjIDMap returns the cached features keyed by object id.
// The returned map is the cache's own index; treat it as read-only.
func (c *Cache) AsObjIDMap() map[string]Feature { return c.byObjID }

// Attr returns the raw attribute value, or nil if the value is NULL.
// Reading an attribute name not present on the record logs a diagnostic
// and returns nil; it never fails.
func (c *Cache) Attr(f Feature, attr string) any {
	v, ok := f.Fields[attr]
	if !ok {
		c.logger.Error("unknown field", "field", attr, "feature", f.ID)
		return nil
	}
	return v
}

// AttrAsString returns the attribute as a string.
// The second return value is false if the attribute is NULL or missing.
func (c *Cache) AttrAsString(f Feature, attr string) (string, bool) {
	v := c.Attr(f, attr)
	if v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	default:
		return fmt.Sprint(v), true
	}
}

// AttrAsFloat parses the attribute as a float64.
// The second return value is false if the attribute is NULL, missing, or
// not coercible to a number.
func (c *Cache) AttrAsFloat(f Feature, attr string) (float64, bool) {
	v := c.Attr(f, attr)
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// AttrAsPoint parses a textual geometry attribute as a point.
// A leading EWKT "SRID=n;" token is stripped before parsing.
func (c *Cache) AttrAsPoint(f Feature, attr string) (geom.Point, error) {
	s, ok := c.AttrAsString(f, attr)
	if !ok {
		return geom.Point{}, errors.New(errors.ErrCodeInvalidGeometry, "feature %d: null geometry attribute %q", f.ID, attr)
	}
	return geom.ParsePoint(s)
}

// AttrAsPolyline parses a textual geometry attribute as a polyline.
// A leading EWKT "SRID=n;" token is stripped before parsing.
func (c *Cache) AttrAsPolyline(f Feature, attr string) (geom.Polyline, error) {
	s, ok := c.AttrAsString(f, attr)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "feature %d: null geometry attribute %q", f.ID, attr)
	}
	return geom.ParsePolyline(s)
}
