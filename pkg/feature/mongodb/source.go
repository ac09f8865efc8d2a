// Package mongodb provides a feature source backed by a MongoDB collection.
//
// Each document holds one feature record in the canonical form:
//
//	{ "id": 17, "fields": { "obj_id": "...", "type": "..." }, "geometry": "POINT(...)" }
//
// The collection is re-queried on every Features call, so an external
// process updating the collection is picked up by the next graph rebuild.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sewerflow/sewerflow/pkg/errors"
	"github.com/sewerflow/sewerflow/pkg/feature"
)

// Config holds the connection settings for a collection-backed layer.
type Config struct {
	URI        string // e.g. "mongodb://localhost:27017"
	Database   string
	Collection string
}

// Source serves features from a MongoDB collection.
type Source struct {
	coll *mongo.Collection
	id   string
}

// Connect establishes a client connection and returns a source for the
// configured collection. The caller owns the returned source and should
// Close it when done.
func Connect(ctx context.Context, cfg Config) (*Source, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayer, err, "connect %s", cfg.URI)
	}
	return &Source{
		coll: client.Database(cfg.Database).Collection(cfg.Collection),
		id:   fmt.Sprintf("mongodb://%s/%s", cfg.Database, cfg.Collection),
	}, nil
}

// NewSource wraps an existing collection handle.
func NewSource(coll *mongo.Collection) *Source {
	return &Source{
		coll: coll,
		id:   fmt.Sprintf("mongodb://%s/%s", coll.Database().Name(), coll.Name()),
	}
}

// ID returns a stable layer identifier derived from database and
// collection names.
func (s *Source) ID() string { return s.id }

// Features queries the full collection ordered by internal id.
// Deterministic ordering keeps repeated rebuilds identical under
// unchanged data.
func (s *Source) Features(ctx context.Context) ([]feature.Feature, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayer, err, "query %s", s.id)
	}
	defer cur.Close(ctx)

	var feats []feature.Feature
	if err := cur.All(ctx, &feats); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayer, err, "decode %s", s.id)
	}
	return feats, nil
}

// Close disconnects the underlying client.
func (s *Source) Close(ctx context.Context) error {
	return s.coll.Database().Client().Disconnect(ctx)
}

var _ feature.Source = (*Source)(nil)
