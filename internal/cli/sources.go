package cli

import (
	"context"

	"github.com/sewerflow/sewerflow/pkg/config"
	"github.com/sewerflow/sewerflow/pkg/errors"
	"github.com/sewerflow/sewerflow/pkg/feature"
	"github.com/sewerflow/sewerflow/pkg/feature/mongodb"
)

// layerSources builds the node and reach layer sources selected by the
// config: MongoDB collections when configured, GeoJSON files otherwise.
// The returned cleanup releases any backend connections and is safe to
// call unconditionally.
func layerSources(ctx context.Context, cfg config.Config) (nodes, reaches feature.Source, cleanup func(), err error) {
	cleanup = func() {}

	if cfg.Layers.Mongo.Enabled() {
		nodeSrc, err := mongodb.Connect(ctx, cfg.Layers.Mongo.SourceConfig(cfg.Layers.NodeCollection))
		if err != nil {
			return nil, nil, cleanup, err
		}
		reachSrc, err := mongodb.Connect(ctx, cfg.Layers.Mongo.SourceConfig(cfg.Layers.ReachCollection))
		if err != nil {
			_ = nodeSrc.Close(ctx)
			return nil, nil, cleanup, err
		}
		cleanup = func() {
			_ = nodeSrc.Close(context.Background())
			_ = reachSrc.Close(context.Background())
		}
		return nodeSrc, reachSrc, cleanup, nil
	}

	if cfg.Layers.NodePath == "" || cfg.Layers.ReachPath == "" {
		return nil, nil, cleanup, errors.New(errors.ErrCodeInvalidConfig,
			"no layers configured: set layers.node_path and layers.reach_path, or layers.mongo")
	}
	return feature.NewGeoJSONSource(cfg.Layers.NodePath),
		feature.NewGeoJSONSource(cfg.Layers.ReachPath),
		cleanup, nil
}
