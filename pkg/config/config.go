// Package config loads the engine configuration from a TOML file.
//
// Configuration is optional everywhere: a missing file yields the full
// default configuration, and every field has a usable zero-state default.
// The CLI and the server both consume the same file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sewerflow/sewerflow/pkg/errors"
	"github.com/sewerflow/sewerflow/pkg/feature/mongodb"
)

// Config is the root configuration document.
type Config struct {
	Layers LayersConfig `toml:"layers"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// LayersConfig names the node and reach layer sources.
type LayersConfig struct {
	// NodePath and ReachPath point at GeoJSON layer files.
	NodePath  string `toml:"node_path"`
	ReachPath string `toml:"reach_path"`

	// Mongo, when set, overrides the file paths with database-backed
	// layers. NodeCollection and ReachCollection live in the same
	// database.
	Mongo           MongoConfig `toml:"mongo"`
	NodeCollection  string      `toml:"node_collection"`
	ReachCollection string      `toml:"reach_collection"`
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// Enabled reports whether database-backed layers are configured.
func (m MongoConfig) Enabled() bool { return m.URI != "" }

// SourceConfig converts to the mongodb package's connection config.
func (m MongoConfig) SourceConfig(collection string) mongodb.Config {
	return mongodb.Config{URI: m.URI, Database: m.Database, Collection: collection}
}

// CacheConfig selects and parameterizes the snapshot cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none" (the default).
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Defaults to a per-user
	// cache directory.
	Dir string `toml:"dir"`

	// Redis holds the redis backend's connection settings.
	Redis RedisConfig `toml:"redis"`

	// TTL bounds the lifetime of cached snapshots. Zero means no expiry.
	TTL duration `toml:"ttl"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// duration wraps time.Duration for TOML strings like "15m".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Duration returns the wrapped value.
func (d duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Cache:  CacheConfig{Backend: "none"},
		Server: ServerConfig{Addr: ":8742"},
	}
}

// Load reads a TOML config file. A missing file is not an error and
// yields [Default]; a file that exists but does not parse is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "sewerflow.toml"
	}
	return filepath.Join(dir, "sewerflow", "config.toml")
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case "", "none", "file", "redis":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache backend is redis but redis.addr is empty")
	}
	if c.Layers.Mongo.Enabled() {
		if c.Layers.NodeCollection == "" || c.Layers.ReachCollection == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "mongo layers need node_collection and reach_collection")
		}
	}
	return nil
}
