package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sewerflow/sewerflow/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Cache.Backend != "none" || cfg.Server.Addr != ":8742" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[layers]
node_path = "nodes.geojson"
reach_path = "reaches.geojson"

[cache]
backend = "file"
dir = "/tmp/sewerflow-cache"
ttl = "15m"

[server]
addr = ":9000"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layers.NodePath != "nodes.geojson" || cfg.Layers.ReachPath != "reaches.geojson" {
		t.Errorf("layers = %+v", cfg.Layers)
	}
	if cfg.Cache.Backend != "file" || cfg.Cache.TTL.Duration() != 15*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoadMongoLayers(t *testing.T) {
	path := writeConfig(t, `
[layers]
node_collection = "network_node"
reach_collection = "network_segment"

[layers.mongo]
uri = "mongodb://localhost:27017"
database = "sewer"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Layers.Mongo.Enabled() {
		t.Fatal("mongo layers should be enabled")
	}
	sc := cfg.Layers.Mongo.SourceConfig(cfg.Layers.NodeCollection)
	if sc.Database != "sewer" || sc.Collection != "network_node" {
		t.Errorf("source config = %+v", sc)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "BadTOML", content: `[cache` + "\n"},
		{name: "UnknownBackend", content: "[cache]\nbackend = \"memcached\"\n"},
		{name: "RedisWithoutAddr", content: "[cache]\nbackend = \"redis\"\n"},
		{name: "MongoWithoutCollections", content: "[layers.mongo]\nuri = \"mongodb://x\"\n"},
		{name: "BadTTL", content: "[cache]\nttl = \"soon\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadInvalidCode(t *testing.T) {
	path := writeConfig(t, "[cache]\nbackend = \"memcached\"\n")
	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}
