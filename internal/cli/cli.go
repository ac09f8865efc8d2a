// Package cli implements the sewerflow command-line interface.
//
// This package provides commands for building the network graph from node
// and reach layers, running path and traversal queries against it, and
// serving the query API over HTTP. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - build: Construct the graph from the configured layers
//   - path: Compute the shortest path between two nodes
//   - tree: Compute the downstream or upstream traversal tree of a node
//   - geometry: Print the geometry of the reach between two nodes
//   - resolve: Find the network node at a map coordinate
//   - serve: Run the HTTP query API
//   - cache: Manage the snapshot cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sewerflow/sewerflow/pkg/buildinfo"
	"github.com/sewerflow/sewerflow/pkg/cache"
	"github.com/sewerflow/sewerflow/pkg/config"
	"github.com/sewerflow/sewerflow/pkg/manager"
)

// appName is the application name used for directories and display.
const appName = "sewerflow"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Sewerflow answers path and catchment queries over wastewater networks",
		Long:         `Sewerflow builds a directed graph from a wastewater network's node and reach layers and answers shortest-path, downstream and upstream traversal queries against it.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath(), "path to the TOML config file")

	// Register all subcommands
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.pathCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.geometryCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configured TOML file.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// newManager wires a manager over the configured layers.
func (c *CLI) newManager(ctx context.Context, cfg config.Config, resolver manager.CandidateResolver) (*manager.Manager, func(), error) {
	nodes, reaches, cleanup, err := layerSources(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []manager.Option{manager.WithLogger(c.Logger)}
	if resolver != nil {
		opts = append(opts, manager.WithResolver(resolver))
	}
	m := manager.New(opts...)

	if err := m.SetNodeLayer(ctx, nodes); err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := m.SetReachLayer(ctx, reaches); err != nil {
		cleanup()
		return nil, nil, err
	}
	return m, cleanup, nil
}

// newCache creates the snapshot cache backend selected by the config.
func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "file":
		dir := cfg.Cache.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	default:
		return cache.NewNullCache(), nil
	}
}

// cacheDir returns the cache directory using XDG standard (~/.cache/sewerflow/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
