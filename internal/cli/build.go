package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sewerflow/sewerflow/pkg/cache"
	"github.com/sewerflow/sewerflow/pkg/manager"
	"github.com/sewerflow/sewerflow/pkg/netio"
	"github.com/sewerflow/sewerflow/pkg/network"
	"github.com/sewerflow/sewerflow/pkg/render"
)

// buildCommand creates the "build" command.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		jsonOut string
		dotOut  string
		svgOut  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the network graph from the configured layers",
		Long: `Build reads the node and reach layers, constructs the directed network
graph, and reports its size. Records that cannot be fully used (missing
geometry, unresolvable reach endpoints) are reported but never abort the
build. With a snapshot cache configured, a snapshot built earlier from
the same layer pair is reused and the build is skipped; --no-cache
forces a fresh build. The snapshot can be exported as JSON, DOT, or SVG.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			nodes, reaches, cleanup, err := layerSources(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			var store *cache.SnapshotStore
			if !noCache && cfg.Cache.Backend != "" && cfg.Cache.Backend != "none" {
				backend, err := c.newCache(ctx, cfg)
				if err != nil {
					printWarning("snapshot cache unavailable: %v", err)
				} else {
					defer backend.Close()
					store = cache.NewSnapshotStore(backend, nil, cfg.Cache.TTL.Duration())
				}
			}

			if store != nil {
				g, snapshotID, ok, err := store.Load(ctx, nodes.ID(), reaches.ID())
				if err != nil {
					printWarning("read snapshot cache: %v", err)
				} else if ok {
					printSuccess("Reusing cached snapshot %s", snapshotID)
					printStats(g.NodeCount(), g.EdgeCount(), 0)
					return exportGraph(g, snapshotID, jsonOut, dotOut, svgOut)
				}
			}

			s := newSpinnerWithContext(ctx, "Building network graph")
			s.Start()
			m := manager.New(manager.WithLogger(c.Logger))
			if err := m.SetNodeLayer(ctx, nodes); err != nil {
				s.Stop()
				return err
			}
			if err := m.SetReachLayer(ctx, reaches); err != nil {
				s.Stop()
				return err
			}
			s.Stop()

			g, err := m.Graph(ctx)
			if err != nil {
				return err
			}
			report := m.Report()

			printSuccess("Built network snapshot %s", m.SnapshotID())
			printStats(report.Nodes, report.Edges, len(report.SkippedEdges))
			if report.NodesWithoutGeometry > 0 {
				printWarning("%d nodes without usable geometry", report.NodesWithoutGeometry)
			}
			for _, ph := range report.Phases {
				printDetail("%s: %s", ph.Name, ph.Elapsed)
			}

			if store != nil {
				if err := store.Store(ctx, nodes.ID(), reaches.ID(), m.SnapshotID(), g); err != nil {
					printWarning("store snapshot: %v", err)
				} else {
					printDetail("snapshot cached")
				}
			}

			return exportGraph(g, m.SnapshotID(), jsonOut, dotOut, svgOut)
		},
	}

	cmd.Flags().StringVar(&jsonOut, "json", "", "write the graph as JSON to this file")
	cmd.Flags().StringVar(&dotOut, "dot", "", "write the graph as Graphviz DOT to this file")
	cmd.Flags().StringVar(&svgOut, "svg", "", "render the graph as SVG to this file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore the snapshot cache for this build")

	return cmd
}

// exportGraph writes the requested output files for a snapshot.
func exportGraph(g *network.Graph, snapshotID, jsonOut, dotOut, svgOut string) error {
	if jsonOut != "" {
		if err := netio.ExportJSON(g, snapshotID, jsonOut); err != nil {
			return err
		}
		printFile(jsonOut)
	}
	if dotOut == "" && svgOut == "" {
		return nil
	}

	dot := render.ToDOT(g, render.Options{})
	if dotOut != "" {
		if err := writeFile(dotOut, []byte(dot)); err != nil {
			return err
		}
		printFile(dotOut)
	}
	if svgOut != "" {
		svg, err := render.RenderSVG(dot)
		if err != nil {
			return fmt.Errorf("render svg: %w", err)
		}
		if err := writeFile(svgOut, svg); err != nil {
			return err
		}
		printFile(svgOut)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
