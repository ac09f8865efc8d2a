package cli

import (
	"github.com/spf13/cobra"

	"github.com/sewerflow/sewerflow/pkg/buildinfo"
	"github.com/sewerflow/sewerflow/pkg/server"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query API",
		Long: `Serve builds the network graph and exposes it over HTTP: JSON export,
shortest-path, traversal-tree and geometry queries, plus a refresh
endpoint that rebuilds the graph from the layers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			c.Logger.Debug("starting", "build", buildinfo.String())

			s := newSpinnerWithContext(ctx, "Building network graph")
			s.Start()
			m, cleanup, err := c.newManager(ctx, cfg, nil)
			s.Stop()
			if err != nil {
				return err
			}
			defer cleanup()

			report := m.Report()
			printSuccess("Network ready")
			printStats(report.Nodes, report.Edges, len(report.SkippedEdges))
			printKeyValue("listening", cfg.Server.Addr)

			srv := server.New(m, server.WithLogger(c.Logger))
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides the config)")
	return cmd
}
