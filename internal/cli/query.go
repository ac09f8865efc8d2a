package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sewerflow/sewerflow/pkg/errors"
	"github.com/sewerflow/sewerflow/pkg/manager"
)

// pathCommand creates the "path" command.
func (c *CLI) pathCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path <from-id> <to-id>",
		Short: "Compute the shortest path between two nodes",
		Long: `Path computes the minimum-total-length route from one node to another,
following reach directions. An unreachable target is a normal outcome and
reported as such, not an error.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseIDPair(args[0], args[1])
			if err != nil {
				return err
			}

			m, cleanup, err := c.managerFromConfig(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			prog := newProgress(c.Logger)
			res, err := m.ShortestPath(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			prog.done("Query finished")

			if res.Empty() {
				printInfo("No path from %d to %d", from, to)
				return nil
			}

			printSuccess("Path with %d reaches, total length %.2f", len(res.Edges), res.TotalWeight())
			for i, e := range res.Edges {
				printDetail("%2d. %s  %d %s %d  (%.2f)", i+1, e.ObjID, e.From, iconArrow, e.To, e.Weight)
			}
			return nil
		},
	}
	return cmd
}

// treeCommand creates the "tree" command.
func (c *CLI) treeCommand() *cobra.Command {
	var upstream bool

	cmd := &cobra.Command{
		Use:   "tree <node-id>",
		Short: "Compute the traversal tree of a node",
		Long: `Tree lists everything reachable downstream of a node. With --upstream it
lists everything that drains into the node instead; reported reaches keep
their original flow direction either way.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := parseID(args[0])
			if err != nil {
				return err
			}

			m, cleanup, err := c.managerFromConfig(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := m.Tree(cmd.Context(), node, upstream)
			if err != nil {
				return err
			}

			direction := "downstream"
			if upstream {
				direction = "upstream"
			}
			printSuccess("%d nodes, %d reaches %s of %d",
				len(res.Nodes), len(res.Edges), direction, node)

			var total float64
			for _, e := range res.Edges {
				total += e.Weight
			}
			printKeyValue("length", fmt.Sprintf("%.2f", total))
			for _, e := range res.Edges {
				printDetail("%s  %d %s %d  (%.2f)", e.ObjID, e.From, iconArrow, e.To, e.Weight)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&upstream, "upstream", "u", false, "traverse against the flow direction")
	return cmd
}

// geometryCommand creates the "geometry" command.
func (c *CLI) geometryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "geometry <from-id> <to-id>",
		Short: "Print the geometry of the reach between two nodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseIDPair(args[0], args[1])
			if err != nil {
				return err
			}

			m, cleanup, err := c.managerFromConfig(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			line, err := m.EdgeGeometry(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			fmt.Println(line.String())
			return nil
		},
	}
}

// managerFromConfig loads the config and wires a manager for one-shot
// query commands.
func (c *CLI) managerFromConfig(cmd *cobra.Command) (*manager.Manager, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return c.newManager(cmd.Context(), cfg, nil)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "node id %q", raw)
	}
	return id, nil
}

func parseIDPair(rawFrom, rawTo string) (int64, int64, error) {
	from, err := parseID(rawFrom)
	if err != nil {
		return 0, 0, err
	}
	to, err := parseID(rawTo)
	if err != nil {
		return 0, 0, err
	}
	return from, to, nil
}
