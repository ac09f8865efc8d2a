package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sewerflow/sewerflow/pkg/errors"
	"github.com/sewerflow/sewerflow/pkg/geom"
	"github.com/sewerflow/sewerflow/pkg/manager"
)

// resolveCommand creates the "resolve" command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		tolerance   float64
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <x> <y>",
		Short: "Find the network node at a map coordinate",
		Long: `Resolve finds the node nearest to a coordinate. When several nodes share
the location, the hydraulic node is preferred automatically; with
--interactive the choice is offered as a list instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseCoord(args[0])
			if err != nil {
				return err
			}
			y, err := parseCoord(args[1])
			if err != nil {
				return err
			}

			var resolver manager.CandidateResolver
			if interactive {
				resolver = interactiveResolver()
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			m, cleanup, err := c.newManager(cmd.Context(), cfg, resolver)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := m.ResolveNode(cmd.Context(), geom.Point{X: x, Y: y}, tolerance)
			if err != nil {
				return err
			}

			printSuccess("Node %s", n.ObjID)
			printKeyValue("id", strconv.FormatInt(n.ID, 10))
			printKeyValue("kind", n.Kind)
			if n.HasPoint {
				printKeyValue("location", n.Point.String())
			}
			return nil
		},
	}

	cmd.Flags().Float64VarP(&tolerance, "tolerance", "t", 1.0, "search radius in layer units")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick interactively when the location is ambiguous")
	return cmd
}

func parseCoord(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "coordinate %q", raw)
	}
	return v, nil
}
