// Package cmd - solve command
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chainflux/adapters/chainfile"
	"chainflux/core/output"
	"chainflux/core/recipe"
	"chainflux/core/report"
	"chainflux/internal/errors"
	"chainflux/internal/logging"
)

var (
	solveFormat   string
	solveView     string
	solveExplicit []string
)

// solveCmd represents the solve command
var solveCmd = &cobra.Command{
	Use:   "solve <chain-file>",
	Short: "Solve a chain for its flux equilibrium",
	Long: `Load a chain description and solve for the speed of every setup at
which all intermediate goods balance.

The file format is detected from the extension (.json, .yaml, .hcl).
Goods named with --explicit-io are exempt from balancing on top of any
the file already exempts.

Examples:
  chainflux solve chain.json
  chainflux solve --format json chain.yaml
  chainflux solve --view recipe chain.json
  chainflux solve --explicit-io water --explicit-io oxygen chain.hcl`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&solveFormat, "format", "f", "", "output format (table, json)")
	solveCmd.Flags().StringVar(&solveView, "view", "speed", "flow table to show (recipe, setup, speed)")
	solveCmd.Flags().StringSliceVar(&solveExplicit, "explicit-io", nil, "exempt a good from balancing (repeatable)")
}

func runSolve(cmd *cobra.Command, args []string) error {
	c, err := chainfile.Load(args[0])
	if err != nil {
		return err
	}

	for _, name := range solveExplicit {
		c.AddExplicitIO(recipe.Product(name))
	}

	logging.Info("solving chain",
		zap.String("file", args[0]),
		zap.Int("setups", c.Len()))

	format, opts := outputOptions()
	if solveFormat != "" {
		format = solveFormat
	}
	opts.FlowView, err = parseFlowView(solveView)
	if err != nil {
		return err
	}

	formatter, err := output.ForFormat(format, opts)
	if err != nil {
		return err
	}
	return formatter.Render(os.Stdout, report.Build(c))
}

// parseFlowView maps the --view vocabulary onto flow granularities: recipe
// shows single-machine rates, setup shows unthrottled populations, speed
// shows the solved equilibrium.
func parseFlowView(name string) (output.FlowView, error) {
	switch name {
	case "", "speed":
		return output.FlowEquilibrium, nil
	case "setup":
		return output.FlowUnthrottled, nil
	case "recipe":
		return output.FlowPerRecipe, nil
	default:
		return 0, errors.Newf(errors.TypeInput, "unknown view: %s", name)
	}
}
