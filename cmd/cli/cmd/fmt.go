// Package cmd - fmt command
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"chainflux/adapters/chainfile"
)

var fmtTo string

// fmtCmd represents the fmt command
var fmtCmd = &cobra.Command{
	Use:   "fmt <chain-file>",
	Short: "Re-encode a chain description canonically",
	Long: `Load a chain description and print its canonical encoding to stdout.
Loading validates the chain, so fmt doubles as a syntax check.

With --to the chain converts between formats. HCL descriptions are
hand-written, so converting to HCL is not supported.

Examples:
  chainflux fmt chain.json
  chainflux fmt --to yaml chain.json > chain.yaml
  chainflux fmt --to json chain.hcl > chain.json`,
	Args: cobra.ExactArgs(1),
	RunE: runFmt,
}

func init() {
	fmtCmd.Flags().StringVar(&fmtTo, "to", "json", "target format (json, yaml)")
}

func runFmt(cmd *cobra.Command, args []string) error {
	c, err := chainfile.Load(args[0])
	if err != nil {
		return err
	}

	format, err := chainfile.ParseFormat(fmtTo)
	if err != nil {
		return err
	}

	data, err := chainfile.Encode(c, format)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(data)
	return err
}
