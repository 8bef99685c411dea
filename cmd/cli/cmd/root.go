// Package cmd provides the CLI commands for chainflux.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chainflux/core/output"
	"chainflux/internal/config"
	"chainflux/internal/errors"
	"chainflux/internal/logging"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chainflux",
	Short: "Balance production chains into flux equilibrium",
	Long: `chainflux solves networks of production machines for the speeds at
which every intermediate good is produced exactly as fast as it is
consumed. All arithmetic is exact: speeds and rates are rationals,
never floats.

Examples:
  chainflux solve chain.json
  chainflux solve --format json chain.yaml
  chainflux inspect chain.hcl
  chainflux fmt --to yaml chain.json`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch errors.TypeOf(err) {
	case errors.TypeInput:
		return 2
	case errors.TypeParsing:
		return 3
	case errors.TypeValidation:
		return 4
	case errors.TypeNotFound:
		return 5
	case errors.TypeConfig:
		return 6
	case errors.TypeNotSupported:
		return 7
	default:
		return 1
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chainflux/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")

	// Add subcommands
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(ExitCode(err))
	}
	config.Set(cfg)

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// outputOptions derives renderer options from the active configuration.
func outputOptions() (string, output.Options) {
	cfg := config.Get()
	return cfg.Output.DefaultFormat, output.Options{
		Precision:    cfg.Output.Precision,
		ShowPower:    cfg.Output.ShowPower,
		ShowMachines: cfg.Output.ShowMachines,
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("chainflux version 1.0.0")
	},
}
