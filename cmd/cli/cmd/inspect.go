// Package cmd - inspect command
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chainflux/adapters/chainfile"
	"chainflux/core/chain"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <chain-file>",
	Short: "Show each setup's configuration without solving",
	Long: `Load a chain description and print every setup's machine population,
required voltage, speed factor, and power draw. Nothing is solved; the
command reads each setup in isolation.

Examples:
  chainflux inspect chain.json
  chainflux inspect examples/electrolysis.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	c, err := chainfile.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println("┌──────────────────────────────────────────────────────────────────────────┐")
	fmt.Printf("│ %-72s │\n", "CHAIN INSPECTION")
	fmt.Println("├──────────────────────────────────────────────────────────────────────────┤")
	fmt.Printf("│ %2s  %-24s %-14s %-8s %-8s %10s │\n", "#", "SETUP", "MACHINES", "VOLTAGE", "SPEED", "EU/t")
	fmt.Println("├──────────────────────────────────────────────────────────────────────────┤")

	for i := 0; i < c.Len(); i++ {
		s := c.At(i)
		fmt.Printf("│ %2d  %-24s %-14s %-8s %-8s %10s │\n",
			i+1,
			truncate(string(s.Recipe.Machine), 24),
			truncate(s.Machines.String(), 14),
			voltageColumn(s),
			truncate(speedColumn(s), 8),
			truncate(euColumn(s), 10))
		if mismatch := s.PowerError(); mismatch != nil {
			fmt.Printf("│     └─ %-65s │\n", truncate(mismatch.Error(), 65))
		}
	}

	if explicit := c.ExplicitIO(); len(explicit) > 0 {
		names := make([]string, 0, len(explicit))
		for _, p := range explicit {
			names = append(names, string(p))
		}
		fmt.Println("├──────────────────────────────────────────────────────────────────────────┤")
		fmt.Printf("│ %-72s │\n", "EXPLICIT IO")
		fmt.Printf("│   %-70s │\n", truncate(strings.Join(names, ", "), 70))
	}
	fmt.Println("└──────────────────────────────────────────────────────────────────────────┘")

	fmt.Printf("\n%d setups, %d products\n", c.Len(), len(c.Products()))
	return nil
}

func voltageColumn(s *chain.Setup) string {
	tier, powered := s.Recipe.Voltage()
	if !powered {
		return "eco"
	}
	return tier.String()
}

func speedColumn(s *chain.Setup) string {
	speed, err := s.SpeedFactor()
	if err != nil {
		return "-"
	}
	return "x" + speed.RatString()
}

func euColumn(s *chain.Setup) string {
	eu, err := s.EUPerTick()
	if err != nil {
		return "-"
	}
	return eu.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
