package output

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"chainflux/core/report"
)

// tableFormatter renders a report as a boxed CLI table.
type tableFormatter struct {
	opts Options
}

func (f *tableFormatter) Format() Format {
	return FormatTable
}

var (
	ruleTop    = "┌" + strings.Repeat("─", 74) + "┐"
	ruleMid    = "├" + strings.Repeat("─", 74) + "┤"
	ruleBottom = "└" + strings.Repeat("─", 74) + "┘"
)

func (f *tableFormatter) Render(w io.Writer, r *report.Report) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, ruleTop)
	row(bw, fmt.Sprintf("%-72s", "PROCESSING CHAIN EQUILIBRIUM"))
	fmt.Fprintln(bw, ruleMid)
	row(bw, fmt.Sprintf("%2s  %-38s %-17s %11s", "#", "SETUP", "MACHINES", "SPEED"))
	fmt.Fprintln(bw, ruleMid)

	for _, s := range r.Setups {
		machines := ""
		if f.opts.ShowMachines {
			machines = s.Machines
		}
		row(bw, fmt.Sprintf("%2d  %-38s %-17s %11s",
			s.Index+1, truncate(string(s.Machine), 38), truncate(machines, 17), f.percent(s.Speed)))
		if s.Mismatch != nil {
			row(bw, fmt.Sprintf("    └─ %-65s", truncate(s.Mismatch.Error(), 65)))
		} else if s.Free {
			row(bw, fmt.Sprintf("    └─ %-65s", "free: speed chosen by weight"))
		}
	}

	flows, label := r.Equilibrium, "NET FLOW PER SECOND"
	switch f.opts.FlowView {
	case FlowUnthrottled:
		flows, label = r.Unthrottled, "NET FLOW PER SECOND (UNTHROTTLED)"
	case FlowPerRecipe:
		flows, label = r.PerRecipe, "NET FLOW PER SECOND (SINGLE MACHINES)"
	}

	fmt.Fprintln(bw, ruleMid)
	row(bw, fmt.Sprintf("%-72s", label))
	moved := false
	for _, product := range flows.Products() {
		rate := flows.Rate(product)
		if rate.Sign() == 0 {
			continue
		}
		moved = true
		row(bw, fmt.Sprintf("  %-54s %15s", truncate(string(product), 54), f.signed(rate)))
	}
	if !moved {
		row(bw, fmt.Sprintf("  %-70s", "(no net flow)"))
	}

	if f.opts.ShowPower {
		fmt.Fprintln(bw, ruleMid)
		row(bw, fmt.Sprintf("%-54s %17s", "POWER", f.signed(flows.EUPerTick())+" EU/t"))
	}

	fmt.Fprintln(bw, ruleBottom)
	fmt.Fprintf(bw, "\nDegrees of freedom: %d of %d setups free (%d balance constraints)\n",
		r.FreeCount, len(r.Setups), r.Rank)

	return bw.Flush()
}

func row(w io.Writer, content string) {
	fmt.Fprintf(w, "│ %s │\n", content)
}

// percent renders a unit-interval speed as a fixed-precision percentage.
func (f *tableFormatter) percent(speed *big.Rat) string {
	scaled := new(big.Rat).Mul(speed, big.NewRat(100, 1))
	return decimal.NewFromBigRat(scaled, f.opts.Precision).StringFixed(f.opts.Precision) + "%"
}

// signed renders a rate with an explicit sign so production and
// consumption read apart at a glance.
func (f *tableFormatter) signed(rate *big.Rat) string {
	d := decimal.NewFromBigRat(rate, f.opts.Precision)
	s := d.StringFixed(f.opts.Precision)
	if d.Sign() > 0 {
		s = "+" + s
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
