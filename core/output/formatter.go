// Package output provides output formatting for solved chains.
// This package produces human and machine-readable renderings of a report.
package output

import (
	"io"

	"chainflux/core/report"
	"chainflux/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatTable is a human-readable CLI table
	FormatTable Format = "table"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given report
	Render(w io.Writer, r *report.Report) error
}

// FlowView selects which flow granularity the table renderer prints.
// JSON output always carries all three.
type FlowView int

const (
	// FlowEquilibrium shows net flows at the solved speeds.
	FlowEquilibrium FlowView = iota

	// FlowUnthrottled shows net flows with every setup at full speed.
	FlowUnthrottled

	// FlowPerRecipe shows net flows of one nominal machine of every recipe.
	FlowPerRecipe
)

// Options control rendering detail shared by every format.
type Options struct {
	// Precision is the number of decimal places for approximate numbers.
	Precision int32

	// ShowPower includes power draw in the output.
	ShowPower bool

	// ShowMachines includes machine populations in per-setup rows.
	ShowMachines bool

	// FlowView is the flow table the table renderer shows.
	FlowView FlowView
}

// DefaultOptions returns the rendering defaults.
func DefaultOptions() Options {
	return Options{
		Precision:    2,
		ShowPower:    true,
		ShowMachines: true,
		FlowView:     FlowEquilibrium,
	}
}

// NewTable returns the boxed CLI table formatter.
func NewTable(opts Options) Formatter {
	return &tableFormatter{opts: opts}
}

// NewJSON returns the JSON formatter.
func NewJSON(opts Options) Formatter {
	return &jsonFormatter{opts: opts}
}

// ForFormat returns the formatter for a format name.
func ForFormat(name string, opts Options) (Formatter, error) {
	switch Format(name) {
	case FormatTable:
		return NewTable(opts), nil
	case FormatJSON:
		return NewJSON(opts), nil
	default:
		return nil, errors.Newf(errors.TypeInput, "unknown output format: %s", name)
	}
}
