// Package api - HTTP handler for chain solving
// This handler wraps the solver - it contains NO balance math.
// All logic is delegated to core packages.
package api

import (
	"bytes"
	"encoding/json"

	"go.uber.org/zap"

	"chainflux/adapters/chainfile"
	"chainflux/core/output"
	"chainflux/core/report"
	"chainflux/internal/errors"
	"chainflux/internal/logging"
)

// Handler executes solver operations for the HTTP layer
type Handler struct {
	formatter output.Formatter
}

// NewHandler creates a handler rendering reports with the given options
func NewHandler(opts output.Options) *Handler {
	return &Handler{formatter: output.NewJSON(opts)}
}

// solve parses a chain document, solves it, and renders the report
func (h *Handler) solve(data []byte) (json.RawMessage, error) {
	c, err := chainfile.Parse(data, chainfile.FormatJSON)
	if err != nil {
		return nil, err
	}

	logging.Debug("solving chain",
		zap.Int("setups", c.Len()),
		zap.Int("products", len(c.Products())))

	var buf bytes.Buffer
	if err := h.formatter.Render(&buf, report.Build(c)); err != nil {
		return nil, errors.Internal("rendering report", err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

// inspect parses a chain document and reads each setup's static
// configuration without solving
func (h *Handler) inspect(data []byte) (*InspectResponse, error) {
	c, err := chainfile.Parse(data, chainfile.FormatJSON)
	if err != nil {
		return nil, err
	}

	resp := &InspectResponse{
		Setups:   make([]InspectSetup, 0, c.Len()),
		Products: make([]string, 0, len(c.Products())),
	}
	for i := 0; i < c.Len(); i++ {
		resp.Setups = append(resp.Setups, inspectSetup(i, c.At(i)))
	}
	for _, p := range c.Products() {
		resp.Products = append(resp.Products, string(p))
	}
	for _, p := range c.ExplicitIO() {
		resp.ExplicitIO = append(resp.ExplicitIO, string(p))
	}
	return resp, nil
}
