// Package api - API types for chain solving
// These types define the contract for the /api endpoints.
// API is stateless, idempotent, and deterministic.
package api

import (
	"encoding/json"

	"chainflux/core/chain"
)

// SolveResponse is the output of POST /api/solve
type SolveResponse struct {
	// Report is the rendered equilibrium report. Exact rationals travel as
	// strings alongside decimal convenience fields.
	Report json.RawMessage `json:"report"`

	// Metadata for request tracking
	Metadata *ResponseMetadata `json:"metadata,omitempty"`
}

// ResponseMetadata tracks request provenance
type ResponseMetadata struct {
	// InputHash is the sha256 of the submitted chain document
	InputHash string `json:"input_hash"`

	// EngineVersion identifies the solver build
	EngineVersion string `json:"engine_version"`

	// DurationMs is the server-side processing time
	DurationMs int64 `json:"duration_ms"`
}

// InspectResponse is the output of POST /api/inspect.
// Inspection reads each setup in isolation and never solves.
type InspectResponse struct {
	// Setups are the chain's setups in description order
	Setups []InspectSetup `json:"setups"`

	// Products lists every good any setup touches
	Products []string `json:"products"`

	// ExplicitIO lists goods exempt from balancing
	ExplicitIO []string `json:"explicit_io,omitempty"`
}

// InspectSetup describes one setup's static configuration
type InspectSetup struct {
	Index    int    `json:"index"`
	Machine  string `json:"machine"`
	Machines string `json:"machines"`
	Count    uint64 `json:"count"`
	Weight   uint64 `json:"weight"`
	Ticks    uint64 `json:"ticks"`

	// RecipeEUPerTick is the single-machine draw, negative for generators
	RecipeEUPerTick int64 `json:"recipe_eu_per_tick"`

	// Voltage is the tier the recipe demands, empty for eco recipes
	Voltage string `json:"voltage,omitempty"`

	// SpeedFactor is the population's exact unthrottled speed multiplier
	SpeedFactor string `json:"speed_factor,omitempty"`

	// SetupEUPerTick is the whole population's exact draw
	SetupEUPerTick string `json:"setup_eu_per_tick,omitempty"`

	// Flows maps each good to the setup's exact unthrottled per-second rate
	Flows map[string]string `json:"flows,omitempty"`

	// PowerMismatch explains why the setup cannot run, empty when healthy
	PowerMismatch string `json:"power_mismatch,omitempty"`
}

// ErrorEnvelope is the error response body for every endpoint
type ErrorEnvelope struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

func inspectSetup(index int, s *chain.Setup) InspectSetup {
	out := InspectSetup{
		Index:           index,
		Machine:         string(s.Recipe.Machine),
		Machines:        s.Machines.String(),
		Count:           s.Machines.Count(),
		Weight:          uint64(s.Weight),
		Ticks:           s.Recipe.Ticks,
		RecipeEUPerTick: s.Recipe.EUPerTick,
	}

	if tier, powered := s.Recipe.Voltage(); powered {
		out.Voltage = tier.String()
	}

	if mismatch := s.PowerError(); mismatch != nil {
		out.PowerMismatch = mismatch.Error()
		return out
	}

	if speed, err := s.SpeedFactor(); err == nil {
		out.SpeedFactor = speed.RatString()
	}
	if eu, err := s.EUPerTick(); err == nil {
		out.SetupEUPerTick = eu.String()
	}

	flows := s.ProductsPerSec()
	if len(flows) > 0 {
		out.Flows = make(map[string]string, len(flows))
		for product, rate := range flows {
			out.Flows[string(product)] = rate.RatString()
		}
	}
	return out
}
