package chain

import (
	"bytes"
	"encoding/json"
	"math/big"

	"chainflux/core/recipe"
)

// Weight is a setup's priority when competing for shared goods. It scales
// the setup's own balancing mode during equilibrium weighting and nothing
// else: flow queries at fixed speeds never see it.
type Weight uint64

// DefaultWeight applies when a chain description omits the weight.
const DefaultWeight Weight = 1

// Setup is one recipe bound to the machine population processing it.
type Setup struct {
	// Recipe is the cycle contract the machines run.
	Recipe recipe.Recipe `json:"recipe"`
	// Machines is the physical population.
	Machines Machines `json:"machines"`
	// Weight is the sharing priority, default 1.
	Weight Weight `json:"weight,omitempty"`
}

// NewSetup builds a setup with the default weight.
func NewSetup(r recipe.Recipe, m Machines) Setup {
	return Setup{Recipe: r, Machines: m, Weight: DefaultWeight}
}

// Validate checks the recipe and population invariants together.
func (s *Setup) Validate() error {
	if err := s.Recipe.Validate(); err != nil {
		return err
	}
	return s.Machines.Validate()
}

// SpeedFactor returns the population's combined speed multiplier for the
// recipe, or a PowerMismatch when the population kind disagrees with the
// recipe's power requirement: zero-draw recipes take eco machines, any
// nonzero draw takes powered machines.
func (s *Setup) SpeedFactor() (*big.Rat, error) {
	required, powered := s.Recipe.Voltage()
	switch s.Machines.Kind() {
	case KindEco:
		if powered {
			return nil, &PowerMismatch{RequiresPower: true}
		}
		return ratFromUint(s.Machines.EcoCount()), nil
	default:
		if !powered {
			return nil, &PowerMismatch{RequiresPower: false}
		}
		return s.Machines.Clocked().SpeedFactor(required), nil
	}
}

// EUPerTick returns the population's total power draw per tick, signed the
// same way as the recipe's draw. Eco populations draw nothing.
func (s *Setup) EUPerTick() (*big.Int, error) {
	required, powered := s.Recipe.Voltage()
	switch s.Machines.Kind() {
	case KindEco:
		if powered {
			return nil, &PowerMismatch{RequiresPower: true}
		}
		return new(big.Int), nil
	default:
		if !powered {
			return nil, &PowerMismatch{RequiresPower: false}
		}
		return s.Machines.Clocked().EUPerTick(required, s.Recipe.EUPerTick), nil
	}
}

// PowerError returns the setup's power mismatch, if any.
func (s *Setup) PowerError() *PowerMismatch {
	if _, err := s.SpeedFactor(); err != nil {
		return err.(*PowerMismatch)
	}
	return nil
}

// ProductsPerSec returns the setup's net flow of every good at the
// population's unthrottled speed. A power mismatch yields an empty map:
// misconfigured setups contribute zero flow instead of failing callers.
func (s *Setup) ProductsPerSec() map[recipe.Product]*big.Rat {
	speed, err := s.SpeedFactor()
	if err != nil {
		return map[recipe.Product]*big.Rat{}
	}
	flows := s.Recipe.ProductsPerSec()
	for product, rate := range flows {
		flows[product] = rate.Mul(rate, speed)
	}
	return flows
}

// MarshalJSON omits the weight at its default so serialized chains recall
// the original description shape.
func (s Setup) MarshalJSON() ([]byte, error) {
	wire := struct {
		Recipe   recipe.Recipe `json:"recipe"`
		Machines Machines      `json:"machines"`
		Weight   *Weight       `json:"weight,omitempty"`
	}{Recipe: s.Recipe, Machines: s.Machines}
	if s.Weight != DefaultWeight {
		wire.Weight = &s.Weight
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes strictly, applies the weight default, and validates
// so no load path accepts a malformed setup.
func (s *Setup) UnmarshalJSON(data []byte) error {
	type plain Setup
	wire := plain{Weight: DefaultWeight}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return err
	}
	*s = Setup(wire)
	return s.Validate()
}
