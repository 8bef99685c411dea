// Package report assembles the solved view of a processing chain.
// A report is pure derived data: per-setup equilibrium state plus chain
// totals at the three flow granularities. All quantities stay exact
// rationals; rendering decides precision.
package report

import (
	"math/big"

	"chainflux/core/chain"
	"chainflux/core/recipe"
)

// Report is the complete solved view of one chain.
type Report struct {
	// Setups holds one row per setup, in chain order.
	Setups []SetupReport

	// Equilibrium aggregates flow and power at the weighted equilibrium.
	Equilibrium *chain.Flows

	// Unthrottled aggregates with every setup at full speed.
	Unthrottled *chain.Flows

	// PerRecipe aggregates one nominal machine per recipe.
	PerRecipe *chain.Flows

	// ExplicitIO lists the goods exempt from balancing, sorted.
	ExplicitIO []recipe.Product

	// FreeCount is the number of setups free to choose their own speed.
	FreeCount int

	// Rank is the number of independent balance constraints.
	Rank int
}

// SetupReport is the solved state of one setup.
type SetupReport struct {
	// Index is the setup's position in the chain.
	Index int

	// Machine is the machine type name.
	Machine recipe.MachineName

	// Machines renders the population.
	Machines string

	// Count is the number of physical machines.
	Count uint64

	// Weight is the sharing priority.
	Weight chain.Weight

	// Speed is the relative equilibrium speed, in [0, 1].
	Speed *big.Rat

	// Free marks setups whose speed is a degree of freedom of the chain
	// rather than forced by the balance constraints.
	Free bool

	// Mismatch is set when the population kind disagrees with the recipe's
	// power requirement. Mismatched setups run at their reported speed but
	// move no goods and no power.
	Mismatch *chain.PowerMismatch

	// EUPerTick is the setup's power draw at the equilibrium speed.
	EUPerTick *big.Rat

	// Flows is the setup's net per-second good movement at the equilibrium
	// speed. Empty for mismatched setups.
	Flows map[recipe.Product]*big.Rat
}

// Build solves the chain and assembles its report.
func Build(c *chain.ProcessingChain) *Report {
	structure := c.Speeds()
	speeds := c.WeightedSpeeds()

	r := &Report{
		Setups:      make([]SetupReport, 0, c.Len()),
		Equilibrium: c.FlowsAtEquilibrium(),
		Unthrottled: c.FlowsUnthrottled(),
		PerRecipe:   c.FlowsPerRecipe(),
		ExplicitIO:  c.ExplicitIO(),
		FreeCount:   structure.FreeCount(),
		Rank:        structure.Rank(),
	}

	for i := 0; i < c.Len(); i++ {
		s := c.At(i)
		speed := speeds.At(i)

		row := SetupReport{
			Index:    i,
			Machine:  s.Recipe.Machine,
			Machines: s.Machines.String(),
			Count:    s.Machines.Count(),
			Weight:   s.Weight,
			Speed:    speed,
			Free:     structure.Free()[i],
			Mismatch: s.PowerError(),
			Flows:    make(map[recipe.Product]*big.Rat),
		}

		for product, rate := range s.ProductsPerSec() {
			row.Flows[product] = rate.Mul(rate, speed)
		}

		row.EUPerTick = new(big.Rat)
		if eu, err := s.EUPerTick(); err == nil {
			row.EUPerTick.SetInt(eu)
			row.EUPerTick.Mul(row.EUPerTick, speed)
		}

		r.Setups = append(r.Setups, row)
	}

	return r
}

// Balanced reports whether every implicitly balanced good nets to zero at
// the equilibrium. Holds by construction; exposed for callers that assert.
func (r *Report) Balanced(c *chain.ProcessingChain) bool {
	for _, product := range r.Equilibrium.Products() {
		if c.IsExplicitIO(product) || !c.Produces(product) || !c.Consumes(product) {
			continue
		}
		if r.Equilibrium.Rate(product).Sign() != 0 {
			return false
		}
	}
	return true
}
