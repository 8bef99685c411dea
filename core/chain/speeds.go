package chain

import (
	"math/big"

	"chainflux/core/linalg"
	"chainflux/core/recipe"
)

// Speeds is a chain's balance structure: the mask of setups free to choose
// their own speed, and one balancing mode per free setup. Every mode is a
// full relative-speed assignment that nets every implicit good to zero.
type Speeds struct {
	free  []bool
	basis [][]*big.Rat
}

// newSpeeds builds the balance matrix and extracts its nullspace. One row
// per implicit good: produced somewhere, consumed somewhere, not exempted.
// One column per setup, holding its signed per-second rate of the good;
// power-mismatched setups hold zero everywhere.
func newSpeeds(c *ProcessingChain) *Speeds {
	n := len(c.setups)
	flowsBySetup := make([]map[recipe.Product]*big.Rat, n)
	for i := range c.setups {
		flowsBySetup[i] = c.setups[i].ProductsPerSec()
	}

	var matrix []*big.Rat
	for _, product := range c.Products() {
		if c.IsExplicitIO(product) || !c.Produces(product) || !c.Consumes(product) {
			continue
		}
		for i := 0; i < n; i++ {
			if rate, ok := flowsBySetup[i][product]; ok {
				matrix = append(matrix, new(big.Rat).Set(rate))
			} else {
				matrix = append(matrix, new(big.Rat))
			}
		}
	}

	free, basis := linalg.Nullspace(matrix, n)
	return &Speeds{free: free, basis: basis}
}

// Free returns the per-setup mask: true marks a free setup. Read-only.
func (s *Speeds) Free() []bool {
	return s.free
}

// Basis returns the balancing modes in free-setup order. Read-only.
func (s *Speeds) Basis() [][]*big.Rat {
	return s.basis
}

// FreeCount returns the number of free setups.
func (s *Speeds) FreeCount() int {
	return len(s.basis)
}

// Rank returns the number of independent balance constraints.
func (s *Speeds) Rank() int {
	return len(s.free) - len(s.basis)
}

// WeightedSpeeds is a chain's single equilibrium speed assignment: the
// weight-scaled combination of the balancing modes, normalized so the
// fastest setup runs at exactly one.
type WeightedSpeeds struct {
	speeds []*big.Rat
}

// newWeightedSpeeds combines the modes in free-setup order, each scaled by
// its own free setup's weight. The combined vector stays inside the
// nullspace, so every implicit good still nets zero; a zero weight silences
// exactly the modes that setup controls.
func newWeightedSpeeds(c *ProcessingChain, s *Speeds) *WeightedSpeeds {
	acc := make([]*big.Rat, len(c.setups))
	for i := range acc {
		acc[i] = new(big.Rat)
	}

	mode := 0
	for col, isFree := range s.free {
		if !isFree {
			continue
		}
		weight := ratFromUint(uint64(c.setups[col].Weight))
		for i, component := range s.basis[mode] {
			acc[i].Add(acc[i], new(big.Rat).Mul(component, weight))
		}
		mode++
	}

	// Normalize by the maximum entry. An identically zero vector has no
	// maximum and stays zero; fully determined chains have no modes and
	// stay stopped.
	max := new(big.Rat)
	for _, speed := range acc {
		if speed.Cmp(max) > 0 {
			max.Set(speed)
		}
	}
	if max.Sign() != 0 {
		for _, speed := range acc {
			speed.Quo(speed, max)
		}
	}

	return &WeightedSpeeds{speeds: acc}
}

// Speeds returns the per-setup relative speeds in chain order. Read-only.
func (w *WeightedSpeeds) Speeds() []*big.Rat {
	return w.speeds
}

// At returns one setup's relative speed.
func (w *WeightedSpeeds) At(i int) *big.Rat {
	return w.speeds[i]
}

// Len returns the number of setups covered.
func (w *WeightedSpeeds) Len() int {
	return len(w.speeds)
}
