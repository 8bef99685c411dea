// Package recipe - goods and production recipes
// A recipe describes one cycle of one machine: what it consumes, what it
// produces, what must merely be present, how long the cycle runs, and how
// much power it draws. All derived quantities are exact rationals.
package recipe

import (
	"fmt"
	"math/big"
	"sort"

	"chainflux/core/voltage"
)

// TicksPerSecond converts cycle durations to wall time.
const TicksPerSecond = 20

// Product is an opaque good name. Identity is purely nominal; products
// compare and sort by name.
type Product string

// MachineName is the opaque name of a machine type.
type MachineName string

// ProductCount pairs a good with a positive stoichiometric count.
type ProductCount struct {
	// Product is the good moved by one cycle.
	Product Product `json:"product"`
	// Count is the per-cycle quantity. Always positive; direction comes from
	// whether the pair sits in a consumed or produced list.
	Count uint64 `json:"count"`
}

// ProductRole selects one of a recipe's three good lists.
type ProductRole int

// Roles a good can hold within a recipe.
const (
	RoleConsumed ProductRole = iota
	RoleProduced
	RoleCatalyst
)

// String returns the role's list name.
func (r ProductRole) String() string {
	switch r {
	case RoleConsumed:
		return "consumed"
	case RoleProduced:
		return "produced"
	case RoleCatalyst:
		return "catalysts"
	default:
		return fmt.Sprintf("ProductRole(%d)", int(r))
	}
}

// Recipe is one machine cycle's contract.
type Recipe struct {
	// Machine names the machine type that runs the recipe.
	Machine MachineName `json:"machine"`
	// Ticks is the cycle duration. 20 ticks equal one second. Always positive.
	Ticks uint64 `json:"ticks"`
	// EUPerTick is the power drawn every tick while the cycle runs. Positive
	// means the recipe consumes power, negative means it generates power,
	// zero means the recipe runs on unpowered machines.
	EUPerTick int64 `json:"eu_per_tick,omitempty"`
	// Catalysts are goods that must be present but are neither consumed nor
	// produced.
	Catalysts []Product `json:"catalysts,omitempty"`
	// Consumed lists the goods one cycle uses up.
	Consumed []ProductCount `json:"consumed,omitempty"`
	// Produced lists the goods one cycle yields.
	Produced []ProductCount `json:"produced,omitempty"`
}

// Validate checks the structural invariants shared by every load path:
// a positive cycle duration and positive stoichiometric counts.
func (r *Recipe) Validate() error {
	if r.Ticks == 0 {
		return fmt.Errorf("recipe %q: ticks must be positive", r.Machine)
	}
	for _, pc := range r.Consumed {
		if pc.Count == 0 {
			return fmt.Errorf("recipe %q: consumed %q has zero count", r.Machine, pc.Product)
		}
	}
	for _, pc := range r.Produced {
		if pc.Count == 0 {
			return fmt.Errorf("recipe %q: produced %q has zero count", r.Machine, pc.Product)
		}
	}
	return nil
}

// RequiresPower reports whether the recipe needs powered machines. Any
// nonzero draw does, in either direction.
func (r *Recipe) RequiresPower() bool {
	return r.EUPerTick != 0
}

// GeneratesPower reports whether the recipe outputs power instead of
// drawing it.
func (r *Recipe) GeneratesPower() bool {
	return r.EUPerTick < 0
}

// Voltage returns the tier implied by the recipe's power draw. The second
// return is false for zero-draw recipes, which have no tier.
func (r *Recipe) Voltage() (voltage.Voltage, bool) {
	if r.EUPerTick == 0 {
		return 0, false
	}
	eu := r.EUPerTick
	if eu < 0 {
		eu = -eu
	}
	return voltage.FromPower(uint64(eu)), true
}

// Seconds returns the cycle duration in seconds as an exact rational.
func (r *Recipe) Seconds() *big.Rat {
	return big.NewRat(int64(r.Ticks), TicksPerSecond)
}

// TotalEU returns the energy moved by one full cycle.
func (r *Recipe) TotalEU() *big.Int {
	total := new(big.Int).SetUint64(r.Ticks)
	return total.Mul(total, big.NewInt(r.EUPerTick))
}

// ProductCounts nets the per-cycle movement of every consumed or produced
// good: consumed counts negative, produced counts positive, goods appearing
// on both sides summed. Catalysts never appear.
func (r *Recipe) ProductCounts() map[Product]*big.Int {
	counts := make(map[Product]*big.Int, len(r.Consumed)+len(r.Produced))
	add := func(p Product, delta *big.Int) {
		if current, ok := counts[p]; ok {
			current.Add(current, delta)
			return
		}
		counts[p] = delta
	}
	for _, pc := range r.Consumed {
		add(pc.Product, new(big.Int).Neg(new(big.Int).SetUint64(pc.Count)))
	}
	for _, pc := range r.Produced {
		add(pc.Product, new(big.Int).SetUint64(pc.Count))
	}
	return counts
}

// ProductsPerSec returns the net signed flow of every consumed or produced
// good for a single machine running the recipe unthrottled.
func (r *Recipe) ProductsPerSec() map[Product]*big.Rat {
	seconds := r.Seconds()
	flows := make(map[Product]*big.Rat)
	for product, count := range r.ProductCounts() {
		rate := new(big.Rat).SetInt(count)
		flows[product] = rate.Quo(rate, seconds)
	}
	return flows
}

// Products returns every good the recipe touches, catalysts included,
// sorted and deduplicated.
func (r *Recipe) Products() []Product {
	seen := make(map[Product]struct{})
	for _, pc := range r.Consumed {
		seen[pc.Product] = struct{}{}
	}
	for _, pc := range r.Produced {
		seen[pc.Product] = struct{}{}
	}
	for _, p := range r.Catalysts {
		seen[p] = struct{}{}
	}
	products := make([]Product, 0, len(seen))
	for p := range seen {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })
	return products
}

// Produces reports whether the good appears in the produced list.
func (r *Recipe) Produces(p Product) bool {
	for _, pc := range r.Produced {
		if pc.Product == p {
			return true
		}
	}
	return false
}

// Consumes reports whether the good appears in the consumed list.
func (r *Recipe) Consumes(p Product) bool {
	for _, pc := range r.Consumed {
		if pc.Product == p {
			return true
		}
	}
	return false
}

// ReplaceProduct renames a good across the consumed, produced, and catalyst
// lists. A pure rename; no counts change.
func (r *Recipe) ReplaceProduct(from, to Product) {
	for i := range r.Consumed {
		if r.Consumed[i].Product == from {
			r.Consumed[i].Product = to
		}
	}
	for i := range r.Produced {
		if r.Produced[i].Product == from {
			r.Produced[i].Product = to
		}
	}
	for i := range r.Catalysts {
		if r.Catalysts[i] == from {
			r.Catalysts[i] = to
		}
	}
}
