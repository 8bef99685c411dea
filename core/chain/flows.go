package chain

import (
	"math/big"
	"sort"

	"chainflux/core/recipe"
)

// Flows is the aggregate movement of goods and power across a chain at some
// per-setup speed assignment. Rates are signed: production positive,
// consumption negative; power draw positive, generation negative.
type Flows struct {
	euPerTick *big.Rat
	perSec    map[recipe.Product]*big.Rat
}

func newFlows() *Flows {
	return &Flows{euPerTick: new(big.Rat), perSec: make(map[recipe.Product]*big.Rat)}
}

// EUPerTick returns the chain's net power draw per tick.
func (f *Flows) EUPerTick() *big.Rat {
	return f.euPerTick
}

// Rate returns the net per-second rate of a good, or nil when no setup
// touches it.
func (f *Flows) Rate(p recipe.Product) *big.Rat {
	return f.perSec[p]
}

// Products returns the touched goods in sorted order.
func (f *Flows) Products() []recipe.Product {
	products := make([]recipe.Product, 0, len(f.perSec))
	for p := range f.perSec {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })
	return products
}

// Len returns the number of touched goods.
func (f *Flows) Len() int {
	return len(f.perSec)
}

func (f *Flows) addRate(p recipe.Product, rate *big.Rat) {
	if current, ok := f.perSec[p]; ok {
		current.Add(current, rate)
		return
	}
	f.perSec[p] = new(big.Rat).Set(rate)
}

func (f *Flows) addEU(eu *big.Rat) {
	f.euPerTick.Add(f.euPerTick, eu)
}
