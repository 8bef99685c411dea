// Package chain - processing chains and their equilibrium
// A ProcessingChain is an ordered list of setups plus the set of goods
// exempted from balancing. Derived equilibrium state is memoized and
// invalidated eagerly by every mutator: structural edits clear everything,
// weight edits clear only the weighted result. The chain is not safe for
// concurrent use; a multithreaded host must treat chain and caches as one
// unit of mutation.
package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"chainflux/core/recipe"
	"chainflux/core/voltage"
)

// ProcessingChain is a production network under balancing.
type ProcessingChain struct {
	setups     []Setup
	explicitIO map[recipe.Product]struct{}

	speeds   *Speeds
	weighted *WeightedSpeeds
}

// New builds a chain from setups and explicit-I/O goods.
func New(setups []Setup, explicitIO []recipe.Product) *ProcessingChain {
	c := &ProcessingChain{
		setups:     setups,
		explicitIO: make(map[recipe.Product]struct{}, len(explicitIO)),
	}
	for _, p := range explicitIO {
		c.explicitIO[p] = struct{}{}
	}
	return c
}

// Validate checks every setup.
func (c *ProcessingChain) Validate() error {
	for i := range c.setups {
		if err := c.setups[i].Validate(); err != nil {
			return fmt.Errorf("setup %d: %w", i, err)
		}
	}
	return nil
}

// Len returns the number of setups.
func (c *ProcessingChain) Len() int {
	return len(c.setups)
}

// At returns the setup at an index for reading. Mutate only through the
// chain's mutators, or through SetupMut, so caches stay consistent.
func (c *ProcessingChain) At(i int) *Setup {
	return &c.setups[i]
}

// SetupMut clears both caches and returns the setup for arbitrary edits.
// The caches clear before the handle escapes, never lazily afterwards.
func (c *ProcessingChain) SetupMut(i int) *Setup {
	c.invalidate()
	return &c.setups[i]
}

// ExplicitIO returns the exempted goods in sorted order.
func (c *ProcessingChain) ExplicitIO() []recipe.Product {
	products := make([]recipe.Product, 0, len(c.explicitIO))
	for p := range c.explicitIO {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })
	return products
}

// IsExplicitIO reports whether a good is exempt from balancing.
func (c *ProcessingChain) IsExplicitIO(p recipe.Product) bool {
	_, ok := c.explicitIO[p]
	return ok
}

// Products returns every good any setup touches, sorted.
func (c *ProcessingChain) Products() []recipe.Product {
	seen := make(map[recipe.Product]struct{})
	for i := range c.setups {
		for _, p := range c.setups[i].Recipe.Products() {
			seen[p] = struct{}{}
		}
	}
	products := make([]recipe.Product, 0, len(seen))
	for p := range seen {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })
	return products
}

// Produces reports whether any setup's recipe produces the good.
func (c *ProcessingChain) Produces(p recipe.Product) bool {
	for i := range c.setups {
		if c.setups[i].Recipe.Produces(p) {
			return true
		}
	}
	return false
}

// Consumes reports whether any setup's recipe consumes the good.
func (c *ProcessingChain) Consumes(p recipe.Product) bool {
	for i := range c.setups {
		if c.setups[i].Recipe.Consumes(p) {
			return true
		}
	}
	return false
}

// FlowsAtSpeeds aggregates flow and power with each setup scaled by the
// given relative speed. Power-mismatched setups contribute nothing.
func (c *ProcessingChain) FlowsAtSpeeds(speeds []*big.Rat) *Flows {
	if len(speeds) != len(c.setups) {
		panic("chain: speed vector length does not match setup count")
	}
	flows := newFlows()
	for i := range c.setups {
		s := &c.setups[i]
		for product, rate := range s.ProductsPerSec() {
			flows.addRate(product, rate.Mul(rate, speeds[i]))
		}
		if eu, err := s.EUPerTick(); err == nil {
			scaled := new(big.Rat).SetInt(eu)
			flows.addEU(scaled.Mul(scaled, speeds[i]))
		}
	}
	return flows
}

// FlowsUnthrottled aggregates with every setup at full speed.
func (c *ProcessingChain) FlowsUnthrottled() *Flows {
	speeds := make([]*big.Rat, len(c.setups))
	for i := range speeds {
		speeds[i] = big.NewRat(1, 1)
	}
	return c.FlowsAtSpeeds(speeds)
}

// FlowsPerRecipe aggregates one nominal machine of every recipe, ignoring
// populations, clocking, and power wiring.
func (c *ProcessingChain) FlowsPerRecipe() *Flows {
	flows := newFlows()
	for i := range c.setups {
		r := &c.setups[i].Recipe
		for product, rate := range r.ProductsPerSec() {
			flows.addRate(product, rate)
		}
		flows.addEU(new(big.Rat).SetInt64(r.EUPerTick))
	}
	return flows
}

// FlowsAtEquilibrium aggregates at the weighted equilibrium speeds.
func (c *ProcessingChain) FlowsAtEquilibrium() *Flows {
	return c.FlowsAtSpeeds(c.WeightedSpeeds().Speeds())
}

// Speeds returns the chain's balance structure, computing it on first use.
func (c *ProcessingChain) Speeds() *Speeds {
	if c.speeds == nil {
		c.speeds = newSpeeds(c)
	}
	return c.speeds
}

// WeightedSpeeds returns the equilibrium speed assignment, computing it on
// first use.
func (c *ProcessingChain) WeightedSpeeds() *WeightedSpeeds {
	if c.weighted == nil {
		c.weighted = newWeightedSpeeds(c, c.Speeds())
	}
	return c.weighted
}

func (c *ProcessingChain) invalidate() {
	c.speeds = nil
	c.weighted = nil
}

func (c *ProcessingChain) invalidateWeighted() {
	c.weighted = nil
}

// InsertSetup inserts a setup at the index.
func (c *ProcessingChain) InsertSetup(i int, s Setup) View {
	c.invalidate()
	c.setups = append(c.setups, Setup{})
	copy(c.setups[i+1:], c.setups[i:])
	c.setups[i] = s
	return ViewAll
}

// RemoveSetup removes the setup at the index.
func (c *ProcessingChain) RemoveSetup(i int) View {
	c.invalidate()
	c.setups = append(c.setups[:i], c.setups[i+1:]...)
	return ViewAll
}

// MoveSetup moves a setup from one index to another.
func (c *ProcessingChain) MoveSetup(from, to int) View {
	c.invalidate()
	s := c.setups[from]
	c.setups = append(c.setups[:from], c.setups[from+1:]...)
	c.setups = append(c.setups, Setup{})
	copy(c.setups[to+1:], c.setups[to:])
	c.setups[to] = s
	return ViewAll
}

// RenameMachine renames a setup's machine type. Pure display data; no
// computed value depends on the name.
func (c *ProcessingChain) RenameMachine(i int, name recipe.MachineName) View {
	c.setups[i].Recipe.Machine = name
	return ViewNone
}

// InsertProduct inserts a good into one of a recipe's lists. The count is
// ignored for catalysts, which carry none.
func (c *ProcessingChain) InsertProduct(i int, role recipe.ProductRole, pos int, p recipe.Product, count uint64) View {
	c.invalidate()
	r := &c.setups[i].Recipe
	switch role {
	case recipe.RoleCatalyst:
		r.Catalysts = append(r.Catalysts, "")
		copy(r.Catalysts[pos+1:], r.Catalysts[pos:])
		r.Catalysts[pos] = p
	case recipe.RoleConsumed:
		r.Consumed = insertProductCount(r.Consumed, pos, recipe.ProductCount{Product: p, Count: count})
	case recipe.RoleProduced:
		r.Produced = insertProductCount(r.Produced, pos, recipe.ProductCount{Product: p, Count: count})
	}
	return ViewAll
}

// RemoveProduct removes a good from one of a recipe's lists.
func (c *ProcessingChain) RemoveProduct(i int, role recipe.ProductRole, pos int) View {
	c.invalidate()
	r := &c.setups[i].Recipe
	switch role {
	case recipe.RoleCatalyst:
		r.Catalysts = append(r.Catalysts[:pos], r.Catalysts[pos+1:]...)
	case recipe.RoleConsumed:
		r.Consumed = append(r.Consumed[:pos], r.Consumed[pos+1:]...)
	case recipe.RoleProduced:
		r.Produced = append(r.Produced[:pos], r.Produced[pos+1:]...)
	}
	return ViewAll
}

// MoveProduct reorders a good within one of a recipe's lists. Flow math
// nets over the lists, so order carries no computed meaning.
func (c *ProcessingChain) MoveProduct(i int, role recipe.ProductRole, from, to int) View {
	r := &c.setups[i].Recipe
	switch role {
	case recipe.RoleCatalyst:
		p := r.Catalysts[from]
		r.Catalysts = append(r.Catalysts[:from], r.Catalysts[from+1:]...)
		r.Catalysts = append(r.Catalysts, "")
		copy(r.Catalysts[to+1:], r.Catalysts[to:])
		r.Catalysts[to] = p
	case recipe.RoleConsumed:
		pc := r.Consumed[from]
		r.Consumed = append(r.Consumed[:from], r.Consumed[from+1:]...)
		r.Consumed = insertProductCount(r.Consumed, to, pc)
	case recipe.RoleProduced:
		pc := r.Produced[from]
		r.Produced = append(r.Produced[:from], r.Produced[from+1:]...)
		r.Produced = insertProductCount(r.Produced, to, pc)
	}
	return ViewNone
}

// RenameProduct renames a good at one position of one recipe's list.
func (c *ProcessingChain) RenameProduct(i int, role recipe.ProductRole, pos int, p recipe.Product) View {
	c.invalidate()
	r := &c.setups[i].Recipe
	switch role {
	case recipe.RoleCatalyst:
		r.Catalysts[pos] = p
	case recipe.RoleConsumed:
		r.Consumed[pos].Product = p
	case recipe.RoleProduced:
		r.Produced[pos].Product = p
	}
	return ViewCalculated
}

// SetCount changes a stoichiometric count. Catalysts carry no counts.
func (c *ProcessingChain) SetCount(i int, role recipe.ProductRole, pos int, count uint64) View {
	if count == 0 {
		panic("chain: stoichiometric count must be positive")
	}
	c.invalidate()
	r := &c.setups[i].Recipe
	switch role {
	case recipe.RoleConsumed:
		r.Consumed[pos].Count = count
	case recipe.RoleProduced:
		r.Produced[pos].Count = count
	default:
		panic("chain: catalysts carry no count")
	}
	return ViewCalculated
}

// SetTicks changes a recipe's cycle duration.
func (c *ProcessingChain) SetTicks(i int, ticks uint64) View {
	if ticks == 0 {
		panic("chain: ticks must be positive")
	}
	c.invalidate()
	c.setups[i].Recipe.Ticks = ticks
	return ViewCalculated
}

// SetEUPerTick changes a recipe's power draw.
func (c *ProcessingChain) SetEUPerTick(i int, eu int64) View {
	c.invalidate()
	c.setups[i].Recipe.EUPerTick = eu
	return ViewCalculated
}

// SetMachines replaces a setup's whole machine population.
func (c *ProcessingChain) SetMachines(i int, m Machines) View {
	c.invalidate()
	c.setups[i].Machines = m
	return ViewAll
}

// InsertMachines adds a clocked configuration with count one, converting an
// eco population to a powered one.
func (c *ProcessingChain) InsertMachines(i int, machine voltage.ClockedMachine) View {
	c.invalidate()
	c.setups[i].Machines.SetPopulation(machine, 1)
	return ViewAll
}

// SetMachineCount changes a clocked configuration's count; zero removes it.
func (c *ProcessingChain) SetMachineCount(i int, machine voltage.ClockedMachine, count uint64) View {
	c.invalidate()
	c.setups[i].Machines.SetPopulation(machine, count)
	return ViewCalculated
}

// SetEcoCount replaces the population with an eco count.
func (c *ProcessingChain) SetEcoCount(i int, count uint64) View {
	c.invalidate()
	c.setups[i].Machines.SetEco(count)
	return ViewCalculated
}

// SetWeight changes a setup's sharing priority. The balance structure is
// weight-independent, so only the weighted result clears.
func (c *ProcessingChain) SetWeight(i int, w Weight) View {
	c.invalidateWeighted()
	c.setups[i].Weight = w
	return ViewSpeed
}

// AddExplicitIO exempts a good from balancing.
func (c *ProcessingChain) AddExplicitIO(p recipe.Product) View {
	c.invalidate()
	if c.explicitIO == nil {
		c.explicitIO = make(map[recipe.Product]struct{})
	}
	c.explicitIO[p] = struct{}{}
	return ViewSpeed
}

// RemoveExplicitIO returns a good to balancing.
func (c *ProcessingChain) RemoveExplicitIO(p recipe.Product) View {
	c.invalidate()
	delete(c.explicitIO, p)
	return ViewSpeed
}

// ReplaceProduct renames a good everywhere it appears: every recipe list
// and the explicit-I/O set. Counts and rates do not change.
func (c *ProcessingChain) ReplaceProduct(from, to recipe.Product) View {
	c.invalidate()
	for i := range c.setups {
		c.setups[i].Recipe.ReplaceProduct(from, to)
	}
	if _, ok := c.explicitIO[from]; ok {
		delete(c.explicitIO, from)
		c.explicitIO[to] = struct{}{}
	}
	return ViewCalculated
}

func insertProductCount(list []recipe.ProductCount, pos int, pc recipe.ProductCount) []recipe.ProductCount {
	list = append(list, recipe.ProductCount{})
	copy(list[pos+1:], list[pos:])
	list[pos] = pc
	return list
}

type chainWire struct {
	Setups     []Setup          `json:"setups,omitempty"`
	ExplicitIO []recipe.Product `json:"explicit_io,omitempty"`
}

// MarshalJSON renders the canonical wire form: ordered setups plus the
// sorted explicit-I/O list. Caches never serialize.
func (c *ProcessingChain) MarshalJSON() ([]byte, error) {
	return json.Marshal(chainWire{Setups: c.setups, ExplicitIO: c.ExplicitIO()})
}

// UnmarshalJSON decodes the wire form strictly: unknown fields anywhere in
// the document reject the whole chain.
func (c *ProcessingChain) UnmarshalJSON(data []byte) error {
	var wire chainWire
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return err
	}
	*c = *New(wire.Setups, wire.ExplicitIO)
	return nil
}
