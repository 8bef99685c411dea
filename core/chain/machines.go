package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"chainflux/core/voltage"
)

// PowerMismatch reports a setup whose machine kind disagrees with its
// recipe's power requirement. It is recoverable and local: flow aggregation
// treats the setup as contributing zero instead of failing the chain.
type PowerMismatch struct {
	// RequiresPower is true when the recipe draws power but the setup holds
	// eco machines, false when an eco recipe got powered machines.
	RequiresPower bool
}

// Error implements the error interface.
func (e *PowerMismatch) Error() string {
	if e.RequiresPower {
		return "recipe requires powered machines"
	}
	return "recipe requires eco machines"
}

// ClockedMachines maps each distinct machine configuration in a powered
// population to its positive count.
type ClockedMachines map[voltage.ClockedMachine]uint64

// Sorted returns the population's configurations in display order:
// ascending tier, unthrottled before throttled within a tier.
func (cm ClockedMachines) Sorted() []voltage.ClockedMachine {
	keys := make([]voltage.ClockedMachine, 0, len(cm))
	for k := range cm {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	return keys
}

// Count returns the total number of physical machines.
func (cm ClockedMachines) Count() uint64 {
	var total uint64
	for _, n := range cm {
		total += n
	}
	return total
}

// SpeedFactor sums each configuration's clock multiplier times its count,
// relative to the tier the recipe requires.
func (cm ClockedMachines) SpeedFactor(required voltage.Voltage) *big.Rat {
	total := new(big.Rat)
	for machine, count := range cm {
		term := new(big.Rat).Mul(machine.SpeedFactor(required), ratFromUint(count))
		total.Add(total, term)
	}
	return total
}

// EUPerTick sums each configuration's scaled power draw times its count.
// Power scales by four per overclocking step, implemented as an arithmetic
// shift by twice the step count; a nonzero recipe draw must stay nonzero
// after clocking.
func (cm ClockedMachines) EUPerTick(required voltage.Voltage, recipeEU int64) *big.Int {
	total := new(big.Int)
	for machine, count := range cm {
		eu := shiftEU(recipeEU, machine.EUFactorLog2(required))
		eu.Mul(eu, new(big.Int).SetUint64(count))
		total.Add(total, eu)
	}
	return total
}

// Validate checks every configuration and rejects zero counts, which are
// removed rather than stored.
func (cm ClockedMachines) Validate() error {
	for machine, count := range cm {
		if err := machine.Validate(); err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("chain: machine %s has zero count", machine)
		}
	}
	return nil
}

func shiftEU(recipeEU int64, log2 int) *big.Int {
	eu := big.NewInt(recipeEU)
	if log2 >= 0 {
		eu.Lsh(eu, uint(log2))
	} else {
		eu.Rsh(eu, uint(-log2))
	}
	if recipeEU != 0 && eu.Sign() == 0 {
		panic("chain: clocking reduced a nonzero power draw below one energy unit per tick")
	}
	return eu
}

// MachinesKind discriminates the two machine population variants.
type MachinesKind int

// The population variants. The set is closed: a population is either
// unpowered eco machines or a powered clocked population, never both.
const (
	KindEco MachinesKind = iota
	KindPower
)

// Machines is a setup's machine population: either a bare count of
// unpowered eco machines or a map of clocked configurations to counts.
type Machines struct {
	kind MachinesKind
	eco  uint64
	pow  ClockedMachines
}

// Eco builds an unpowered population of the given size.
func Eco(count uint64) Machines {
	return Machines{kind: KindEco, eco: count}
}

// Power builds a powered population from clocked configurations.
func Power(machines ClockedMachines) Machines {
	if machines == nil {
		machines = ClockedMachines{}
	}
	return Machines{kind: KindPower, pow: machines}
}

// Kind returns the population variant.
func (m Machines) Kind() MachinesKind {
	return m.kind
}

// EcoCount returns the eco machine count; zero for powered populations.
func (m Machines) EcoCount() uint64 {
	if m.kind != KindEco {
		return 0
	}
	return m.eco
}

// Clocked returns the powered population map; nil for eco populations.
// The map is live: callers mutating it own the cache consequences.
func (m Machines) Clocked() ClockedMachines {
	if m.kind != KindPower {
		return nil
	}
	return m.pow
}

// Count returns the total number of physical machines in either variant.
func (m Machines) Count() uint64 {
	if m.kind == KindEco {
		return m.eco
	}
	return m.pow.Count()
}

// Validate checks variant invariants.
func (m Machines) Validate() error {
	if m.kind == KindPower {
		return m.pow.Validate()
	}
	return nil
}

// SetPopulation sets a clocked configuration's count, removing the entry on
// zero. An eco population converts to a powered one holding only this entry.
func (m *Machines) SetPopulation(machine voltage.ClockedMachine, count uint64) {
	if m.kind != KindPower {
		*m = Power(ClockedMachines{})
	}
	if count == 0 {
		delete(m.pow, machine)
		return
	}
	m.pow[machine] = count
}

// SetEco replaces the population with an eco count of the given size.
func (m *Machines) SetEco(count uint64) {
	*m = Eco(count)
}

// String renders the population for annotations and logs.
func (m Machines) String() string {
	if m.kind == KindEco {
		return fmt.Sprintf("eco x%d", m.eco)
	}
	var buf bytes.Buffer
	for i, machine := range m.pow.Sorted() {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s x%d", machine, m.pow[machine])
	}
	if buf.Len() == 0 {
		return "none"
	}
	return buf.String()
}

// MarshalJSON renders the untagged wire form: a bare count for eco, an
// object of clocked-machine strings to counts for powered.
func (m Machines) MarshalJSON() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.kind == KindEco {
		return json.Marshal(m.eco)
	}
	wire := make(map[string]uint64, len(m.pow))
	for machine, count := range m.pow {
		wire[machine.String()] = count
	}
	return json.Marshal(wire)
}

// UnmarshalJSON accepts the untagged wire form, rejecting zero counts and
// invalid machine strings.
func (m *Machines) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wire map[string]uint64
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return fmt.Errorf("chain: invalid machine population: %w", err)
		}
		machines, err := parsePopulation(wire)
		if err != nil {
			return err
		}
		*m = Power(machines)
		return nil
	}
	var count uint64
	if err := json.Unmarshal(trimmed, &count); err != nil {
		return fmt.Errorf("chain: machines must be an eco count or a clocked population: %w", err)
	}
	*m = Eco(count)
	return nil
}

// parsePopulation converts a wire map into a validated population. Shared
// by the JSON, YAML, and HCL load paths.
func parsePopulation(wire map[string]uint64) (ClockedMachines, error) {
	machines := make(ClockedMachines, len(wire))
	for key, count := range wire {
		machine, err := voltage.ParseClockedMachine(key)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("chain: machine %s has zero count", machine)
		}
		if _, dup := machines[machine]; dup {
			return nil, fmt.Errorf("chain: machine %s listed twice", machine)
		}
		machines[machine] = count
	}
	return machines, nil
}

// PopulationFromWire builds a powered population from string keys, shared
// with the non-JSON chain file formats.
func PopulationFromWire(wire map[string]uint64) (Machines, error) {
	machines, err := parsePopulation(wire)
	if err != nil {
		return Machines{}, err
	}
	return Power(machines), nil
}

func ratFromUint(n uint64) *big.Rat {
	return new(big.Rat).SetInt(new(big.Int).SetUint64(n))
}
