// Package voltage - power tiers and machine clocking
// Tier arithmetic is RELATIVE everywhere: speed and energy factors are taken
// against the tier a recipe requires, never against a fixed reference.
package voltage

import (
	"fmt"
	"math/big"
	"strings"
)

// Voltage is a discrete power-capacity tier. Tiers are totally ordered and
// each tier quadruples the previous tier's power ceiling.
type Voltage int

// Tiers in ascending order. MAX is the top of the closed set; any power draw
// beyond its ceiling still maps to MAX.
const (
	ULV Voltage = iota
	LV
	MV
	HV
	EV
	MAX
)

// TierCount is the number of tiers in the closed set.
const TierCount = int(MAX) + 1

var tierNames = [TierCount]string{"ULV", "LV", "MV", "HV", "EV", "MAX"}

// Tiers returns all tiers in ascending order.
func Tiers() []Voltage {
	tiers := make([]Voltage, TierCount)
	for i := range tiers {
		tiers[i] = Voltage(i)
	}
	return tiers
}

// Valid reports whether v is a member of the closed tier set.
func (v Voltage) Valid() bool {
	return v >= ULV && v <= MAX
}

// MaxPower returns the tier's maximum power draw in energy units per tick.
// Tier t supports up to 2^(2t+3): 8 for ULV, 32 for LV, and so on.
func (v Voltage) MaxPower() uint64 {
	return 1 << (2*uint(v) + 3)
}

// FromPower returns the smallest tier whose ceiling covers the given power
// draw, clamped to MAX for draws beyond the top ceiling. The draw must be
// positive; a zero draw has no tier (such recipes take eco machines instead).
func FromPower(eu uint64) Voltage {
	if eu == 0 {
		panic("voltage: power draw must be positive")
	}
	for _, tier := range Tiers() {
		if eu <= tier.MaxPower() {
			return tier
		}
	}
	return MAX
}

// Steps returns the signed number of overclocking steps from base to v.
// Positive means v overclocks base; negative means it underclocks.
func (v Voltage) Steps(base Voltage) int {
	return int(v) - int(base)
}

// SpeedFactor returns 2^(v-base) as an exact rational. Each overclocking
// step doubles speed; each underclocking step halves it.
func (v Voltage) SpeedFactor(base Voltage) *big.Rat {
	steps := v.Steps(base)
	if steps >= 0 {
		return big.NewRat(1<<uint(steps), 1)
	}
	return big.NewRat(1, 1<<uint(-steps))
}

// EUFactorLog2 returns the binary exponent of the energy multiplier for
// running a base-tier recipe at tier v: energy scales by 4 per step, so the
// exponent is twice the step count. Negative exponents mean cheaper.
func (v Voltage) EUFactorLog2(base Voltage) int {
	return 2 * v.Steps(base)
}

// String returns the tier acronym.
func (v Voltage) String() string {
	if !v.Valid() {
		return fmt.Sprintf("Voltage(%d)", int(v))
	}
	return tierNames[v]
}

// Parse returns the tier named by an acronym.
func Parse(s string) (Voltage, error) {
	for i, name := range tierNames {
		if name == s {
			return Voltage(i), nil
		}
	}
	return 0, fmt.Errorf("voltage: unknown tier %q", s)
}

// ClockedMachine is a physical machine rating paired with the clock it runs
// at. Clock never exceeds Tier: a machine can be throttled below its rating
// but not driven above it. Tier == Clock means unthrottled.
type ClockedMachine struct {
	// Tier is the machine's physical rating.
	Tier Voltage
	// Clock is the tier the machine actually runs at.
	Clock Voltage
}

// Clocked builds an unthrottled machine at the given tier.
func Clocked(tier Voltage) ClockedMachine {
	return ClockedMachine{Tier: tier, Clock: tier}
}

// Underclocked builds a machine of the given rating throttled down to clock.
func Underclocked(tier, clock Voltage) (ClockedMachine, error) {
	cm := ClockedMachine{Tier: tier, Clock: clock}
	if err := cm.Validate(); err != nil {
		return ClockedMachine{}, err
	}
	return cm, nil
}

// Validate checks the tier set membership and the clock ceiling.
func (cm ClockedMachine) Validate() error {
	if !cm.Tier.Valid() {
		return fmt.Errorf("voltage: invalid machine tier %d", int(cm.Tier))
	}
	if !cm.Clock.Valid() {
		return fmt.Errorf("voltage: invalid machine clock %d", int(cm.Clock))
	}
	if cm.Clock > cm.Tier {
		return fmt.Errorf("voltage: clock %s exceeds machine tier %s", cm.Clock, cm.Tier)
	}
	return nil
}

// Underclocked reports whether the machine runs below its rating.
func (cm ClockedMachine) Underclocked() bool {
	return cm.Clock < cm.Tier
}

// SpeedFactor returns the machine's speed multiplier for a recipe requiring
// the given tier. The running clock decides the multiplier, not the rating.
func (cm ClockedMachine) SpeedFactor(required Voltage) *big.Rat {
	return cm.Clock.SpeedFactor(required)
}

// EUFactorLog2 returns the binary exponent of the machine's energy
// multiplier for a recipe requiring the given tier.
func (cm ClockedMachine) EUFactorLog2(required Voltage) int {
	return cm.Clock.EUFactorLog2(required)
}

// Compare orders machines by ascending tier, then by descending clock within
// a tier, so an unthrottled machine sorts before its throttled siblings.
func (cm ClockedMachine) Compare(other ClockedMachine) int {
	if cm.Tier != other.Tier {
		if cm.Tier < other.Tier {
			return -1
		}
		return 1
	}
	if cm.Clock != other.Clock {
		if cm.Clock > other.Clock {
			return -1
		}
		return 1
	}
	return 0
}

// String renders "<tier>" when unthrottled or "<tier>@<clock>" when not.
func (cm ClockedMachine) String() string {
	if cm.Underclocked() {
		return cm.Tier.String() + "@" + cm.Clock.String()
	}
	return cm.Tier.String()
}

// ParseClockedMachine parses the "<tier>" or "<tier>@<clock>" form, rejecting
// clocks above the stated tier.
func ParseClockedMachine(s string) (ClockedMachine, error) {
	tierName, clockName, throttled := strings.Cut(s, "@")
	tier, err := Parse(tierName)
	if err != nil {
		return ClockedMachine{}, fmt.Errorf("voltage: invalid machine %q: %w", s, err)
	}
	if !throttled {
		return Clocked(tier), nil
	}
	clock, err := Parse(clockName)
	if err != nil {
		return ClockedMachine{}, fmt.Errorf("voltage: invalid machine %q: %w", s, err)
	}
	cm, err := Underclocked(tier, clock)
	if err != nil {
		return ClockedMachine{}, fmt.Errorf("voltage: invalid machine %q: %w", s, err)
	}
	return cm, nil
}

// MarshalText implements encoding.TextMarshaler so clocked machines can key
// JSON and YAML maps.
func (cm ClockedMachine) MarshalText() ([]byte, error) {
	if err := cm.Validate(); err != nil {
		return nil, err
	}
	return []byte(cm.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (cm *ClockedMachine) UnmarshalText(text []byte) error {
	parsed, err := ParseClockedMachine(string(text))
	if err != nil {
		return err
	}
	*cm = parsed
	return nil
}
