package chain

import (
	"math/big"
	"testing"

	"chainflux/core/recipe"
)

// sourceOf is an unpowered single machine producing a good at a fixed rate
// per second.
func sourceOf(p recipe.Product, perSec uint64) Setup {
	return NewSetup(recipe.Recipe{
		Machine:  recipe.MachineName("source of " + string(p)),
		Ticks:    recipe.TicksPerSecond,
		Produced: []recipe.ProductCount{{Product: p, Count: perSec}},
	}, Eco(1))
}

// sinkOf is the consuming counterpart of sourceOf.
func sinkOf(p recipe.Product, perSec uint64) Setup {
	return NewSetup(recipe.Recipe{
		Machine:  recipe.MachineName("sink of " + string(p)),
		Ticks:    recipe.TicksPerSecond,
		Consumed: []recipe.ProductCount{{Product: p, Count: perSec}},
	}, Eco(1))
}

func converter(in recipe.Product, inCount uint64, out recipe.Product, outCount uint64) Setup {
	return NewSetup(recipe.Recipe{
		Machine:  recipe.MachineName(string(in) + " converter"),
		Ticks:    recipe.TicksPerSecond,
		Consumed: []recipe.ProductCount{{Product: in, Count: inCount}},
		Produced: []recipe.ProductCount{{Product: out, Count: outCount}},
	}, Eco(1))
}

func withWeight(s Setup, w Weight) Setup {
	s.Weight = w
	return s
}

func TestSpeedsStructure(t *testing.T) {
	c := New([]Setup{sourceOf("gear", 2), sinkOf("gear", 3)}, nil)
	s := c.Speeds()

	wantFree := []bool{false, true}
	for i, free := range s.Free() {
		if free != wantFree[i] {
			t.Errorf("Free[%d] = %v, want %v", i, free, wantFree[i])
		}
	}
	if s.FreeCount() != 1 || s.Rank() != 1 {
		t.Errorf("FreeCount = %d, Rank = %d, want 1, 1", s.FreeCount(), s.Rank())
	}

	mode := s.Basis()[0]
	want := []string{"3/2", "1"}
	for i, component := range mode {
		if component.RatString() != want[i] {
			t.Errorf("Mode[%d] = %s, want %s", i, component.RatString(), want[i])
		}
	}
}

func TestWeightedSpeeds(t *testing.T) {
	tests := []struct {
		name       string
		setups     []Setup
		explicitIO []recipe.Product
		want       []string
	}{
		{
			name:   "consumer throttles to the producer",
			setups: []Setup{sourceOf("gear", 2), sinkOf("gear", 3)},
			want:   []string{"1", "2/3"},
		},
		{
			name: "equal weights share by demand",
			setups: []Setup{
				sourceOf("gear", 5),
				sinkOf("gear", 2),
				sinkOf("gear", 3),
			},
			want: []string{"1", "1", "1"},
		},
		{
			name: "weights trade speed between consumers",
			setups: []Setup{
				sourceOf("gear", 5),
				withWeight(sinkOf("gear", 2), 2),
				sinkOf("gear", 3),
			},
			want: []string{"7/10", "1", "1/2"},
		},
		{
			name: "zero weight stops one setup and leaves the rest",
			setups: []Setup{
				sourceOf("gear", 5),
				withWeight(sinkOf("gear", 2), 0),
				sinkOf("gear", 3),
			},
			want: []string{"3/5", "0", "1"},
		},
		{
			name:   "no shared goods runs everything at full speed",
			setups: []Setup{sourceOf("gear", 2), sourceOf("rod", 7)},
			want:   []string{"1", "1"},
		},
		{
			name:       "explicit io lifts the constraint",
			setups:     []Setup{sourceOf("gear", 2), sinkOf("gear", 3)},
			explicitIO: []recipe.Product{"gear"},
			want:       []string{"1", "1"},
		},
		{
			name: "catalysts never constrain",
			setups: []Setup{
				sourceOf("lens", 1),
				NewSetup(recipe.Recipe{
					Machine:   "laser engraver",
					Ticks:     recipe.TicksPerSecond,
					Catalysts: []recipe.Product{"lens"},
					Consumed:  []recipe.ProductCount{{Product: "wafer", Count: 1}},
					Produced:  []recipe.ProductCount{{Product: "circuit", Count: 1}},
				}, Eco(1)),
			},
			want: []string{"1", "1"},
		},
		{
			name: "overdetermined ratios stop the chain",
			setups: []Setup{
				NewSetup(recipe.Recipe{
					Machine: "splitter",
					Ticks:   recipe.TicksPerSecond,
					Produced: []recipe.ProductCount{
						{Product: "x", Count: 1},
						{Product: "y", Count: 1},
					},
				}, Eco(1)),
				NewSetup(recipe.Recipe{
					Machine: "combiner",
					Ticks:   recipe.TicksPerSecond,
					Consumed: []recipe.ProductCount{
						{Product: "x", Count: 1},
						{Product: "y", Count: 2},
					},
				}, Eco(1)),
			},
			want: []string{"0", "0"},
		},
		{
			name: "self feeding loop with net surplus stops",
			setups: []Setup{
				NewSetup(recipe.Recipe{
					Machine:  "breeder",
					Ticks:    recipe.TicksPerSecond,
					Consumed: []recipe.ProductCount{{Product: "cell", Count: 1}},
					Produced: []recipe.ProductCount{{Product: "cell", Count: 2}},
				}, Eco(1)),
			},
			want: []string{"0"},
		},
		{
			name: "mismatched consumer frees its producer constraint",
			setups: []Setup{
				sourceOf("gear", 2),
				NewSetup(recipe.Recipe{
					Machine:   "powered sink",
					Ticks:     recipe.TicksPerSecond,
					EUPerTick: 30,
					Consumed:  []recipe.ProductCount{{Product: "gear", Count: 3}},
				}, Eco(1)),
			},
			want: []string{"0", "1"},
		},
		{
			name: "two stage line balances by ratio",
			setups: []Setup{
				converter("ore", 1, "dust", 2),
				converter("dust", 1, "ingot", 1),
			},
			want: []string{"1/2", "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.setups, tt.explicitIO)
			speeds := c.WeightedSpeeds()
			if speeds.Len() != len(tt.want) {
				t.Fatalf("Speed count = %d, want %d", speeds.Len(), len(tt.want))
			}
			for i, want := range tt.want {
				if got := speeds.At(i).RatString(); got != want {
					t.Errorf("Speed %d = %s, want %s", i, got, want)
				}
			}
		})
	}
}

func TestWeightedSpeedsShareProduction(t *testing.T) {
	// Demand at the weighted speeds: 2*1 and 3*(1/2), splitting the five
	// gears per second four sevenths to three sevenths.
	c := New([]Setup{
		sourceOf("gear", 5),
		withWeight(sinkOf("gear", 2), 2),
		sinkOf("gear", 3),
	}, nil)
	speeds := c.WeightedSpeeds()

	total := new(big.Rat)
	for i := 1; i <= 2; i++ {
		demand := new(big.Rat).SetInt64(int64(c.At(i).Recipe.Consumed[0].Count))
		total.Add(total, demand.Mul(demand, speeds.At(i)))
	}
	supply := new(big.Rat).Mul(big.NewRat(5, 1), speeds.At(0))
	if total.Cmp(supply) != 0 {
		t.Fatalf("Demand %s does not meet supply %s", total.RatString(), supply.RatString())
	}

	first := new(big.Rat).Mul(big.NewRat(2, 1), speeds.At(1))
	first.Quo(first, total)
	if first.RatString() != "4/7" {
		t.Errorf("First consumer share = %s, want 4/7", first.RatString())
	}
}

func TestFlowsAtEquilibriumBalancesIntermediates(t *testing.T) {
	c := New([]Setup{
		converter("ore", 2, "dust", 4),
		converter("dust", 1, "ingot", 1),
		sinkOf("ingot", 3),
	}, nil)

	flows := c.FlowsAtEquilibrium()
	for _, p := range []recipe.Product{"dust", "ingot"} {
		if got := flows.Rate(p); got == nil || got.Sign() != 0 {
			t.Errorf("Equilibrium rate of %s = %v, want exactly 0", p, got)
		}
	}
	if got := flows.Rate("ore"); got == nil || got.Sign() >= 0 {
		t.Errorf("Ore must flow in from outside, got %v", got)
	}
}

func TestWeightedSpeedsMaxIsOne(t *testing.T) {
	// Whatever the nullspace looks like, a nonzero result normalizes so its
	// fastest setup runs at exactly 1.
	chains := []*ProcessingChain{
		New([]Setup{sourceOf("a", 3), sinkOf("a", 7)}, nil),
		New([]Setup{sourceOf("a", 3), sinkOf("a", 7), sourceOf("b", 2), sinkOf("b", 9)}, nil),
		New([]Setup{converter("a", 3, "b", 5), converter("b", 2, "c", 1), sinkOf("c", 4)}, nil),
	}
	one := big.NewRat(1, 1)
	for i, c := range chains {
		max := new(big.Rat)
		for _, speed := range c.WeightedSpeeds().Speeds() {
			if speed.Cmp(max) > 0 {
				max.Set(speed)
			}
			if speed.Sign() < 0 {
				t.Errorf("Chain %d has a negative speed %s", i, speed.RatString())
			}
			if speed.Cmp(one) > 0 {
				t.Errorf("Chain %d has a speed above 1: %s", i, speed.RatString())
			}
		}
		if max.Cmp(one) != 0 {
			t.Errorf("Chain %d max speed = %s, want 1", i, max.RatString())
		}
	}
}
