package chain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"chainflux/core/recipe"
	"chainflux/core/voltage"
)

// electrolysis is a powered fixture: 30 EU/t puts it in the LV tier, and the
// 40 tick cycle nets -3 water, +2 hydrogen, +1 oxygen per second.
func electrolysis() recipe.Recipe {
	return recipe.Recipe{
		Machine:   "electrolyzer",
		Ticks:     40,
		EUPerTick: 30,
		Consumed:  []recipe.ProductCount{{Product: "water", Count: 6}},
		Produced: []recipe.ProductCount{
			{Product: "hydrogen", Count: 4},
			{Product: "oxygen", Count: 2},
		},
	}
}

// pressing is an unpowered fixture for eco populations.
func pressing() recipe.Recipe {
	return recipe.Recipe{
		Machine:  "press",
		Ticks:    20,
		Consumed: []recipe.ProductCount{{Product: "plank", Count: 2}},
		Produced: []recipe.ProductCount{{Product: "plate", Count: 1}},
	}
}

func TestSetupSpeedFactor(t *testing.T) {
	tests := []struct {
		name  string
		setup Setup
		want  string
	}{
		{
			name:  "eco population counts machines",
			setup: NewSetup(pressing(), Eco(5)),
			want:  "5",
		},
		{
			name:  "overclocked population",
			setup: NewSetup(electrolysis(), Power(ClockedMachines{voltage.Clocked(voltage.EV): 1})),
			want:  "8",
		},
		{
			name: "mixed clocks sum per machine",
			setup: NewSetup(electrolysis(), Power(ClockedMachines{
				{Tier: voltage.HV, Clock: voltage.LV}: 3,
				voltage.Clocked(voltage.LV):           2,
			})),
			want: "5",
		},
		{
			name:  "underclock to the recipe tier runs nominal",
			setup: NewSetup(electrolysis(), Power(ClockedMachines{{Tier: voltage.HV, Clock: voltage.LV}: 1})),
			want:  "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.setup.SpeedFactor()
			if err != nil {
				t.Fatalf("SpeedFactor failed: %v", err)
			}
			if got.RatString() != tt.want {
				t.Errorf("SpeedFactor = %s, want %s", got.RatString(), tt.want)
			}
		})
	}
}

func TestSetupPowerMismatch(t *testing.T) {
	tests := []struct {
		name          string
		setup         Setup
		requiresPower bool
	}{
		{
			name:          "eco machines on a powered recipe",
			setup:         NewSetup(electrolysis(), Eco(5)),
			requiresPower: true,
		},
		{
			name:          "powered machines on an eco recipe",
			setup:         NewSetup(pressing(), Power(ClockedMachines{voltage.Clocked(voltage.LV): 1})),
			requiresPower: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.setup.SpeedFactor()
			var mismatch *PowerMismatch
			if !errors.As(err, &mismatch) {
				t.Fatalf("SpeedFactor error = %v, want PowerMismatch", err)
			}
			if mismatch.RequiresPower != tt.requiresPower {
				t.Errorf("RequiresPower = %v, want %v", mismatch.RequiresPower, tt.requiresPower)
			}
			if _, err := tt.setup.EUPerTick(); !errors.As(err, &mismatch) {
				t.Errorf("EUPerTick error = %v, want PowerMismatch", err)
			}
			if got := tt.setup.PowerError(); got == nil || got.RequiresPower != tt.requiresPower {
				t.Errorf("PowerError = %+v", got)
			}
		})
	}

	healthy := NewSetup(pressing(), Eco(1))
	if got := healthy.PowerError(); got != nil {
		t.Errorf("PowerError on a matched setup = %+v, want nil", got)
	}
}

func TestSetupEUPerTick(t *testing.T) {
	tests := []struct {
		name  string
		setup Setup
		want  string
	}{
		{
			name:  "eco draws nothing",
			setup: NewSetup(pressing(), Eco(9)),
			want:  "0",
		},
		{
			name:  "underclocked overtier machine draws nominal",
			setup: NewSetup(electrolysis(), Power(ClockedMachines{{Tier: voltage.HV, Clock: voltage.LV}: 1})),
			want:  "30",
		},
		{
			name: "generators scale like consumers",
			setup: NewSetup(recipe.Recipe{
				Machine:   "combustion generator",
				Ticks:     20,
				EUPerTick: -16,
				Consumed:  []recipe.ProductCount{{Product: "fuel", Count: 1}},
			}, Power(ClockedMachines{voltage.Clocked(voltage.MV): 2})),
			want: "-128",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.setup.EUPerTick()
			if err != nil {
				t.Fatalf("EUPerTick failed: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("EUPerTick = %s, want %s", got.String(), tt.want)
			}
		})
	}
}

func TestSetupProductsPerSec(t *testing.T) {
	setup := NewSetup(electrolysis(), Power(ClockedMachines{voltage.Clocked(voltage.EV): 1}))
	flows := setup.ProductsPerSec()

	want := map[recipe.Product]string{
		"water":    "-24",
		"hydrogen": "16",
		"oxygen":   "8",
	}
	if len(flows) != len(want) {
		t.Fatalf("Flow count = %d, want %d", len(flows), len(want))
	}
	for product, rate := range want {
		if got := flows[product]; got == nil || got.RatString() != rate {
			t.Errorf("Flow of %s = %v, want %s", product, got, rate)
		}
	}

	eco := NewSetup(pressing(), Eco(5))
	if got := eco.ProductsPerSec()["plank"].RatString(); got != "-10" {
		t.Errorf("Eco plank flow = %s, want -10", got)
	}

	mismatched := NewSetup(electrolysis(), Eco(5))
	if flows := mismatched.ProductsPerSec(); len(flows) != 0 {
		t.Errorf("Mismatched setup flows = %v, want empty", flows)
	}
}

func TestSetupJSON(t *testing.T) {
	in := `{
		"recipe": {
			"machine": "electrolyzer",
			"ticks": 40,
			"eu_per_tick": 30,
			"consumed": [{"product": "water", "count": 6}],
			"produced": [
				{"product": "hydrogen", "count": 4},
				{"product": "oxygen", "count": 2}
			]
		},
		"machines": {"HV@LV": 1, "LV": 2}
	}`

	var setup Setup
	if err := json.Unmarshal([]byte(in), &setup); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if setup.Weight != DefaultWeight {
		t.Errorf("Omitted weight = %d, want default %d", setup.Weight, DefaultWeight)
	}
	if setup.Machines.Kind() != KindPower || setup.Machines.Count() != 3 {
		t.Errorf("Machines = %+v", setup.Machines)
	}

	data, err := json.Marshal(setup)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "weight") {
		t.Errorf("Default weight serialized: %s", data)
	}

	setup.Weight = 3
	data, err = json.Marshal(setup)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"weight":3`) {
		t.Errorf("Weight missing from wire form: %s", data)
	}

	var back Setup
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Round trip failed: %v", err)
	}
	if back.Weight != 3 {
		t.Errorf("Round trip weight = %d, want 3", back.Weight)
	}
}

func TestSetupJSONRejections(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{
			name: "unknown field",
			in:   `{"recipe": {"machine": "press", "ticks": 20}, "machines": 1, "speed": 2}`,
		},
		{
			name: "zero tick cycle",
			in:   `{"recipe": {"machine": "press", "ticks": 0}, "machines": 1}`,
		},
		{
			name: "zero machine count",
			in:   `{"recipe": {"machine": "press", "ticks": 20}, "machines": {"LV": 0}}`,
		},
		{
			name: "clock above tier",
			in:   `{"recipe": {"machine": "press", "ticks": 20}, "machines": {"LV@HV": 1}}`,
		},
		{
			name: "zero count consumable",
			in:   `{"recipe": {"machine": "press", "ticks": 20, "consumed": [{"product": "plank", "count": 0}]}, "machines": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var setup Setup
			if err := json.Unmarshal([]byte(tt.in), &setup); err == nil {
				t.Errorf("Unmarshal(%s) succeeded, want error", tt.in)
			}
		})
	}
}
