package chainfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"chainflux/core/chain"
	"chainflux/internal/errors"
)

const jsonFixture = `{
	"setups": [
		{
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
			"machines": {"LV": 2}
		},
		{
			"recipe": {
				"machine": "hydrogen burner",
				"ticks": 20,
				"eu_per_tick": -24,
				"consumed": [{"product": "hydrogen", "count": 3}]
			},
			"machines": {"MV": 1},
			"weight": 2
		}
	],
	"explicit_io": ["oxygen", "water"]
}`

const yamlFixture = `setups:
  - recipe:
      machine: electrolyzer
      ticks: 40
      eu_per_tick: 30
      consumed:
        - product: water
          count: 6
      produced:
        - product: hydrogen
          count: 4
        - product: oxygen
          count: 2
    machines:
      LV: 2
  - recipe:
      machine: hydrogen burner
      ticks: 20
      eu_per_tick: -24
      consumed:
        - product: hydrogen
          count: 3
    machines:
      MV: 1
    weight: 2
explicit_io: [oxygen, water]
`

const hclFixture = `setup "electrolyzer" {
  ticks       = 40
  eu_per_tick = 30
  consumed    = { water = 6 }
  produced    = { hydrogen = 4, oxygen = 2 }
  machines    = { "LV" = 2 }
}

setup "hydrogen burner" {
  ticks       = 20
  eu_per_tick = -24
  consumed    = { hydrogen = 3 }
  machines    = { MV = 1 }
  weight      = 2
}

explicit_io = ["oxygen", "water"]
`

// canonical renders a chain in the JSON wire form for cross-format
// comparison.
func canonical(t *testing.T, c *chain.ProcessingChain) string {
	t.Helper()
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return string(data)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"chain.json", FormatJSON},
		{"dir/chain.yaml", FormatYAML},
		{"chain.YML", FormatYAML},
		{"chain.hcl", FormatHCL},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if err != nil || got != tt.want {
			t.Errorf("DetectFormat(%s) = %v, %v, want %v", tt.path, got, err, tt.want)
		}
	}

	if _, err := DetectFormat("chain.toml"); err == nil {
		t.Error("DetectFormat accepted an unknown extension")
	}
}

func TestParseFormatNames(t *testing.T) {
	for name, want := range map[string]Format{
		"json": FormatJSON,
		"yaml": FormatYAML,
		"yml":  FormatYAML,
		"HCL":  FormatHCL,
	} {
		got, err := ParseFormat(name)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%s) = %v, %v, want %v", name, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat accepted an unknown name")
	}
}

func TestFormatsAgree(t *testing.T) {
	fromJSON, err := Parse([]byte(jsonFixture), FormatJSON)
	if err != nil {
		t.Fatalf("JSON parse failed: %v", err)
	}
	fromYAML, err := Parse([]byte(yamlFixture), FormatYAML)
	if err != nil {
		t.Fatalf("YAML parse failed: %v", err)
	}
	fromHCL, err := Parse([]byte(hclFixture), FormatHCL)
	if err != nil {
		t.Fatalf("HCL parse failed: %v", err)
	}

	want := canonical(t, fromJSON)
	if got := canonical(t, fromYAML); got != want {
		t.Errorf("YAML decoded differently:\n%s\n%s", got, want)
	}
	if got := canonical(t, fromHCL); got != want {
		t.Errorf("HCL decoded differently:\n%s\n%s", got, want)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	c, err := Parse([]byte(jsonFixture), FormatJSON)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	data, err := Encode(c, FormatJSON)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if data[len(data)-1] != '\n' {
		t.Error("Encoded file must end with a newline")
	}

	back, err := Parse(data, FormatJSON)
	if err != nil {
		t.Fatalf("Reparse failed: %v", err)
	}
	if canonical(t, back) != canonical(t, c) {
		t.Error("JSON round trip changed the chain")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	c, err := Parse([]byte(yamlFixture), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	data, err := Encode(c, FormatYAML)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	back, err := Parse(data, FormatYAML)
	if err != nil {
		t.Fatalf("Reparse failed: %v\n%s", err, data)
	}
	if canonical(t, back) != canonical(t, c) {
		t.Error("YAML round trip changed the chain")
	}
}

func TestYAMLDefaults(t *testing.T) {
	in := `setups:
  - recipe:
      machine: press
      ticks: 20
      consumed:
        - product: plank
          count: 2
      produced:
        - product: plate
          count: 1
    machines: 5
`
	c, err := Parse([]byte(in), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s := c.At(0)
	if s.Machines.Kind() != chain.KindEco || s.Machines.EcoCount() != 5 {
		t.Errorf("Machines = %+v, want eco x5", s.Machines)
	}
	if s.Weight != chain.DefaultWeight {
		t.Errorf("Weight = %d, want default", s.Weight)
	}

	// An explicit zero weight is meaningful and must survive.
	zero := `setups:
  - recipe:
      machine: press
      ticks: 20
    machines: 1
    weight: 0
`
	c, err = Parse([]byte(zero), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.At(0).Weight != 0 {
		t.Errorf("Weight = %d, want 0", c.At(0).Weight)
	}
}

func TestYAMLRejections(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty document", ``},
		{
			"unknown field",
			"setups:\n  - recipe:\n      machine: press\n      ticks: 20\n      speed: 3\n    machines: 1\n",
		},
		{
			"missing machines",
			"setups:\n  - recipe:\n      machine: press\n      ticks: 20\n",
		},
		{
			"machines as a list",
			"setups:\n  - recipe:\n      machine: press\n      ticks: 20\n    machines: [1, 2]\n",
		},
		{
			"zero machine count",
			"setups:\n  - recipe:\n      machine: press\n      ticks: 20\n    machines:\n      LV: 0\n",
		},
		{
			"clock above tier",
			"setups:\n  - recipe:\n      machine: press\n      ticks: 20\n    machines:\n      LV@HV: 1\n",
		},
		{
			"zero ticks",
			"setups:\n  - recipe:\n      machine: press\n      ticks: 0\n    machines: 1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.in), FormatYAML); err == nil {
				t.Errorf("Parse succeeded, want error")
			}
		})
	}
}

func TestHCLEcoMachines(t *testing.T) {
	in := `setup "press" {
  ticks    = 20
  consumed = { plank = 2 }
  produced = { plate = 1 }
  machines = 5
}
`
	c, err := Parse([]byte(in), FormatHCL)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s := c.At(0)
	if s.Machines.Kind() != chain.KindEco || s.Machines.EcoCount() != 5 {
		t.Errorf("Machines = %+v, want eco x5", s.Machines)
	}
	if s.Recipe.Consumed[0].Product != "plank" || s.Recipe.Produced[0].Product != "plate" {
		t.Errorf("Recipe lists wrong: %+v", s.Recipe)
	}
}

func TestHCLRejections(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"syntax error", `setup "press" {`},
		{
			"unknown attribute",
			"setup \"press\" {\n  ticks = 20\n  machines = 1\n  speed = 3\n}\n",
		},
		{
			"unknown block",
			"recipe \"press\" {\n  ticks = 20\n}\n",
		},
		{
			"missing ticks",
			"setup \"press\" {\n  machines = 1\n}\n",
		},
		{
			"negative count",
			"setup \"press\" {\n  ticks = 20\n  consumed = { plank = -1 }\n  machines = 1\n}\n",
		},
		{
			"fractional count",
			"setup \"press\" {\n  ticks = 20\n  consumed = { plank = 1.5 }\n  machines = 1\n}\n",
		},
		{
			"machines as a list",
			"setup \"press\" {\n  ticks = 20\n  machines = [1]\n}\n",
		},
		{
			"missing setup label",
			"setup {\n  ticks = 20\n  machines = 1\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.in), FormatHCL); err == nil {
				t.Errorf("Parse succeeded, want error")
			}
		})
	}
}

func TestEncodeHCLUnsupported(t *testing.T) {
	c, err := Parse([]byte(jsonFixture), FormatJSON)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	_, err = Encode(c, FormatHCL)
	if !errors.IsType(err, errors.TypeNotSupported) {
		t.Errorf("Encode error = %v, want NOT_SUPPORTED", err)
	}
}

func TestLoadSave(t *testing.T) {
	c, err := Parse([]byte(jsonFixture), FormatJSON)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := canonical(t, c)

	dir := t.TempDir()
	for _, name := range []string{"chain.json", "chain.yaml"} {
		path := filepath.Join(dir, name)
		if err := Save(path, c); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}
		back, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", name, err)
		}
		if canonical(t, back) != want {
			t.Errorf("Load(%s) changed the chain", name)
		}
	}

	hclPath := filepath.Join(dir, "chain.hcl")
	if err := os.WriteFile(hclPath, []byte(hclFixture), 0644); err != nil {
		t.Fatal(err)
	}
	back, err := Load(hclPath)
	if err != nil {
		t.Fatalf("Load(chain.hcl) failed: %v", err)
	}
	if canonical(t, back) != want {
		t.Error("Load(chain.hcl) changed the chain")
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("Load of a missing file = %v, want NOT_FOUND", err)
	}
	if _, err := Load(filepath.Join(dir, "chain.toml")); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("Load of an unknown extension = %v, want INPUT_ERROR", err)
	}
}
