package chainfile

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"chainflux/core/chain"
	"chainflux/core/recipe"
	"chainflux/internal/errors"
)

// The YAML wire mirrors the JSON wire field for field. Machine populations
// are the one polymorphic spot, so they decode through a raw node.
type chainDoc struct {
	Setups     []setupDoc `yaml:"setups"`
	ExplicitIO []string   `yaml:"explicit_io"`
}

type setupDoc struct {
	Recipe   recipeDoc  `yaml:"recipe"`
	Machines *yaml.Node `yaml:"machines"`
	Weight   *uint64    `yaml:"weight"`
}

type recipeDoc struct {
	Machine   string       `yaml:"machine"`
	Ticks     uint64       `yaml:"ticks"`
	EUPerTick int64        `yaml:"eu_per_tick"`
	Catalysts []string     `yaml:"catalysts"`
	Consumed  []productDoc `yaml:"consumed"`
	Produced  []productDoc `yaml:"produced"`
}

type productDoc struct {
	Product string `yaml:"product"`
	Count   uint64 `yaml:"count"`
}

func parseYAML(data []byte) (*chain.ProcessingChain, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc chainDoc
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, errors.New(errors.TypeParsing, "empty chain document")
		}
		return nil, errors.Parsing("decoding chain YAML", err)
	}

	setups := make([]chain.Setup, 0, len(doc.Setups))
	for i, sd := range doc.Setups {
		setup, err := sd.toSetup()
		if err != nil {
			return nil, errors.Wrapf(errors.TypeParsing, err, "setup %d", i)
		}
		setups = append(setups, setup)
	}

	explicitIO := make([]recipe.Product, 0, len(doc.ExplicitIO))
	for _, p := range doc.ExplicitIO {
		explicitIO = append(explicitIO, recipe.Product(p))
	}

	c := chain.New(setups, explicitIO)
	if err := c.Validate(); err != nil {
		return nil, errors.Validation("invalid chain", err)
	}
	return c, nil
}

func (sd setupDoc) toSetup() (chain.Setup, error) {
	machines, err := sd.machines()
	if err != nil {
		return chain.Setup{}, err
	}

	setup := chain.NewSetup(sd.Recipe.toRecipe(), machines)
	if sd.Weight != nil {
		setup.Weight = chain.Weight(*sd.Weight)
	}
	return setup, nil
}

// machines resolves the polymorphic population node: a scalar is an eco
// count, a mapping is a clocked population.
func (sd setupDoc) machines() (chain.Machines, error) {
	node := sd.Machines
	if node == nil {
		return chain.Machines{}, fmt.Errorf("chainfile: setup %q is missing machines", sd.Recipe.Machine)
	}

	switch node.Kind {
	case yaml.ScalarNode:
		var count uint64
		if err := node.Decode(&count); err != nil {
			return chain.Machines{}, fmt.Errorf("chainfile: eco machine count: %w", err)
		}
		return chain.Eco(count), nil
	case yaml.MappingNode:
		var wire map[string]uint64
		if err := node.Decode(&wire); err != nil {
			return chain.Machines{}, fmt.Errorf("chainfile: machine population: %w", err)
		}
		return chain.PopulationFromWire(wire)
	default:
		return chain.Machines{}, fmt.Errorf("chainfile: machines must be an eco count or a population map")
	}
}

func (rd recipeDoc) toRecipe() recipe.Recipe {
	r := recipe.Recipe{
		Machine:   recipe.MachineName(rd.Machine),
		Ticks:     rd.Ticks,
		EUPerTick: rd.EUPerTick,
	}
	for _, p := range rd.Catalysts {
		r.Catalysts = append(r.Catalysts, recipe.Product(p))
	}
	for _, pd := range rd.Consumed {
		r.Consumed = append(r.Consumed, recipe.ProductCount{Product: recipe.Product(pd.Product), Count: pd.Count})
	}
	for _, pd := range rd.Produced {
		r.Produced = append(r.Produced, recipe.ProductCount{Product: recipe.Product(pd.Product), Count: pd.Count})
	}
	return r
}

// The encode side uses plain values for the polymorphic spots so the
// emitted document reads like the hand-written form.
type chainOut struct {
	Setups     []setupOut `yaml:"setups,omitempty"`
	ExplicitIO []string   `yaml:"explicit_io,omitempty"`
}

type setupOut struct {
	Recipe   recipeOut   `yaml:"recipe"`
	Machines interface{} `yaml:"machines"`
	Weight   *uint64     `yaml:"weight,omitempty"`
}

type recipeOut struct {
	Machine   string       `yaml:"machine"`
	Ticks     uint64       `yaml:"ticks"`
	EUPerTick int64        `yaml:"eu_per_tick,omitempty"`
	Catalysts []string     `yaml:"catalysts,omitempty"`
	Consumed  []productDoc `yaml:"consumed,omitempty"`
	Produced  []productDoc `yaml:"produced,omitempty"`
}

func encodeYAML(c *chain.ProcessingChain) ([]byte, error) {
	doc := chainOut{}

	for i := 0; i < c.Len(); i++ {
		s := c.At(i)
		out := setupOut{Recipe: recipeToOut(&s.Recipe)}

		if s.Machines.Kind() == chain.KindEco {
			out.Machines = s.Machines.EcoCount()
		} else {
			wire := make(map[string]uint64, len(s.Machines.Clocked()))
			for machine, count := range s.Machines.Clocked() {
				wire[machine.String()] = count
			}
			out.Machines = wire
		}

		if s.Weight != chain.DefaultWeight {
			w := uint64(s.Weight)
			out.Weight = &w
		}

		doc.Setups = append(doc.Setups, out)
	}

	for _, p := range c.ExplicitIO() {
		doc.ExplicitIO = append(doc.ExplicitIO, string(p))
	}

	return yaml.Marshal(doc)
}

func recipeToOut(r *recipe.Recipe) recipeOut {
	out := recipeOut{
		Machine:   string(r.Machine),
		Ticks:     r.Ticks,
		EUPerTick: r.EUPerTick,
	}
	for _, p := range r.Catalysts {
		out.Catalysts = append(out.Catalysts, string(p))
	}
	for _, pc := range r.Consumed {
		out.Consumed = append(out.Consumed, productDoc{Product: string(pc.Product), Count: pc.Count})
	}
	for _, pc := range r.Produced {
		out.Produced = append(out.Produced, productDoc{Product: string(pc.Product), Count: pc.Count})
	}
	return out
}
