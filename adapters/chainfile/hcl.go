package chainfile

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"chainflux/core/chain"
	"chainflux/core/recipe"
	"chainflux/internal/errors"
)

// The HCL form puts each setup in a labeled block:
//
//	setup "electrolyzer" {
//	  ticks       = 40
//	  eu_per_tick = 30
//	  consumed    = { water = 6 }
//	  produced    = { hydrogen = 4, oxygen = 2 }
//	  machines    = { "LV" = 2 }
//	}
//
//	explicit_io = ["water"]
//
// machines is either a population object or a bare eco machine count.
// Consumed and produced goods are objects, so they load in name order.

var chainSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "explicit_io"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "setup", LabelNames: []string{"machine"}},
	},
}

var setupSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "ticks", Required: true},
		{Name: "machines", Required: true},
		{Name: "eu_per_tick"},
		{Name: "weight"},
		{Name: "catalysts"},
		{Name: "consumed"},
		{Name: "produced"},
	},
}

func parseHCL(src []byte, filename string) (*chain.ProcessingChain, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Parsing("invalid chain description", diags)
	}

	content, diags := file.Body.Content(chainSchema)
	if diags.HasErrors() {
		return nil, errors.Parsing("invalid chain description", diags)
	}

	var setups []chain.Setup
	for _, block := range content.Blocks {
		setup, err := decodeSetupBlock(block)
		if err != nil {
			return nil, err
		}
		setups = append(setups, setup)
	}

	var explicitIO []recipe.Product
	if attr, ok := content.Attributes["explicit_io"]; ok {
		names, err := attrStrings(attr)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			explicitIO = append(explicitIO, recipe.Product(name))
		}
	}

	c := chain.New(setups, explicitIO)
	if err := c.Validate(); err != nil {
		return nil, errors.Validation("invalid chain description", err)
	}
	return c, nil
}

func decodeSetupBlock(block *hcl.Block) (chain.Setup, error) {
	content, diags := block.Body.Content(setupSchema)
	if diags.HasErrors() {
		return chain.Setup{}, errors.Parsing(fmt.Sprintf("setup %q", block.Labels[0]), diags)
	}

	r := recipe.Recipe{Machine: recipe.MachineName(block.Labels[0])}

	ticks, err := attrUint(content.Attributes["ticks"])
	if err != nil {
		return chain.Setup{}, err
	}
	r.Ticks = ticks

	if attr, ok := content.Attributes["eu_per_tick"]; ok {
		eu, err := attrInt(attr)
		if err != nil {
			return chain.Setup{}, err
		}
		r.EUPerTick = eu
	}

	if attr, ok := content.Attributes["catalysts"]; ok {
		names, err := attrStrings(attr)
		if err != nil {
			return chain.Setup{}, err
		}
		for _, name := range names {
			r.Catalysts = append(r.Catalysts, recipe.Product(name))
		}
	}

	if attr, ok := content.Attributes["consumed"]; ok {
		r.Consumed, err = attrProductCounts(attr)
		if err != nil {
			return chain.Setup{}, err
		}
	}

	if attr, ok := content.Attributes["produced"]; ok {
		r.Produced, err = attrProductCounts(attr)
		if err != nil {
			return chain.Setup{}, err
		}
	}

	machines, err := attrMachines(content.Attributes["machines"])
	if err != nil {
		return chain.Setup{}, err
	}

	setup := chain.NewSetup(r, machines)
	if attr, ok := content.Attributes["weight"]; ok {
		w, err := attrUint(attr)
		if err != nil {
			return chain.Setup{}, err
		}
		setup.Weight = chain.Weight(w)
	}
	return setup, nil
}

// attrMachines resolves the polymorphic machines attribute: a bare number is
// an eco count, an object is a clocked population.
func attrMachines(attr *hcl.Attribute) (chain.Machines, error) {
	val, err := attrValue(attr)
	if err != nil {
		return chain.Machines{}, err
	}

	if val.Type() == cty.Number {
		count, err := ctyUint(val, attr.Name)
		if err != nil {
			return chain.Machines{}, err
		}
		return chain.Eco(count), nil
	}

	wire, err := ctyCounts(val, attr.Name)
	if err != nil {
		return chain.Machines{}, err
	}
	return chain.PopulationFromWire(wire)
}

func attrProductCounts(attr *hcl.Attribute) ([]recipe.ProductCount, error) {
	val, err := attrValue(attr)
	if err != nil {
		return nil, err
	}
	wire, err := ctyCounts(val, attr.Name)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(wire))
	for name := range wire {
		names = append(names, name)
	}
	sort.Strings(names)

	counts := make([]recipe.ProductCount, 0, len(names))
	for _, name := range names {
		counts = append(counts, recipe.ProductCount{Product: recipe.Product(name), Count: wire[name]})
	}
	return counts, nil
}

// attrValue evaluates an attribute expression. Values are never passed
// through blind: unknown and null values reject the document.
func attrValue(attr *hcl.Attribute) (cty.Value, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, errors.Parsing(fmt.Sprintf("attribute %q", attr.Name), diags)
	}
	if !val.IsKnown() || val.IsNull() {
		return cty.NilVal, errors.Newf(errors.TypeParsing, "attribute %q has no usable value", attr.Name)
	}
	return val, nil
}

func attrUint(attr *hcl.Attribute) (uint64, error) {
	val, err := attrValue(attr)
	if err != nil {
		return 0, err
	}
	return ctyUint(val, attr.Name)
}

func attrInt(attr *hcl.Attribute) (int64, error) {
	val, err := attrValue(attr)
	if err != nil {
		return 0, err
	}
	if val.Type() != cty.Number {
		return 0, errors.Newf(errors.TypeParsing, "attribute %q must be a number", attr.Name)
	}
	n, acc := val.AsBigFloat().Int64()
	if acc != big.Exact {
		return 0, errors.Newf(errors.TypeParsing, "attribute %q must be a whole number", attr.Name)
	}
	return n, nil
}

func attrStrings(attr *hcl.Attribute) ([]string, error) {
	val, err := attrValue(attr)
	if err != nil {
		return nil, err
	}
	if !val.CanIterateElements() {
		return nil, errors.Newf(errors.TypeParsing, "attribute %q must be a list of strings", attr.Name)
	}

	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.Type() != cty.String {
			return nil, errors.Newf(errors.TypeParsing, "attribute %q must contain only strings", attr.Name)
		}
		out = append(out, elem.AsString())
	}
	return out, nil
}

func ctyUint(val cty.Value, what string) (uint64, error) {
	if val.Type() != cty.Number {
		return 0, errors.Newf(errors.TypeParsing, "attribute %q must be a number", what)
	}
	n, acc := val.AsBigFloat().Int64()
	if acc != big.Exact || n < 0 {
		return 0, errors.Newf(errors.TypeParsing, "attribute %q must be a nonnegative whole number", what)
	}
	return uint64(n), nil
}

func ctyCounts(val cty.Value, what string) (map[string]uint64, error) {
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, errors.Newf(errors.TypeParsing, "attribute %q must be an object of counts", what)
	}
	if !val.CanIterateElements() {
		return nil, errors.Newf(errors.TypeParsing, "attribute %q must be an object of counts", what)
	}

	out := make(map[string]uint64)
	for it := val.ElementIterator(); it.Next(); {
		key, elem := it.Element()
		count, err := ctyUint(elem, what)
		if err != nil {
			return nil, err
		}
		out[key.AsString()] = count
	}
	return out, nil
}
