package output

import (
	"encoding/json"
	"io"
	"math/big"

	"github.com/shopspring/decimal"

	"chainflux/core/chain"
	"chainflux/core/report"
)

// jsonFormatter renders a report as indented JSON. Every quantity carries
// both the exact rational and a fixed-precision decimal approximation.
type jsonFormatter struct {
	opts Options
}

func (f *jsonFormatter) Format() Format {
	return FormatJSON
}

type jsonReport struct {
	Setups      []jsonSetup `json:"setups"`
	Flows       jsonFlowSet `json:"flows"`
	ExplicitIO  []string    `json:"explicit_io,omitempty"`
	FreeSetups  int         `json:"free_setups"`
	Constraints int         `json:"constraints"`
}

type jsonSetup struct {
	Index         int                `json:"index"`
	Machine       string             `json:"machine"`
	Machines      string             `json:"machines,omitempty"`
	Count         uint64             `json:"count"`
	Weight        chain.Weight       `json:"weight"`
	Speed         jsonRat            `json:"speed"`
	Free          bool               `json:"free"`
	PowerMismatch string             `json:"power_mismatch,omitempty"`
	EUPerTick     *jsonRat           `json:"eu_per_tick,omitempty"`
	Flows         map[string]jsonRat `json:"flows,omitempty"`
}

type jsonFlowSet struct {
	Equilibrium jsonFlows `json:"equilibrium"`
	Unthrottled jsonFlows `json:"unthrottled"`
	PerRecipe   jsonFlows `json:"per_recipe"`
}

type jsonFlows struct {
	Products  map[string]jsonRat `json:"products,omitempty"`
	EUPerTick *jsonRat           `json:"eu_per_tick,omitempty"`
}

// jsonRat is a rational rendered both ways.
type jsonRat struct {
	Exact  string `json:"exact"`
	Approx string `json:"approx"`
}

func (f *jsonFormatter) Render(w io.Writer, r *report.Report) error {
	doc := jsonReport{
		Setups:      make([]jsonSetup, 0, len(r.Setups)),
		FreeSetups:  r.FreeCount,
		Constraints: r.Rank,
	}

	for _, p := range r.ExplicitIO {
		doc.ExplicitIO = append(doc.ExplicitIO, string(p))
	}

	for _, s := range r.Setups {
		js := jsonSetup{
			Index:   s.Index,
			Machine: string(s.Machine),
			Count:   s.Count,
			Weight:  s.Weight,
			Speed:   f.rat(s.Speed),
			Free:    s.Free,
		}
		if f.opts.ShowMachines {
			js.Machines = s.Machines
		}
		if s.Mismatch != nil {
			js.PowerMismatch = s.Mismatch.Error()
		}
		if f.opts.ShowPower {
			js.EUPerTick = f.ratPtr(s.EUPerTick)
		}
		if len(s.Flows) > 0 {
			js.Flows = make(map[string]jsonRat, len(s.Flows))
			for product, rate := range s.Flows {
				js.Flows[string(product)] = f.rat(rate)
			}
		}
		doc.Setups = append(doc.Setups, js)
	}

	doc.Flows = jsonFlowSet{
		Equilibrium: f.flows(r.Equilibrium),
		Unthrottled: f.flows(r.Unthrottled),
		PerRecipe:   f.flows(r.PerRecipe),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func (f *jsonFormatter) flows(flows *chain.Flows) jsonFlows {
	out := jsonFlows{}
	if flows.Len() > 0 {
		out.Products = make(map[string]jsonRat, flows.Len())
		for _, product := range flows.Products() {
			out.Products[string(product)] = f.rat(flows.Rate(product))
		}
	}
	if f.opts.ShowPower {
		out.EUPerTick = f.ratPtr(flows.EUPerTick())
	}
	return out
}

func (f *jsonFormatter) rat(r *big.Rat) jsonRat {
	return jsonRat{
		Exact:  r.RatString(),
		Approx: decimal.NewFromBigRat(r, f.opts.Precision).StringFixed(f.opts.Precision),
	}
}

func (f *jsonFormatter) ratPtr(r *big.Rat) *jsonRat {
	if r == nil {
		return nil
	}
	v := f.rat(r)
	return &v
}
