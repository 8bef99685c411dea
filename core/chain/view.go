package chain

import "strings"

// View is a bitmask of the presentation granularities a mutation touched.
// Editors recompute exactly the views a mutator reports: single-machine
// recipe rows, unthrottled setup rows, and equilibrium speed rows.
type View uint8

// The three granularities an editor renders a chain at.
const (
	ViewRecipe View = 1 << iota
	ViewSetup
	ViewSpeed
)

// ViewNone marks mutations with no computed consequence, such as renaming
// a machine.
const ViewNone View = 0

// ViewCalculated marks mutations that change derived numbers but not the
// row structure.
const ViewCalculated = ViewSetup | ViewSpeed

// ViewAll marks structural mutations.
const ViewAll = ViewRecipe | ViewSetup | ViewSpeed

// Has reports whether every granularity in flag needs recomputing.
func (v View) Has(flag View) bool {
	return v&flag == flag
}

// String lists the granularities in the mask.
func (v View) String() string {
	if v == ViewNone {
		return "none"
	}
	var parts []string
	if v.Has(ViewRecipe) {
		parts = append(parts, "recipe")
	}
	if v.Has(ViewSetup) {
		parts = append(parts, "setup")
	}
	if v.Has(ViewSpeed) {
		parts = append(parts, "speed")
	}
	return strings.Join(parts, "|")
}
