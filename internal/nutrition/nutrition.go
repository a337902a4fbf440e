// Package nutrition computes a recipe's total calories from ingredient data
// that arrives one ingredient at a time. The total is never stored: it is
// recomputed from the ingredient list, the arrived results and the
// exclusion set every time any of them changes.
package nutrition

import (
	"strings"

	"github.com/windoze95/saltybytes-search/internal/recipeapi"
)

const (
	DefaultAmount = 1.0
	DefaultUnit   = "serving"

	caloriesNutrient = "Calories"
)

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	ID     int
	Name   string
	Amount float64
	Unit   string
	// Measured is false when the recipe carried no metric measure.
	Measured bool
}

// Info is the nutrition and cost data of one ingredient.
type Info struct {
	ID int
	// CostCents is the estimated cost in US cents.
	CostCents float64
	Calories  float64
}

// Result is the terminal outcome of one ingredient fetch. Info is nil when
// the fetch failed.
type Result struct {
	Info *Info
}

// Available reports whether the fetch succeeded.
func (r Result) Available() bool { return r.Info != nil }

// ExclusionSet maps ingredient ids to "excluded from the total".
type ExclusionSet map[int]bool

// Aggregate is the total-calorie figure plus enough bookkeeping to tell a
// final number from one that may still grow.
type Aggregate struct {
	Calories    float64 `json:"calories"`
	Final       bool    `json:"final"`
	Pending     int     `json:"pending"`
	Available   int     `json:"available"`
	Unavailable int     `json:"unavailable"`
	Excluded    int     `json:"excluded"`
}

// FromRecipe converts the recipe's ingredient lines, keeping their order.
func FromRecipe(r *recipeapi.Recipe) []Ingredient {
	if r == nil {
		return nil
	}
	out := make([]Ingredient, 0, len(r.ExtendedIngredients))
	for _, ext := range r.ExtendedIngredients {
		ing := Ingredient{ID: ext.ID, Name: ext.OriginalName}
		if m := ext.Measures.Metric; m != nil {
			ing.Amount = m.Amount
			ing.Unit = m.UnitLong
			ing.Measured = true
		}
		out = append(out, ing)
	}
	return out
}

// FromIngredientInfo extracts the cost and the Calories nutrient. A response
// without a Calories entry counts as 0 kcal.
func FromIngredientInfo(info *recipeapi.IngredientInfo) *Info {
	if info == nil {
		return nil
	}
	out := &Info{ID: info.ID, CostCents: info.EstimatedCost.Value}
	for _, n := range info.Nutrition.Nutrients {
		if strings.EqualFold(n.Name, caloriesNutrient) {
			out.Calories = n.Amount
			break
		}
	}
	return out
}

// RequestFor returns the amount and unit to ask the data service for.
// Missing or zero amounts fall back to 1, and a missing unit to "serving".
func RequestFor(ing Ingredient) (float64, string) {
	amount, unit := ing.Amount, strings.TrimSpace(ing.Unit)
	if !ing.Measured || amount <= 0 {
		amount = DefaultAmount
	}
	if !ing.Measured || unit == "" {
		unit = DefaultUnit
	}
	return amount, unit
}

// Total sums the Calories of every ingredient whose data has arrived and
// which is not excluded. It is a pure function of its arguments.
func Total(ingredients []Ingredient, results map[int]Result, excluded ExclusionSet) Aggregate {
	var agg Aggregate
	for _, ing := range ingredients {
		res, done := results[ing.ID]
		switch {
		case !done:
			agg.Pending++
		case res.Available():
			agg.Available++
		default:
			agg.Unavailable++
		}

		if excluded[ing.ID] {
			agg.Excluded++
			continue
		}
		if done && res.Available() {
			agg.Calories += res.Info.Calories
		}
	}
	agg.Final = agg.Pending == 0
	return agg
}
