package state

import (
	"github.com/windoze95/saltybytes-search/internal/apierror"
	"github.com/windoze95/saltybytes-search/internal/autocomplete"
	"github.com/windoze95/saltybytes-search/internal/nutrition"
	"github.com/windoze95/saltybytes-search/internal/recipeapi"
)

// Snapshot is everything a view needs to render one session.
type Snapshot struct {
	Version uint64 `json:"version"`
	Locale  string `json:"locale"`
	Dir     string `json:"dir"`

	Query       string `json:"query"`
	Cuisine     string `json:"cuisine"`
	MaxCalories int    `json:"max_calories"`

	Suggestions        []autocomplete.Suggestion `json:"suggestions"`
	SuggestionsOpen    bool                      `json:"suggestions_open"`
	SuggestionsLoading bool                      `json:"suggestions_loading"`

	Searching    bool                `json:"searching"`
	Searched     bool                `json:"searched"`
	Results      []recipeapi.Summary `json:"results"`
	TotalResults int                 `json:"total_results"`
	// Notice is a translation key for an inline, non-blocking message.
	Notice string `json:"notice,omitempty"`

	RecipeLoading bool                `json:"recipe_loading"`
	Recipe        *Recipe             `json:"recipe,omitempty"`
	Ingredients   []Ingredient        `json:"ingredients"`
	Aggregate     nutrition.Aggregate `json:"aggregate"`

	Error     *apierror.View `json:"error,omitempty"`
	ErrorOpen bool           `json:"error_open"`
}

// Recipe is the detail view's header and instructions.
type Recipe struct {
	ID              int                     `json:"id"`
	Title           string                  `json:"title"`
	Image           string                  `json:"image"`
	Servings        int                     `json:"servings"`
	ReadyInMinutes  int                     `json:"ready_in_minutes"`
	HealthScore     float64                 `json:"health_score"`
	PricePerServing float64                 `json:"price_per_serving"`
	Instructions    []recipeapi.Instruction `json:"instructions"`
}

// Ingredient is one ingredient card.
type Ingredient struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	Amount    float64          `json:"amount"`
	Unit      string           `json:"unit"`
	Status    nutrition.Status `json:"status"`
	CostCents float64          `json:"cost_cents"`
	Calories  float64          `json:"calories"`
	Excluded  bool             `json:"excluded"`
}

// RecipeFrom builds the detail header from a service response.
func RecipeFrom(r *recipeapi.Recipe) *Recipe {
	if r == nil {
		return nil
	}
	return &Recipe{
		ID:              r.ID,
		Title:           r.Title,
		Image:           r.Image,
		Servings:        r.Servings,
		ReadyInMinutes:  r.ReadyInMinutes,
		HealthScore:     r.HealthScore,
		PricePerServing: r.PricePerServing,
		Instructions:    cloneInstructions(r.AnalyzedInstructions),
	}
}

// IngredientsFrom renders tracker lines as ingredient cards.
func IngredientsFrom(lines []nutrition.Line) []Ingredient {
	out := make([]Ingredient, 0, len(lines))
	for _, l := range lines {
		ing := Ingredient{
			ID:       l.Ingredient.ID,
			Name:     l.Ingredient.Name,
			Amount:   l.Ingredient.Amount,
			Unit:     l.Ingredient.Unit,
			Status:   l.Status,
			Excluded: l.Excluded,
		}
		if l.Info != nil {
			ing.CostCents = l.Info.CostCents
			ing.Calories = l.Info.Calories
		}
		out = append(out, ing)
	}
	return out
}

// ClearDetail resets everything belonging to the recipe detail view.
func (s *Snapshot) ClearDetail() {
	s.RecipeLoading = false
	s.Recipe = nil
	s.Ingredients = nil
	s.Aggregate = nutrition.Aggregate{}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Suggestions = append([]autocomplete.Suggestion(nil), s.Suggestions...)
	c.Results = append([]recipeapi.Summary(nil), s.Results...)
	c.Ingredients = append([]Ingredient(nil), s.Ingredients...)
	if s.Recipe != nil {
		r := *s.Recipe
		r.Instructions = cloneInstructions(s.Recipe.Instructions)
		c.Recipe = &r
	}
	if s.Error != nil {
		e := *s.Error
		c.Error = &e
	}
	return c
}

func cloneInstructions(in []recipeapi.Instruction) []recipeapi.Instruction {
	if in == nil {
		return nil
	}
	out := make([]recipeapi.Instruction, len(in))
	for i, ins := range in {
		out[i] = recipeapi.Instruction{Name: ins.Name, Steps: append([]recipeapi.Step(nil), ins.Steps...)}
	}
	return out
}
