package recipeapi

// SearchParams holds the query for GET /recipes/search. Cuisine and
// MaxCalories are optional; zero values are omitted from the request.
type SearchParams struct {
	Query       string
	Cuisine     string
	MaxCalories int
	Limit       int
}

// SearchResponse is the search payload.
type SearchResponse struct {
	Results      []Summary `json:"results"`
	TotalResults int       `json:"totalResults"`
}

// Summary is a single search hit.
type Summary struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
}

// Recipe is the detail payload of GET /recipes/{id}.
type Recipe struct {
	ID                   int                  `json:"id"`
	Title                string               `json:"title"`
	Image                string               `json:"image"`
	Servings             int                  `json:"servings"`
	ReadyInMinutes       int                  `json:"readyInMinutes"`
	HealthScore          float64              `json:"healthScore"`
	PricePerServing      float64              `json:"pricePerServing"`
	ExtendedIngredients  []ExtendedIngredient `json:"extendedIngredients"`
	AnalyzedInstructions []Instruction        `json:"analyzedInstructions"`
}

// ExtendedIngredient is one ingredient line of a recipe.
type ExtendedIngredient struct {
	ID           int      `json:"id"`
	OriginalName string   `json:"originalName"`
	Measures     Measures `json:"measures"`
}

// Measures carries the unit-system specific amounts of an ingredient.
type Measures struct {
	Metric *Measure `json:"metric"`
}

// Measure is an amount with its long unit name.
type Measure struct {
	Amount   float64 `json:"amount"`
	UnitLong string  `json:"unitLong"`
}

// Instruction is a named group of steps.
type Instruction struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Step is one numbered instruction.
type Step struct {
	Number int    `json:"number"`
	Step   string `json:"step"`
}

// IngredientInfo is the payload of GET /ingredients/{id}.
type IngredientInfo struct {
	ID            int       `json:"id"`
	EstimatedCost Cost      `json:"estimatedCost"`
	Nutrition     Nutrition `json:"nutrition"`
}

// Cost is an amount in the service's currency unit (US cents).
type Cost struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Nutrition wraps the nutrient list.
type Nutrition struct {
	Nutrients []Nutrient `json:"nutrients"`
}

// Nutrient is a named amount such as Calories.
type Nutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}
