package testutil

import (
	"github.com/windoze95/saltybytes-search/internal/recipeapi"
)

// Ingredient ids used by TestRecipe.
const (
	FlourID  = 20081
	MilkID   = 1077
	ButterID = 1001
)

// TestSearchResponse returns a two-result search page.
func TestSearchResponse() *recipeapi.SearchResponse {
	return &recipeapi.SearchResponse{
		Results: []recipeapi.Summary{
			{ID: 715538, Title: "Classic Pancakes", Image: "https://img.example.com/715538.jpg"},
			{ID: 716429, Title: "Pasta with Garlic", Image: "https://img.example.com/716429.jpg"},
		},
		TotalResults: 2,
	}
}

// TestRecipe returns a recipe with three measured ingredients. Butter has
// no unit so it is requested as one serving.
func TestRecipe() *recipeapi.Recipe {
	return &recipeapi.Recipe{
		ID:              715538,
		Title:           "Classic Pancakes",
		Image:           "https://img.example.com/715538.jpg",
		Servings:        4,
		ReadyInMinutes:  20,
		HealthScore:     12,
		PricePerServing: 56.3,
		ExtendedIngredients: []recipeapi.ExtendedIngredient{
			{ID: FlourID, OriginalName: "all-purpose flour", Measures: recipeapi.Measures{
				Metric: &recipeapi.Measure{Amount: 190, UnitLong: "grams"},
			}},
			{ID: MilkID, OriginalName: "milk", Measures: recipeapi.Measures{
				Metric: &recipeapi.Measure{Amount: 300, UnitLong: "milliliters"},
			}},
			{ID: ButterID, OriginalName: "melted butter", Measures: recipeapi.Measures{
				Metric: &recipeapi.Measure{Amount: 3, UnitLong: ""},
			}},
		},
		AnalyzedInstructions: []recipeapi.Instruction{{
			Steps: []recipeapi.Step{
				{Number: 1, Step: "Mix dry ingredients."},
				{Number: 2, Step: "Whisk in milk and butter."},
				{Number: 3, Step: "Cook on a hot griddle."},
			},
		}},
	}
}

var ingredientCalories = map[int]float64{
	FlourID:  692.4,
	MilkID:   183,
	ButterID: 102,
}

// TestIngredientInfo returns the lookup result for one of TestRecipe's
// ingredients.
func TestIngredientInfo(id int) (*recipeapi.IngredientInfo, bool) {
	kcal, ok := ingredientCalories[id]
	if !ok {
		return nil, false
	}
	return &recipeapi.IngredientInfo{
		ID:            id,
		EstimatedCost: recipeapi.Cost{Value: 25, Unit: "US Cents"},
		Nutrition: recipeapi.Nutrition{Nutrients: []recipeapi.Nutrient{
			{Name: "Fat", Amount: 1.2, Unit: "g"},
			{Name: "Calories", Amount: kcal, Unit: "kcal"},
		}},
	}, true
}

// TestRecipeCalories is the full calorie total of TestRecipe.
const TestRecipeCalories = 692.4 + 183 + 102
