package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/windoze95/saltybytes-search/internal/recipeapi"
)

// IngredientCall records one GetIngredient request.
type IngredientCall struct {
	ID     int
	Amount float64
	Unit   string
}

// --- MockRecipeAPI ---

// MockRecipeAPI is a mock implementation of session.API. Unset funcs fall
// back to the fixtures in this package.
type MockRecipeAPI struct {
	SearchFunc        func(ctx context.Context, p recipeapi.SearchParams) (*recipeapi.SearchResponse, error)
	GetRecipeFunc     func(ctx context.Context, id int) (*recipeapi.Recipe, error)
	GetIngredientFunc func(ctx context.Context, id int, amount float64, unit string) (*recipeapi.IngredientInfo, error)

	mu          sync.Mutex
	searches    []recipeapi.SearchParams
	recipes     []int
	ingredients []IngredientCall
}

// NewMockRecipeAPI returns a mock serving TestSearchResponse, TestRecipe
// and TestIngredientInfo.
func NewMockRecipeAPI() *MockRecipeAPI {
	return &MockRecipeAPI{}
}

func (m *MockRecipeAPI) Search(ctx context.Context, p recipeapi.SearchParams) (*recipeapi.SearchResponse, error) {
	m.mu.Lock()
	m.searches = append(m.searches, p)
	m.mu.Unlock()
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, p)
	}
	return TestSearchResponse(), nil
}

func (m *MockRecipeAPI) GetRecipe(ctx context.Context, id int) (*recipeapi.Recipe, error) {
	m.mu.Lock()
	m.recipes = append(m.recipes, id)
	m.mu.Unlock()
	if m.GetRecipeFunc != nil {
		return m.GetRecipeFunc(ctx, id)
	}
	recipe := TestRecipe()
	recipe.ID = id
	return recipe, nil
}

func (m *MockRecipeAPI) GetIngredient(ctx context.Context, id int, amount float64, unit string) (*recipeapi.IngredientInfo, error) {
	m.mu.Lock()
	m.ingredients = append(m.ingredients, IngredientCall{ID: id, Amount: amount, Unit: unit})
	m.mu.Unlock()
	if m.GetIngredientFunc != nil {
		return m.GetIngredientFunc(ctx, id, amount, unit)
	}
	info, ok := TestIngredientInfo(id)
	if !ok {
		return nil, fmt.Errorf("ingredient %d not configured", id)
	}
	return info, nil
}

// Searches returns the search requests received so far.
func (m *MockRecipeAPI) Searches() []recipeapi.SearchParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recipeapi.SearchParams(nil), m.searches...)
}

// RecipeRequests returns the recipe ids requested so far.
func (m *MockRecipeAPI) RecipeRequests() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.recipes...)
}

// IngredientRequests returns the ingredient lookups received so far.
func (m *MockRecipeAPI) IngredientRequests() []IngredientCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]IngredientCall(nil), m.ingredients...)
}
