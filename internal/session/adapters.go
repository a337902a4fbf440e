package session

import (
	"context"

	"github.com/windoze95/saltybytes-search/internal/autocomplete"
	"github.com/windoze95/saltybytes-search/internal/nutrition"
	"github.com/windoze95/saltybytes-search/internal/recipeapi"
)

// API is the part of the recipe data service a session talks to.
type API interface {
	Search(ctx context.Context, p recipeapi.SearchParams) (*recipeapi.SearchResponse, error)
	GetRecipe(ctx context.Context, id int) (*recipeapi.Recipe, error)
	GetIngredient(ctx context.Context, id int, amount float64, unit string) (*recipeapi.IngredientInfo, error)
}

// suggestionFetcher asks the search endpoint for a short list of titles.
func suggestionFetcher(api API) autocomplete.Fetcher {
	return autocomplete.FetcherFunc(func(ctx context.Context, query string, limit int) ([]autocomplete.Suggestion, error) {
		resp, err := api.Search(ctx, recipeapi.SearchParams{Query: query, Limit: limit})
		if err != nil {
			return nil, err
		}
		out := make([]autocomplete.Suggestion, 0, len(resp.Results))
		for _, r := range resp.Results {
			out = append(out, autocomplete.Suggestion{ID: r.ID, Title: r.Title, Image: r.Image})
		}
		return out, nil
	})
}

func ingredientFetcher(api API) nutrition.Fetcher {
	return nutrition.FetcherFunc(func(ctx context.Context, id int, amount float64, unit string) (*nutrition.Info, error) {
		info, err := api.GetIngredient(ctx, id, amount, unit)
		if err != nil {
			return nil, err
		}
		return nutrition.FromIngredientInfo(info), nil
	})
}
