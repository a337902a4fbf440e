package recipeapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/windoze95/saltybytes-search/internal/cache"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second), srv
}

func TestSearch_SendsQueryFiltersAndLimit(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recipes/search" {
			t.Errorf("path = %q, want /recipes/search", r.URL.Path)
		}
		q := r.URL.Query()
		if len(q) != 4 {
			t.Errorf("got %d query params (%v), want 4", len(q), q)
		}
		if q.Get("query") != "pasta" || q.Get("cuisine") != "Italian" || q.Get("maxCalories") != "500" || q.Get("maxResultSize") != "10" {
			t.Errorf("unexpected params: %v", q)
		}
		w.Write([]byte(`{"results":[{"id":1,"title":"Pasta","image":"p.jpg"}],"totalResults":1}`))
	})

	resp, err := client.Search(context.Background(), SearchParams{Query: "pasta", Cuisine: "Italian", MaxCalories: 500, Limit: 10})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Pasta" {
		t.Errorf("Results = %+v", resp.Results)
	}
}

func TestSearch_OmitsEmptyFilters(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if _, ok := q["cuisine"]; ok {
			t.Error("cuisine should be omitted")
		}
		if _, ok := q["maxCalories"]; ok {
			t.Error("maxCalories should be omitted")
		}
		if q.Get("maxResultSize") != "5" {
			t.Errorf("maxResultSize = %q, want 5", q.Get("maxResultSize"))
		}
		w.Write([]byte(`{"totalResults":0}`))
	})

	resp, err := client.Search(context.Background(), SearchParams{Query: "ap", Limit: 5})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("Results = %#v, want empty non-nil slice", resp.Results)
	}
}

func TestGetRecipe_DecodesDetail(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recipes/42" {
			t.Errorf("path = %q, want /recipes/42", r.URL.Path)
		}
		w.Write([]byte(`{
			"id": 42, "title": "Soup", "servings": 2, "readyInMinutes": 30,
			"healthScore": 55, "pricePerServing": 123.4,
			"extendedIngredients": [
				{"id": 7, "originalName": "carrot", "measures": {"metric": {"amount": 100, "unitLong": "grams"}}},
				{"id": 8, "originalName": "salt"}
			],
			"analyzedInstructions": [{"name": "", "steps": [{"number": 1, "step": "Boil."}]}]
		}`))
	})

	recipe, err := client.GetRecipe(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetRecipe() error: %v", err)
	}
	if recipe.Title != "Soup" || len(recipe.ExtendedIngredients) != 2 {
		t.Fatalf("recipe = %+v", recipe)
	}
	if m := recipe.ExtendedIngredients[0].Measures.Metric; m == nil || m.UnitLong != "grams" {
		t.Errorf("metric measure = %+v", m)
	}
	if recipe.ExtendedIngredients[1].Measures.Metric != nil {
		t.Error("missing metric measure should decode as nil")
	}
}

func TestGetIngredient_SendsAmountAndUnit(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ingredients/7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("amount"); got != "1.5" {
			t.Errorf("amount = %q, want 1.5", got)
		}
		if got := r.URL.Query().Get("unit"); got != "grams" {
			t.Errorf("unit = %q, want grams", got)
		}
		w.Write([]byte(`{"estimatedCost":{"value":12.5,"unit":"US Cents"},"nutrition":{"nutrients":[{"name":"Calories","amount":41,"unit":"kcal"}]}}`))
	})

	info, err := client.GetIngredient(context.Background(), 7, 1.5, "grams")
	if err != nil {
		t.Fatalf("GetIngredient() error: %v", err)
	}
	if info.ID != 7 {
		t.Errorf("ID = %d, want 7 (filled from request)", info.ID)
	}
	if len(info.Nutrition.Nutrients) != 1 || info.Nutrition.Nutrients[0].Amount != 41 {
		t.Errorf("nutrients = %+v", info.Nutrition.Nutrients)
	}
}

func TestGet_NonSuccessReturnsStatusError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte("daily quota used"))
	})

	_, err := client.GetRecipe(context.Background(), 1)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusPaymentRequired || se.Body != "daily quota used" || se.Operation != OpRecipe {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestGet_NetworkFailureHasNoStatus(t *testing.T) {
	client, srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.Search(context.Background(), SearchParams{Query: "x", Limit: 1})
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Errorf("network failure should not carry a StatusError, got %+v", se)
	}
}

func TestGet_MalformedBody(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := client.GetRecipe(context.Background(), 1)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestGetIngredient_UsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"nutrition":{"nutrients":[{"name":"Calories","amount":10,"unit":"kcal"}]}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, WithCache(cache.NewMemory(10), time.Minute))
	for i := 0; i < 3; i++ {
		if _, err := client.GetIngredient(context.Background(), 5, 1, "serving"); err != nil {
			t.Fatalf("GetIngredient() error: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hits = %d, want 1", hits.Load())
	}

	if _, err := client.GetIngredient(context.Background(), 5, 2, "serving"); err != nil {
		t.Fatalf("GetIngredient() error: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("different amount should miss the cache, hits = %d", hits.Load())
	}
}

func TestGetRecipe_FailuresAreNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":3,"title":"Ok"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, WithCache(cache.NewMemory(10), time.Minute))
	if _, err := client.GetRecipe(context.Background(), 3); err == nil {
		t.Fatal("first call should fail")
	}
	recipe, err := client.GetRecipe(context.Background(), 3)
	if err != nil {
		t.Fatalf("second call error: %v", err)
	}
	if recipe.Title != "Ok" {
		t.Errorf("Title = %q, want Ok", recipe.Title)
	}
}
