// Package recipeapi is the HTTP client for the recipe data service.
package recipeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/windoze95/saltybytes-search/internal/cache"
	"github.com/windoze95/saltybytes-search/internal/logger"
	"github.com/windoze95/saltybytes-search/internal/metrics"
	"go.uber.org/zap"
)

// Operation names used in errors, logs and metrics.
const (
	OpSearch     = "search"
	OpRecipe     = "recipe"
	OpIngredient = "ingredient"
)

// ErrMalformedResponse marks a 2xx response whose body could not be decoded.
var ErrMalformedResponse = errors.New("malformed response from recipe service")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("recipe service %s returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Client talks to the recipe data service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
	cacheTTL   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache enables response caching for recipe and ingredient lookups.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a recipe search.
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("query", p.Query)
	params.Set("maxResultSize", strconv.Itoa(p.Limit))
	if p.Cuisine != "" {
		params.Set("cuisine", p.Cuisine)
	}
	if p.MaxCalories > 0 {
		params.Set("maxCalories", strconv.Itoa(p.MaxCalories))
	}

	body, err := c.get(ctx, OpSearch, "/recipes/search", params)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := decode(OpSearch, body, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []Summary{}
	}
	return &resp, nil
}

// GetRecipe fetches the detail of one recipe.
func (c *Client) GetRecipe(ctx context.Context, id int) (*Recipe, error) {
	key := fmt.Sprintf("recipe:%d", id)
	body, err := c.cachedGet(ctx, OpRecipe, key, fmt.Sprintf("/recipes/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var recipe Recipe
	if err := decode(OpRecipe, body, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// GetIngredient fetches cost and nutrition for amount of unit of an ingredient.
func (c *Client) GetIngredient(ctx context.Context, id int, amount float64, unit string) (*IngredientInfo, error) {
	amountStr := strconv.FormatFloat(amount, 'f', -1, 64)
	params := url.Values{}
	params.Set("amount", amountStr)
	params.Set("unit", unit)

	key := fmt.Sprintf("ingredient:%d:%s:%s", id, amountStr, unit)
	body, err := c.cachedGet(ctx, OpIngredient, key, fmt.Sprintf("/ingredients/%d", id), params)
	if err != nil {
		return nil, err
	}

	var info IngredientInfo
	if err := decode(OpIngredient, body, &info); err != nil {
		return nil, err
	}
	if info.ID == 0 {
		info.ID = id
	}
	return &info, nil
}

func (c *Client) cachedGet(ctx context.Context, op, key, path string, params url.Values) ([]byte, error) {
	if c.cache == nil {
		return c.get(ctx, op, path, params)
	}

	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.Get().Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.ObserveCache(op, ok)
	if ok {
		return cached, nil
	}

	body, err := c.get(ctx, op, path, params)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
		logger.Get().Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(op, 0, time.Since(start))
		return nil, fmt.Errorf("recipe service %s request failed: %w", op, err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(op, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Operation: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func decode(op string, body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse %s response: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}
