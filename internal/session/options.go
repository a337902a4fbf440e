package session

import (
	"time"

	"github.com/windoze95/saltybytes-search/internal/autocomplete"
	"github.com/windoze95/saltybytes-search/internal/config"
	"github.com/windoze95/saltybytes-search/internal/nutrition"
)

const DefaultSearchLimit = 10

// Options tunes every session a Manager creates.
type Options struct {
	SuggestDelay          time.Duration
	SuggestMinChars       int
	SuggestLimit          int
	SearchLimit           int
	IngredientConcurrency int
	// Clock drives the suggestion debounce timer. Nil means the wall clock.
	Clock autocomplete.Clock
}

// DefaultOptions matches the documented defaults of the environment config.
func DefaultOptions() Options {
	return Options{
		SuggestDelay:          autocomplete.DefaultDelay,
		SuggestMinChars:       autocomplete.DefaultMinChars,
		SuggestLimit:          autocomplete.DefaultLimit,
		SearchLimit:           DefaultSearchLimit,
		IngredientConcurrency: nutrition.DefaultConcurrency,
	}
}

// OptionsFromConfig reads the tuning knobs from the environment config.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	env := cfg.EnvVars
	if env.Suggest.Debounce > 0 {
		opts.SuggestDelay = env.Suggest.Debounce
	}
	if env.Suggest.MinChars > 0 {
		opts.SuggestMinChars = env.Suggest.MinChars
	}
	if env.Suggest.Limit > 0 {
		opts.SuggestLimit = env.Suggest.Limit
	}
	if env.Upstream.SearchLimit > 0 {
		opts.SearchLimit = env.Upstream.SearchLimit
	}
	if env.Upstream.IngredientConcurrency > 0 {
		opts.IngredientConcurrency = env.Upstream.IngredientConcurrency
	}
	return opts
}

func (o Options) engineOptions() []autocomplete.Option {
	opts := []autocomplete.Option{
		autocomplete.WithDelay(o.SuggestDelay),
		autocomplete.WithMinChars(o.SuggestMinChars),
		autocomplete.WithLimit(o.SuggestLimit),
	}
	if o.Clock != nil {
		opts = append(opts, autocomplete.WithClock(o.Clock))
	}
	return opts
}
