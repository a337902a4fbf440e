package nutrition

import (
	"context"

	"github.com/windoze95/saltybytes-search/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// Fetcher looks up one ingredient for the given amount and unit.
type Fetcher interface {
	Ingredient(ctx context.Context, id int, amount float64, unit string) (*Info, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, id int, amount float64, unit string) (*Info, error)

// Ingredient calls f.
func (f FetcherFunc) Ingredient(ctx context.Context, id int, amount float64, unit string) (*Info, error) {
	return f(ctx, id, amount, unit)
}

// FetchAll issues one lookup per distinct ingredient id, at most concurrency
// at a time. A failed lookup marks that ingredient unavailable and the rest
// carry on. onChange runs after every recorded result. When ctx is
// cancelled, outstanding lookups are abandoned without being recorded and
// ctx.Err() is returned.
func FetchAll(ctx context.Context, fetcher Fetcher, t *Tracker, concurrency int, onChange func()) error {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	log := logger.Get()

	var g errgroup.Group
	g.SetLimit(concurrency)

	for _, ing := range t.Distinct() {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			amount, unit := RequestFor(ing)
			info, err := fetcher.Ingredient(ctx, ing.ID, amount, unit)
			if ctx.Err() != nil {
				return nil
			}

			var recorded bool
			if err != nil || info == nil {
				log.Warn("ingredient lookup failed",
					zap.Int("ingredient_id", ing.ID),
					zap.Float64("amount", amount),
					zap.String("unit", unit),
					zap.Error(err))
				recorded = t.MarkUnavailable(ing.ID)
			} else {
				recorded = t.Record(ing.ID, info)
			}
			if recorded && onChange != nil {
				onChange()
			}
			return nil
		})
	}

	g.Wait()
	return ctx.Err()
}
