// Package session runs one browser's search and recipe detail views. It
// feeds UI events into the suggestion and nutrition engines, calls the
// recipe data service, and records everything in a state.Store.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/windoze95/saltybytes-search/internal/apierror"
	"github.com/windoze95/saltybytes-search/internal/autocomplete"
	"github.com/windoze95/saltybytes-search/internal/catalog"
	"github.com/windoze95/saltybytes-search/internal/i18n"
	"github.com/windoze95/saltybytes-search/internal/logger"
	"github.com/windoze95/saltybytes-search/internal/nutrition"
	"github.com/windoze95/saltybytes-search/internal/recipeapi"
	"github.com/windoze95/saltybytes-search/internal/state"
	"go.uber.org/zap"
)

// NoticeEmptyQuery is shown inline when a search is submitted without text.
const NoticeEmptyQuery = "recipeSearch.errorEmpty"

// ErrEmptyQuery is returned by Search when there is nothing to search for.
var ErrEmptyQuery = errors.New("search query is empty")

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session is closed")

// Session is safe for concurrent use.
type Session struct {
	ID string

	api    API
	tr     *i18n.Catalog
	opts   Options
	store  *state.Store
	engine *autocomplete.Engine
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	lastSeen     time.Time
	closed       bool
	searchGen    uint64
	searchCancel context.CancelFunc
	viewGen      uint64
	viewCancel   context.CancelFunc
	tracker      *nutrition.Tracker
}

// New creates a session showing an empty search page in locale.
func New(id string, api API, tr *i18n.Catalog, locale string, opts Options) *Session {
	locale = tr.Resolve(locale)
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		ID:       id,
		api:      api,
		tr:       tr,
		opts:     opts,
		log:      logger.ForSession(id),
		ctx:      ctx,
		cancel:   cancel,
		lastSeen: time.Now(),
		store:    state.NewStore(state.Snapshot{Locale: locale, Dir: i18n.Dir(locale)}),
	}
	engineOpts := append(opts.engineOptions(), autocomplete.WithLogger(s.log))
	s.engine = autocomplete.New(suggestionFetcher(api), s.applySuggestions, engineOpts...)
	return s
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Snapshot returns the current view state.
func (s *Session) Snapshot() state.Snapshot { return s.store.Snapshot() }

// Subscribe delivers every new snapshot; see state.Store.Subscribe.
func (s *Session) Subscribe() (<-chan state.Snapshot, func()) { return s.store.Subscribe() }

// LastSeen is the time of the most recent operation.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) applySuggestions(u autocomplete.Update) {
	s.store.Update(func(snap *state.Snapshot) {
		snap.Suggestions = u.Suggestions
		snap.SuggestionsLoading = u.Loading
		switch u.State {
		case autocomplete.Idle:
			snap.SuggestionsOpen = false
		case autocomplete.Fetching, autocomplete.Displaying:
			snap.SuggestionsOpen = true
		}
	})
}

// QueryChanged handles a keystroke in the search box.
func (s *Session) QueryChanged(query string) {
	s.touch()
	s.store.Update(func(snap *state.Snapshot) {
		snap.Query = query
		snap.Notice = ""
	})
	s.engine.Input(query)
}

// SetFilters sets the cuisine and calorie cap. Unknown values clear the
// corresponding filter.
func (s *Session) SetFilters(cuisine string, maxCalories int) {
	s.touch()
	if !catalog.ValidCuisine(cuisine) {
		cuisine = ""
	}
	if !catalog.ValidMaxCalories(maxCalories) {
		maxCalories = 0
	}
	s.store.Update(func(snap *state.Snapshot) {
		snap.Cuisine = cuisine
		snap.MaxCalories = maxCalories
	})
}

// SetCuisine changes only the cuisine filter.
func (s *Session) SetCuisine(cuisine string) {
	s.SetFilters(cuisine, s.store.Snapshot().MaxCalories)
}

// SetMaxCalories changes only the calorie cap.
func (s *Session) SetMaxCalories(maxCalories int) {
	s.SetFilters(s.store.Snapshot().Cuisine, maxCalories)
}

// Search submits the current query and filters. A failure is classified,
// shown in the error modal and returned. A response for a search that has
// since been superseded is dropped.
func (s *Session) Search(ctx context.Context) error {
	s.touch()
	s.engine.Cancel()

	snap := s.store.Snapshot()
	query := strings.TrimSpace(snap.Query)
	if query == "" {
		s.store.Update(func(snap *state.Snapshot) {
			snap.Notice = NoticeEmptyQuery
			snap.SuggestionsOpen = false
			snap.SuggestionsLoading = false
		})
		return ErrEmptyQuery
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.searchGen++
	gen := s.searchGen
	if s.searchCancel != nil {
		s.searchCancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.searchCancel = cancel
	s.mu.Unlock()
	defer cancel()

	s.store.Update(func(snap *state.Snapshot) {
		snap.Notice = ""
		snap.SuggestionsOpen = false
		snap.SuggestionsLoading = false
		snap.Searching = true
		snap.Error = nil
		snap.ErrorOpen = false
	})

	params := recipeapi.SearchParams{
		Query:       query,
		Cuisine:     snap.Cuisine,
		MaxCalories: snap.MaxCalories,
		Limit:       s.opts.SearchLimit,
	}
	resp, err := s.api.Search(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.searchGen {
		s.log.Debug("dropping superseded search response", zap.String("query", query))
		return nil
	}
	s.searchCancel = nil

	if err != nil {
		s.store.Update(func(snap *state.Snapshot) { snap.Searching = false })
		if abandoned(ctx, err) {
			s.log.Debug("search abandoned by caller", zap.String("query", query), zap.Error(err))
			return err
		}
		s.fail("search", err)
		return err
	}

	s.store.Update(func(snap *state.Snapshot) {
		snap.Searching = false
		snap.Searched = true
		snap.Results = resp.Results
		snap.TotalResults = resp.TotalResults
	})
	return nil
}

// SelectSuggestion puts title in the search box and searches for it.
func (s *Session) SelectSuggestion(ctx context.Context, title string) error {
	s.engine.Cancel()
	s.store.Update(func(snap *state.Snapshot) {
		snap.Query = title
		snap.SuggestionsOpen = false
		snap.SuggestionsLoading = false
	})
	return s.Search(ctx)
}

// SearchFor sets the query and filters in one step and searches, without
// going through the suggestion engine. It serves plain form submissions.
func (s *Session) SearchFor(ctx context.Context, query, cuisine string, maxCalories int) error {
	s.SetFilters(cuisine, maxCalories)
	return s.SelectSuggestion(ctx, query)
}

// DismissSuggestions closes the suggestion list after an outside click.
func (s *Session) DismissSuggestions() {
	s.touch()
	s.store.Update(func(snap *state.Snapshot) {
		snap.SuggestionsOpen = false
	})
}

// DismissError closes the error modal.
func (s *Session) DismissError() {
	s.touch()
	s.store.Update(func(snap *state.Snapshot) {
		snap.Error = nil
		snap.ErrorOpen = false
	})
}

// OpenRecipe loads the recipe detail view for id and starts fetching its
// ingredients in the background. Exclusions start empty. Anything still
// arriving for a previously opened recipe is ignored.
func (s *Session) OpenRecipe(ctx context.Context, id int) error {
	s.touch()
	s.engine.Cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.viewGen++
	gen := s.viewGen
	if s.viewCancel != nil {
		s.viewCancel()
	}
	s.tracker = nil
	viewCtx, viewCancel := context.WithCancel(s.ctx)
	s.viewCancel = viewCancel
	s.store.Update(func(snap *state.Snapshot) {
		snap.ClearDetail()
		snap.RecipeLoading = true
		snap.SuggestionsOpen = false
		snap.Error = nil
		snap.ErrorOpen = false
	})
	s.mu.Unlock()

	reqCtx, reqCancel := context.WithCancel(ctx)
	defer reqCancel()
	stop := context.AfterFunc(viewCtx, reqCancel)
	defer stop()

	recipe, err := s.api.GetRecipe(reqCtx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.viewGen {
		s.log.Debug("dropping superseded recipe response", zap.Int("recipe_id", id))
		return nil
	}

	if err != nil {
		s.store.Update(func(snap *state.Snapshot) { snap.RecipeLoading = false })
		if abandoned(reqCtx, err) {
			s.log.Debug("recipe request abandoned by caller", zap.Int("recipe_id", id), zap.Error(err))
			return err
		}
		s.fail("recipe", err)
		return err
	}

	tracker := nutrition.NewTracker(nutrition.FromRecipe(recipe))
	s.tracker = tracker
	s.store.Update(func(snap *state.Snapshot) {
		snap.RecipeLoading = false
		snap.Recipe = state.RecipeFrom(recipe)
		snap.Ingredients = state.IngredientsFrom(tracker.Lines())
		snap.Aggregate = tracker.Aggregate()
	})

	fetcher := ingredientFetcher(s.api)
	go func() {
		err := nutrition.FetchAll(viewCtx, fetcher, tracker, s.opts.IngredientConcurrency, func() {
			s.refreshDetail(tracker)
		})
		if err != nil {
			s.log.Debug("ingredient fetches abandoned", zap.Int("recipe_id", id), zap.Error(err))
		}
	}()
	return nil
}

// ShowRecipe opens id unless it is already the recipe on display.
func (s *Session) ShowRecipe(ctx context.Context, id int) error {
	snap := s.store.Snapshot()
	if snap.Recipe != nil && snap.Recipe.ID == id {
		s.touch()
		return nil
	}
	return s.OpenRecipe(ctx, id)
}

func (s *Session) refreshDetail(tracker *nutrition.Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.tracker != tracker {
		return
	}
	s.publishDetailLocked()
}

func (s *Session) publishDetailLocked() {
	lines := s.tracker.Lines()
	agg := s.tracker.Aggregate()
	s.store.Update(func(snap *state.Snapshot) {
		snap.Ingredients = state.IngredientsFrom(lines)
		snap.Aggregate = agg
	})
}

// ToggleExclusion flips whether ingredient id counts toward the total. It
// never fetches anything. It returns false when no recipe is open.
func (s *Session) ToggleExclusion(id int) bool {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracker == nil {
		return false
	}
	s.tracker.Toggle(id)
	s.publishDetailLocked()
	return true
}

// SetLocale switches the display language and returns the locale actually
// used. An open error modal is re-rendered in the new language.
func (s *Session) SetLocale(locale string) string {
	s.touch()
	locale = s.tr.Resolve(locale)
	s.store.Update(func(snap *state.Snapshot) {
		snap.Locale = locale
		snap.Dir = i18n.Dir(locale)
		if snap.Error != nil {
			view := apierror.Describe(snap.Error.Category, s.tr, locale)
			snap.Error = &view
		}
	})
	return locale
}

// abandoned reports whether err comes from the caller giving up rather than
// from the recipe service.
func abandoned(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

// fail records a primary failure in the error modal. Callers hold s.mu.
func (s *Session) fail(op string, err error) {
	cat := apierror.Classify(err)
	s.log.Error("recipe service call failed",
		zap.String("operation", op),
		zap.String("category", string(cat)),
		zap.Error(err))

	s.store.Update(func(snap *state.Snapshot) {
		view := apierror.Describe(cat, s.tr, snap.Locale)
		snap.Error = &view
		snap.ErrorOpen = true
	})
}

// Close stops the suggestion engine and every outstanding fetch, and ends
// all subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.searchCancel != nil {
		s.searchCancel()
	}
	if s.viewCancel != nil {
		s.viewCancel()
	}
	s.tracker = nil
	s.cancel()
	s.mu.Unlock()

	s.engine.Close()
	s.store.Close()
}
