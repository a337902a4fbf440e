// Package autocomplete turns a stream of keystrokes into a debounced
// sequence of suggestion lists. Every keystroke starts a new generation;
// a fetch result is applied only if its generation is still current, so a
// slow response for an old query can never overwrite a newer one.
package autocomplete

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/windoze95/saltybytes-search/internal/logger"
	"github.com/windoze95/saltybytes-search/internal/metrics"
	"go.uber.org/zap"
)

const (
	DefaultDelay    = 500 * time.Millisecond
	DefaultMinChars = 2
	DefaultLimit    = 5
)

// State is the engine's position in the Idle -> Debouncing -> Fetching ->
// Displaying cycle.
type State int

const (
	Idle State = iota
	Debouncing
	Fetching
	Displaying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case Fetching:
		return "fetching"
	case Displaying:
		return "displaying"
	default:
		return "unknown"
	}
}

// Suggestion is one entry of the suggestion list.
type Suggestion struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
}

// Fetcher retrieves at most limit suggestions for query.
type Fetcher interface {
	Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, query string, limit int) ([]Suggestion, error)

// Suggest calls f.
func (f FetcherFunc) Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	return f(ctx, query, limit)
}

// Update is emitted whenever the visible suggestion state changes.
type Update struct {
	Query       string
	Suggestions []Suggestion
	Loading     bool
	State       State
}

// Timer is the cancellable half of a scheduled call.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Engine is safe for concurrent use. The update callback runs while the
// engine lock is held, so updates are observed in generation order; it must
// not call back into the Engine.
type Engine struct {
	fetcher  Fetcher
	onUpdate func(Update)
	clock    Clock
	delay    time.Duration
	minChars int
	limit    int
	log      *zap.Logger

	mu     sync.Mutex
	gen    uint64
	state  State
	query  string
	timer  Timer
	cancel context.CancelFunc
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithDelay sets the quiescence window.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithMinChars sets the minimum trimmed query length that triggers a fetch.
func WithMinChars(n int) Option {
	return func(e *Engine) { e.minChars = n }
}

// WithLimit sets the maximum number of suggestions requested.
func WithLimit(n int) Option {
	return func(e *Engine) { e.limit = n }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger replaces the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an idle engine.
func New(fetcher Fetcher, onUpdate func(Update), opts ...Option) *Engine {
	e := &Engine{
		fetcher:  fetcher,
		onUpdate: onUpdate,
		clock:    realClock{},
		delay:    DefaultDelay,
		minChars: DefaultMinChars,
		limit:    DefaultLimit,
		log:      logger.Get(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Input handles a keystroke carrying the full current query.
func (e *Engine) Input(query string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.supersedeLocked()

	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < e.minChars {
		e.state = Idle
		e.query = ""
		e.emitLocked(Update{Query: trimmed, State: Idle})
		return
	}

	e.query = trimmed
	e.state = Debouncing
	gen := e.gen
	e.timer = e.clock.AfterFunc(e.delay, func() { e.fire(gen) })
}

// Cancel supersedes any pending timer or in-flight fetch without emitting.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.supersedeLocked()
	e.state = Idle
}

// Close cancels outstanding work; later calls to Input are ignored.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.supersedeLocked()
	e.state = Idle
	e.closed = true
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) supersedeLocked() {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.gen {
		// Stop raced with expiry; the newer generation owns the state.
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.state = Fetching
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	query := e.query
	e.emitLocked(Update{Query: query, Loading: true, State: Fetching})
	e.mu.Unlock()

	go e.fetch(ctx, cancel, gen, query)
}

func (e *Engine) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, query string) {
	defer cancel()

	results, err := e.fetcher.Suggest(ctx, query, e.limit)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.gen {
		metrics.ObserveSuggestion(metrics.SuggestionDiscarded)
		e.log.Debug("discarding superseded suggestions", zap.String("query", query))
		return
	}
	e.cancel = nil

	if err != nil {
		metrics.ObserveSuggestion(metrics.SuggestionFailed)
		e.log.Warn("suggestion fetch failed", zap.String("query", query), zap.Error(err))
		results = nil
	} else {
		metrics.ObserveSuggestion(metrics.SuggestionApplied)
	}

	if len(results) > e.limit {
		results = results[:e.limit]
	}
	e.state = Displaying
	e.emitLocked(Update{Query: query, Suggestions: append([]Suggestion(nil), results...), State: Displaying})
}

func (e *Engine) emitLocked(u Update) {
	if e.onUpdate != nil {
		e.onUpdate(u)
	}
}
