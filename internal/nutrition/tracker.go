package nutrition

import "sync"

// Status is the fetch state of one ingredient.
type Status string

const (
	StatusLoading     Status = "loading"
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

// Line is one ingredient as the detail view shows it.
type Line struct {
	Ingredient Ingredient
	Status     Status
	Info       *Info
	Excluded   bool
}

// Tracker holds the state of one recipe detail view. Results are write-once
// per ingredient id; exclusions toggle freely and never cause a fetch.
type Tracker struct {
	mu          sync.RWMutex
	ingredients []Ingredient
	results     map[int]Result
	excluded    ExclusionSet
}

// NewTracker starts a view with every ingredient pending and nothing excluded.
func NewTracker(ingredients []Ingredient) *Tracker {
	return &Tracker{
		ingredients: append([]Ingredient(nil), ingredients...),
		results:     make(map[int]Result),
		excluded:    make(ExclusionSet),
	}
}

// Distinct returns the first occurrence of each ingredient id, in order.
func (t *Tracker) Distinct() []Ingredient {
	seen := make(map[int]bool, len(t.ingredients))
	out := make([]Ingredient, 0, len(t.ingredients))
	for _, ing := range t.ingredients {
		if seen[ing.ID] {
			continue
		}
		seen[ing.ID] = true
		out = append(out, ing)
	}
	return out
}

// Record stores the data for id. It returns false if id already has a result.
func (t *Tracker) Record(id int, info *Info) bool {
	if info == nil {
		return t.MarkUnavailable(id)
	}
	return t.put(id, Result{Info: info})
}

// MarkUnavailable records a failed fetch for id.
func (t *Tracker) MarkUnavailable(id int) bool {
	return t.put(id, Result{})
}

func (t *Tracker) put(id int, r Result) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, done := t.results[id]; done {
		return false
	}
	t.results[id] = r
	return true
}

// Toggle flips the exclusion of id and returns the new value. Ids that are
// not part of the recipe are ignored.
func (t *Tracker) Toggle(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.hasLocked(id) {
		return false
	}
	if t.excluded[id] {
		delete(t.excluded, id)
		return false
	}
	t.excluded[id] = true
	return true
}

// Excluded reports whether id is excluded from the total.
func (t *Tracker) Excluded(id int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.excluded[id]
}

// Aggregate recomputes the total from the current inputs.
func (t *Tracker) Aggregate() Aggregate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Total(t.ingredients, t.results, t.excluded)
}

// Lines returns every ingredient with its fetch status, in recipe order.
func (t *Tracker) Lines() []Line {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lines := make([]Line, 0, len(t.ingredients))
	for _, ing := range t.ingredients {
		line := Line{Ingredient: ing, Status: StatusLoading, Excluded: t.excluded[ing.ID]}
		if res, done := t.results[ing.ID]; done {
			if res.Available() {
				info := *res.Info
				line.Info = &info
				line.Status = StatusAvailable
			} else {
				line.Status = StatusUnavailable
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func (t *Tracker) hasLocked(id int) bool {
	for _, ing := range t.ingredients {
		if ing.ID == id {
			return true
		}
	}
	return false
}
