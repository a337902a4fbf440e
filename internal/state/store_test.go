package state

import (
	"testing"
	"time"

	"github.com/windoze95/saltybytes-search/internal/apierror"
	"github.com/windoze95/saltybytes-search/internal/autocomplete"
	"github.com/windoze95/saltybytes-search/internal/recipeapi"
)

func receive(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestUpdate_BumpsVersionAndPublishes(t *testing.T) {
	s := NewStore(Snapshot{Locale: "en"})
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	if first := receive(t, ch); first.Version != 0 || first.Locale != "en" {
		t.Fatalf("initial snapshot = %+v", first)
	}

	s.Update(func(snap *Snapshot) { snap.Query = "pasta" })
	got := receive(t, ch)
	if got.Version != 1 || got.Query != "pasta" {
		t.Errorf("snapshot = %+v, want version 1 with query pasta", got)
	}
}

func TestSubscribe_LatestWins(t *testing.T) {
	s := NewStore(Snapshot{})
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		s.Update(func(snap *Snapshot) { snap.MaxCalories += 100 })
	}

	got := receive(t, ch)
	if got.Version != 5 || got.MaxCalories != 500 {
		t.Errorf("snapshot = %+v, want the newest version", got)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra snapshot: %+v", extra)
	default:
	}
}

func TestSnapshotsAreImmutable(t *testing.T) {
	s := NewStore(Snapshot{})
	s.Update(func(snap *Snapshot) {
		snap.Suggestions = []autocomplete.Suggestion{{ID: 1, Title: "Soup"}}
		snap.Results = []recipeapi.Summary{{ID: 2, Title: "Stew"}}
		snap.Recipe = &Recipe{ID: 3, Instructions: []recipeapi.Instruction{{Steps: []recipeapi.Step{{Number: 1, Step: "Boil"}}}}}
		snap.Error = &apierror.View{Title: "Oops"}
	})

	got := s.Snapshot()
	got.Suggestions[0].Title = "changed"
	got.Results[0].Title = "changed"
	got.Recipe.Instructions[0].Steps[0].Step = "changed"
	got.Error.Title = "changed"

	again := s.Snapshot()
	if again.Suggestions[0].Title != "Soup" || again.Results[0].Title != "Stew" ||
		again.Recipe.Instructions[0].Steps[0].Step != "Boil" || again.Error.Title != "Oops" {
		t.Errorf("store state was mutated through a snapshot: %+v", again)
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	s := NewStore(Snapshot{})
	ch, unsubscribe := s.Subscribe()
	receive(t, ch)

	unsubscribe()
	unsubscribe()
	s.Update(func(*Snapshot) {})

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after unsubscribe")
	}
}

func TestClose_EndsSubscriptions(t *testing.T) {
	s := NewStore(Snapshot{})
	ch, _ := s.Subscribe()
	receive(t, ch)

	s.Close()
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after Close")
	}

	late, _ := s.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribing to a closed store should yield a closed channel")
	}
}

func TestClearDetail(t *testing.T) {
	snap := Snapshot{RecipeLoading: true, Recipe: &Recipe{ID: 1}, Ingredients: []Ingredient{{ID: 1}}}
	snap.Aggregate.Calories = 10
	snap.ClearDetail()
	if snap.Recipe != nil || snap.Ingredients != nil || snap.RecipeLoading || snap.Aggregate.Calories != 0 {
		t.Errorf("ClearDetail left state behind: %+v", snap)
	}
}
