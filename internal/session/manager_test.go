package session

import (
	"sync"
	"testing"
	"time"

	"github.com/windoze95/saltybytes-search/internal/state"
)

func TestManager_GetCreatesOnce(t *testing.T) {
	m := NewManager(&mockAPI{}, testCatalog(t), DefaultOptions(), time.Minute)
	defer m.Close()

	a := m.Get("abc", "ar")
	b := m.Get("abc", "en")
	if a != b {
		t.Error("Get should return the existing session")
	}
	if got := a.Snapshot().Locale; got != "ar" {
		t.Errorf("Locale = %q, want ar", got)
	}
	if _, ok := m.Lookup("missing"); ok {
		t.Error("Lookup should not create sessions")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestManager_SweepExpiresIdleSessions(t *testing.T) {
	m := NewManager(&mockAPI{}, testCatalog(t), DefaultOptions(), time.Minute)
	defer m.Close()

	s := m.Get("old", "en")
	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if _, ok := m.Lookup("old"); ok {
		t.Error("expired session still present")
	}
	if s.Context().Err() == nil {
		t.Error("expired session should be closed")
	}
}

func TestManager_SweepKeepsActiveSessions(t *testing.T) {
	m := NewManager(&mockAPI{}, testCatalog(t), DefaultOptions(), time.Minute)
	defer m.Close()

	m.Get("fresh", "en")
	if n := m.Sweep(); n != 0 {
		t.Errorf("Sweep() = %d, want 0", n)
	}
}

func TestManager_PublishesSnapshots(t *testing.T) {
	m := NewManager(&mockAPI{}, testCatalog(t), DefaultOptions(), time.Minute)
	defer m.Close()

	var mu sync.Mutex
	var got []state.Snapshot
	done := make(chan struct{}, 8)
	m.OnPublish(func(id string, snap state.Snapshot) {
		if id != "pub" {
			t.Errorf("publish for %q, want pub", id)
		}
		mu.Lock()
		got = append(got, snap)
		mu.Unlock()
		done <- struct{}{}
	})

	s := m.Get("pub", "en")
	s.SetCuisine("Greek")

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		last := state.Snapshot{}
		if len(got) > 0 {
			last = got[len(got)-1]
		}
		mu.Unlock()
		if last.Cuisine == "Greek" {
			return
		}
		select {
		case <-done:
		case <-deadline:
			t.Fatal("timed out waiting for published snapshot")
		}
	}
}
