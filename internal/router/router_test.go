package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/saltybytes-search/internal/config"
	"github.com/windoze95/saltybytes-search/internal/i18n"
	"github.com/windoze95/saltybytes-search/internal/middleware"
	"github.com/windoze95/saltybytes-search/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	locales, err := i18n.Default("en")
	if err != nil {
		t.Fatalf("i18n.Default() error = %v", err)
	}
	cfg := &config.Config{
		EnvVars: config.EnvVars{
			SessionSecret: "router-test-secret",
			DefaultLocale: "en",
			RateLimit:     100,
			SessionTTL:    time.Minute,
			Suggest:       config.SuggestVars{Debounce: 10 * time.Millisecond, MinChars: 2, Limit: 5},
			Upstream:      config.UpstreamVars{SearchLimit: 10, IngredientConcurrency: 2, Timeout: time.Second},
		},
		Locales: locales,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r, manager, err := SetupRouter(ctx, cfg, Deps{API: testutil.NewMockRecipeAPI()})
	if err != nil {
		t.Fatalf("SetupRouter() error = %v", err)
	}
	if manager == nil {
		t.Fatal("SetupRouter() returned a nil manager")
	}
	return r
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	r := setupTestRouter(t)

	w := get(r, "/ping")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "pong") {
		t.Errorf("body = %q, want pong", w.Body.String())
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestHome_IssuesSessionCookie(t *testing.T) {
	r := setupTestRouter(t)

	w := get(r, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), middleware.SessionCookieName+"=") {
		t.Errorf("expected a session cookie, got %q", w.Header().Get("Set-Cookie"))
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if !strings.Contains(w.Body.String(), `id="search-form"`) {
		t.Error("expected the search form")
	}
}

func TestHome_QueryRendersResults(t *testing.T) {
	r := setupTestRouter(t)

	w := get(r, "/?query=pancakes")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "Classic Pancakes") {
		t.Error("expected the search result")
	}
}

func TestStaticAndMetrics(t *testing.T) {
	r := setupTestRouter(t)

	for _, target := range []string{"/static/app.js", "/static/app.css", "/metrics"} {
		if w := get(r, target); w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", target, w.Code, http.StatusOK)
		}
	}
}

func TestWebSocket_RejectsPlainRequest(t *testing.T) {
	r := setupTestRouter(t)

	w := get(r, "/ws")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRecipe_InvalidID(t *testing.T) {
	r := setupTestRouter(t)

	w := get(r, "/recipes/abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
