// Package web holds the embedded page templates and static assets, and
// renders session snapshots into whole pages or into the page regions that
// the browser swaps in when a snapshot arrives over the socket.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/windoze95/saltybytes-search/internal/catalog"
	"github.com/windoze95/saltybytes-search/internal/i18n"
	"github.com/windoze95/saltybytes-search/internal/state"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Page template names.
const (
	SearchPage = "search"
	RecipePage = "recipe"
)

// Regions are the page fragments re-rendered for every pushed snapshot,
// keyed by the id suffix of their container element.
var Regions = []string{"suggestions", "notice", "results", "detail", "modal"}

// Renderer executes the embedded templates with localized page data.
type Renderer struct {
	tmpl *template.Template
	tr   *i18n.Catalog
}

// NewRenderer parses every embedded template.
func NewRenderer(tr *i18n.Catalog) (*Renderer, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, tr: tr}, nil
}

// Templates returns the parsed set, for gin's SetHTMLTemplate.
func (r *Renderer) Templates() *template.Template {
	return r.tmpl
}

// Page wraps snap for rendering at path.
func (r *Renderer) Page(snap state.Snapshot, path string) Page {
	locale := snap.Locale
	if locale == "" {
		locale = r.tr.Fallback()
	}
	return Page{
		Snapshot: snap,
		Locale:   locale,
		Dir:      i18n.Dir(locale),
		Path:     path,
		Locales:  r.tr.Locales(),
		Cuisines: catalog.CuisineOptions(r.tr, locale),
		Calories: catalog.CalorieOptions(r.tr, locale),
		tr:       r.tr,
	}
}

// Fragments renders every region of snap.
func (r *Renderer) Fragments(snap state.Snapshot, path string) (map[string]string, error) {
	page := r.Page(snap, path)
	out := make(map[string]string, len(Regions))
	var buf bytes.Buffer
	for _, region := range Regions {
		buf.Reset()
		if err := r.tmpl.ExecuteTemplate(&buf, "partials/"+region, page); err != nil {
			return nil, fmt.Errorf("failed to render region %s: %w", region, err)
		}
		out[region] = buf.String()
	}
	return out, nil
}

// Static serves the embedded assets.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Page is the data every template receives.
type Page struct {
	Snapshot state.Snapshot
	Locale   string
	Dir      string
	Path     string
	Locales  []string
	Cuisines []catalog.Option
	Calories []catalog.Option

	tr i18n.Translator
}

// T translates key into the page locale.
func (p Page) T(key string) string {
	return p.tr.T(p.Locale, key)
}

// MaxCaloriesValue is the selected calorie bracket as an option value.
func (p Page) MaxCaloriesValue() string {
	if p.Snapshot.MaxCalories <= 0 {
		return ""
	}
	return strconv.Itoa(p.Snapshot.MaxCalories)
}

// NoResults reports whether a finished search came back empty.
func (p Page) NoResults() bool {
	s := p.Snapshot
	return s.Searched && !s.Searching && len(s.Results) == 0
}

// TotalCalories is the detail header figure: a placeholder while nothing
// has been counted and fetches are outstanding, otherwise one decimal.
func (p Page) TotalCalories() string {
	agg := p.Snapshot.Aggregate
	if agg.Calories == 0 && !agg.Final {
		return p.T("recipeDetails.calculating")
	}
	return strconv.FormatFloat(agg.Calories, 'f', 1, 64) + " " + p.T("recipeDetails.kcal")
}

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"dollars": func(cents float64) string {
			return fmt.Sprintf("$%.2f", cents/100)
		},
		"amount": func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
	}

	tmpl := template.New("").Funcs(funcMap)
	err := fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		content, err := templatesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}

		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk templates: %w", err)
	}
	return tmpl, nil
}
