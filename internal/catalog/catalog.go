// Package catalog holds the fixed search filter vocabularies.
package catalog

import (
	"strconv"

	"github.com/windoze95/saltybytes-search/internal/i18n"
)

// Cuisines is the list of cuisine names accepted by the recipe service.
var Cuisines = []string{
	"African",
	"Asian",
	"American",
	"British",
	"Cajun",
	"Caribbean",
	"Chinese",
	"Eastern European",
	"European",
	"French",
	"German",
	"Greek",
	"Indian",
	"Irish",
	"Italian",
	"Japanese",
	"Jewish",
	"Korean",
	"Latin American",
	"Mediterranean",
	"Mexican",
	"Middle Eastern",
	"Nordic",
	"Southern",
	"Spanish",
	"Thai",
	"Vietnamese",
}

// CalorieBrackets are the selectable max-calorie caps.
var CalorieBrackets = []int{100, 200, 300, 400, 500, 600, 700}

// Option is a localized select option.
type Option struct {
	Value string
	Label string
}

// ValidCuisine reports whether c is a known cuisine.
func ValidCuisine(c string) bool {
	for _, name := range Cuisines {
		if name == c {
			return true
		}
	}
	return false
}

// ValidMaxCalories reports whether n is one of the calorie brackets.
func ValidMaxCalories(n int) bool {
	for _, b := range CalorieBrackets {
		if b == n {
			return true
		}
	}
	return false
}

// CuisineOptions returns the cuisines labelled for locale.
func CuisineOptions(t i18n.Translator, locale string) []Option {
	opts := make([]Option, 0, len(Cuisines))
	for _, c := range Cuisines {
		opts = append(opts, Option{Value: c, Label: t.T(locale, "cuisines."+c)})
	}
	return opts
}

// CalorieOptions returns the calorie brackets labelled for locale.
func CalorieOptions(t i18n.Translator, locale string) []Option {
	opts := make([]Option, 0, len(CalorieBrackets))
	for _, b := range CalorieBrackets {
		v := strconv.Itoa(b)
		opts = append(opts, Option{Value: v, Label: t.T(locale, "calories.max"+v)})
	}
	return opts
}
