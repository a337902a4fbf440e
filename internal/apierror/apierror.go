// Package apierror maps failed recipe service calls to user-facing error
// categories and renders them in the user's language.
package apierror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/windoze95/saltybytes-search/internal/i18n"
	"github.com/windoze95/saltybytes-search/internal/recipeapi"
)

// Category is one of the fixed user-facing error classes.
type Category string

const (
	RateLimit    Category = "rateLimit"
	Network      Category = "network"
	Server       Category = "server"
	NotFound     Category = "notFound"
	Unauthorized Category = "unauthorized"
	Generic      Category = "generic"
)

// View is the localized title/message/action triple shown in the error modal.
type View struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Action   string   `json:"action"`
}

// Classify picks the category for err. When a response exists, the quota and
// rate-limit rule is checked before any status rule. Without a response only
// a malformed body (Generic) is told apart from a network failure.
func Classify(err error) Category {
	var se *recipeapi.StatusError
	hasResponse := errors.As(err, &se)

	if hasResponse {
		if se.StatusCode == http.StatusPaymentRequired || se.StatusCode == http.StatusTooManyRequests {
			return RateLimit
		}
		body := strings.ToLower(se.Body)
		if strings.Contains(body, "limit") || strings.Contains(body, "quota") {
			return RateLimit
		}
	}

	if !hasResponse {
		if errors.Is(err, recipeapi.ErrMalformedResponse) {
			return Generic
		}
		return Network
	}

	switch {
	case se.StatusCode >= 500:
		return Server
	case se.StatusCode == http.StatusNotFound:
		return NotFound
	case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden:
		return Unauthorized
	default:
		return Generic
	}
}

// Describe renders cat in locale.
func Describe(cat Category, t i18n.Translator, locale string) View {
	prefix := "errors." + string(cat) + "."
	return View{
		Category: cat,
		Title:    t.T(locale, prefix+"title"),
		Message:  t.T(locale, prefix+"message"),
		Action:   t.T(locale, prefix+"action"),
	}
}
