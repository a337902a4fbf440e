package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/windoze95/saltybytes-search/internal/apierror"
)

// parseIDParam parses a positive numeric path parameter.
func parseIDParam(param string) (int, error) {
	if !govalidator.IsInt(param) {
		return 0, fmt.Errorf("not an integer: %q", param)
	}
	parsed, err := strconv.Atoi(param)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("value out of range: %d", parsed)
	}
	return parsed, nil
}

// parseOptionalInt returns 0 for an empty or malformed value.
func parseOptionalInt(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

// statusFor maps an error category to the status of the page showing it.
func statusFor(cat apierror.Category) int {
	switch cat {
	case apierror.RateLimit:
		return http.StatusTooManyRequests
	case apierror.NotFound:
		return http.StatusNotFound
	case apierror.Unauthorized:
		return http.StatusForbidden
	case apierror.Network, apierror.Server:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// safeRedirect returns next when it is a local path, otherwise "/".
func safeRedirect(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
