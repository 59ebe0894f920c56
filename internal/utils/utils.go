package utils

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func GetRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if pattern := rctx.RoutePattern(); pattern != "" {
		// Pattern is already available
		return pattern
	}

	routePath := r.URL.Path

	if r.URL.RawPath != "" {
		routePath = r.URL.RawPath
	}

	tctx := chi.NewRouteContext()
	if !rctx.Routes.Match(tctx, r.Method, routePath) {
		return "undefined"
	}

	// tctx has the updated pattern, since Match mutates it
	return tctx.RoutePattern()
}

func MapSlice[T any, M any](a []T, f func(T) M) []M {
	n := make([]M, len(a))
	for i, e := range a {
		n[i] = f(e)
	}
	return n
}

// IntPtr returns a pointer to an int
func IntPtr(i int) *int {
	return &i
}

// ParseBoolQueryParam parses a boolean query parameter from an HTTP request.
func ParseBoolQueryParam(r *http.Request, param string) (*bool, error) {
	paramValue := r.URL.Query().Get(param)
	if paramValue == "" {
		return nil, nil
	}
	parsedValue, err := strconv.ParseBool(paramValue)
	if err != nil {
		return nil, fmt.Errorf("invalid '%s' parameter value: %w", param, err)
	}
	return &parsedValue, nil
}

// TruncateString shortens s to maxLen runes, appending "..." when it was cut,
// so an arbitrarily large payload can be embedded in a log line or error
// message without blowing up its size.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
