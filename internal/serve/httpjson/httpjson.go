// Package httpjson renders Go values as JSON HTTP responses. It is a small,
// self-contained stand-in for the generic content-negotiating renderer the
// teacher imported from its platform SDK.
package httpjson

import (
	"encoding/json"
	"net/http"
)

// Format selects the response encoding. JSON is the only one this module
// needs; the type exists so call sites read the same as the teacher's.
type Format int

const (
	JSON Format = iota
)

// Render writes v as a JSON response with a 200 status code.
func Render(w http.ResponseWriter, v interface{}, _ Format) {
	RenderStatus(w, http.StatusOK, v, JSON)
}

// RenderStatus writes v as a JSON response with the given status code.
func RenderStatus(w http.ResponseWriter, status int, v interface{}, _ Format) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
