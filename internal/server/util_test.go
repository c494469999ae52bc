package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter, r *http.Request)
		status int
		prefix string
	}{
		{"notFound", func(w http.ResponseWriter, r *http.Request) { notFound(w, r, "/static/x") }, http.StatusNotFound, "not found: /static/x"},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) { forbidden(w, r, "/static/x") }, http.StatusForbidden, "forbidden: /static/x"},
		{"notSupported", func(w http.ResponseWriter, r *http.Request) { notSupported(w, r, "/static/x") }, http.StatusMethodNotAllowed, `not supported: "GET" /static/x`},
		{"internalServerError", func(w http.ResponseWriter, r *http.Request) { internalServerError(w, r, errors.New("boom")) }, http.StatusInternalServerError, "internal server error: boom"},
	}

	for _, test := range tests {
		rr := httptest.NewRecorder()
		// headers left over from a half-prepared file response must not leak
		rr.Header().Set("ETag", `"abc"`)
		rr.Header().Set("Content-Length", "42")

		test.write(rr, httptest.NewRequest(http.MethodGet, "/static/x", nil))

		if rr.Code != test.status {
			t.Fatalf("[%v] status: expected %v, got %v", test.name, test.status, rr.Code)
		}
		if got := rr.Body.String(); !strings.HasPrefix(got, test.prefix) {
			t.Fatalf("[%v] body: expected prefix %q, got %q", test.name, test.prefix, got)
		}
		if got := rr.Header().Get("Content-Type"); got != "text/plain; charset=utf-8" {
			t.Fatalf("[%v] content type: got %q", test.name, got)
		}
		if rr.Header().Get("ETag") != "" || rr.Header().Get("Content-Length") != "" {
			t.Fatalf("[%v] stale headers kept: %v", test.name, rr.Header())
		}
	}
}
