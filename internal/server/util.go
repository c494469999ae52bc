package server

import (
	"fmt"
	"net/http"

	"github.com/dhnt/qrserve/internal/logger"
)

func internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	s := fmt.Sprintf("internal server error: %v\n", err)
	writeText(w, http.StatusInternalServerError, s)

	logger.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("internal server error")
}

func notFound(w http.ResponseWriter, r *http.Request, v interface{}) {
	s := fmt.Sprintf("not found: %v\n", v)
	writeText(w, http.StatusNotFound, s)

	logger.FromRequest(r).Debug().Msg(s)
}

func forbidden(w http.ResponseWriter, r *http.Request, v interface{}) {
	s := fmt.Sprintf("forbidden: %v\n", v)
	writeText(w, http.StatusForbidden, s)

	logger.FromRequest(r).Debug().Msg(s)
}

func notSupported(w http.ResponseWriter, r *http.Request, v interface{}) {
	s := fmt.Sprintf("not supported: %q %v\n", r.Method, v)
	w.Header().Set("Allow", "GET, HEAD")
	writeText(w, http.StatusMethodNotAllowed, s)

	logger.FromRequest(r).Debug().Msg(s)
}

func writeText(w http.ResponseWriter, status int, s string) {
	h := w.Header()
	h.Del("Content-Length")
	h.Del("ETag")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	w.Write([]byte(s))
}
