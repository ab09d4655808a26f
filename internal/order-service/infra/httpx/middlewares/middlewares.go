// Package middlewares holds the HTTP middleware specific to the orders API.
package middlewares

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/cors"

	"github.com/jcmexdev/food-delivery/internal/pkg/interceptors/constants"
)

// CORS allows any origin on the orders API and answers preflight requests
// without reaching the router.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", constants.HeaderXRequestId, constants.HeaderXIdempotencyKey},
		ExposedHeaders: []string{constants.HeaderXRequestId},
		MaxAge:         600,
	})
}

// RecoverJSON turns a panic into a 500 with the API's JSON error body.
// chi's middleware.Recoverer writes a bare 500, which clients of this API
// cannot parse.
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.ErrorContext(r.Context(), "panic while serving request",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Internal server error"}` + "\n"))
		}()
		next.ServeHTTP(w, r)
	})
}
