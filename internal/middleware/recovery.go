package middleware

import (
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Recovery middleware recovers from panics
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Error().
					Interface("error", err).
					Str("path", r.URL.Path).
					Str("request_id", chimiddleware.GetReqID(r.Context())).
					Bytes("stack", debug.Stack()).
					Msg("Panic recovered")

				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
