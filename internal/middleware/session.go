package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/otcheredev/medpres-client/internal/session"
	"github.com/rs/zerolog/log"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "medpres_sid"

type contextKey string

const sessionKey contextKey = "session"

// Sessions attaches the browser's session to the request context, issuing
// a new session id when the cookie is missing or malformed. A storage
// failure answers 500 and leaves the cookie alone.
func Sessions(m *session.Manager, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sid = c.Value
				} else {
					log.Debug().Err(err).Msg("discarding malformed session cookie")
				}
			}
			if sid == "" {
				sid = m.NewID()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			s, err := m.Get(r.Context(), sid)
			if err != nil {
				log.Error().Err(err).Str("session_id", sid).Msg("failed to load session")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load session"})
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session attached by Sessions.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*session.Session)
	return s, ok
}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
