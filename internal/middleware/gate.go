package middleware

import (
	"net/http"

	"github.com/otcheredev/medpres-client/internal/authz"
	"github.com/otcheredev/medpres-client/internal/metrics"
	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/otcheredev/medpres-client/internal/session"
	"github.com/rs/zerolog/log"
)

// Gate enforces the audience of every view. Paths that are not views pass
// through untouched. Must run after Sessions.
func Gate(audit session.Recorder, m *metrics.BackendMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := authz.Route(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			var identity *models.Identity
			s, hasSession := SessionFromContext(r.Context())
			if hasSession {
				identity = s.CurrentIdentity()
			}

			decision := authz.Decide(identity, access)
			m.ObserveDecision(access.String(), decision.String())
			if decision == authz.Allow {
				next.ServeHTTP(w, r)
				return
			}

			entry := &models.AuditLog{
				Action:  models.AuditAccessDenied,
				Path:    r.URL.Path,
				Outcome: "redirect",
				Message: decision.String(),
			}
			if hasSession {
				entry.SessionID = s.ID()
			}
			if identity != nil {
				entry.Email = identity.Email
				entry.Role = identity.Role.String()
			}
			if audit != nil {
				audit.Record(r.Context(), entry)
			}
			log.Debug().Str("path", r.URL.Path).Str("access", access.String()).Str("decision", decision.String()).Msg("gate redirect")

			Redirect(w, decision.Location())
		})
	}
}

// Redirect answers 303 See Other with a JSON body naming the target.
func Redirect(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusSeeOther, map[string]string{"redirect": location})
}
