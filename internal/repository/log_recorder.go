package repository

import (
	"context"

	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/rs/zerolog/log"
)

// LogRecorder writes audit entries to the log only. It is used when no
// database is configured.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, entry *models.AuditLog) {
	ev := log.Info()
	if entry.Outcome == "failure" || entry.Action == models.AuditAccessDenied {
		ev = log.Warn()
	}
	ev.Str("action", string(entry.Action)).
		Str("session_id", entry.SessionID).
		Str("email", entry.Email).
		Str("role", entry.Role).
		Str("path", entry.Path).
		Str("outcome", entry.Outcome).
		Str("detail", entry.Message).
		Msg("audit")
}
