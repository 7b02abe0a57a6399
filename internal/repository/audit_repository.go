package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/otcheredev/medpres-client/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create creates a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// Record stores entry and only logs a failure; auditing never fails the
// operation being audited.
func (r *AuditRepository) Record(ctx context.Context, entry *models.AuditLog) {
	if err := r.Create(context.WithoutCancel(ctx), entry); err != nil {
		log.Error().Err(err).Str("action", string(entry.Action)).Msg("audit write failed")
	}
}

// ListRecent returns the newest entries first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	query := r.db.WithContext(ctx).Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}
	return logs, nil
}

// ListByEmail retrieves the entries of one account
func (r *AuditRepository) ListByEmail(ctx context.Context, email string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	query := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}
	return logs, nil
}
