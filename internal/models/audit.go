package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction names a recorded session or access event.
type AuditAction string

const (
	AuditLogin         AuditAction = "login"
	AuditLoginFailed   AuditAction = "login_failed"
	AuditLogout        AuditAction = "logout"
	AuditRegister      AuditAction = "register"
	AuditAccessDenied  AuditAction = "access_denied"
	AuditStatusChanged AuditAction = "appointment_status_changed"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID string      `gorm:"type:varchar(64);index" json:"session_id,omitempty"`
	Action    AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`
	Email     string      `gorm:"type:varchar(255);index" json:"email,omitempty"`
	Role      string      `gorm:"type:varchar(20)" json:"role,omitempty"`
	Path      string      `gorm:"type:varchar(255)" json:"path,omitempty"`
	Outcome   string      `gorm:"type:varchar(20);index" json:"outcome"` // success, failure, redirect
	Message   string      `gorm:"type:text" json:"message,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"timestamp"`
}

// TableName overrides the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate hook
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
