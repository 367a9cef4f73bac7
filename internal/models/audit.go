package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionCaseTransition   = "CASE_TRANSITION"
	AuditActionCaseCreate       = "CASE_CREATE"
	AuditActionCaseDelete       = "CASE_DELETE"
	AuditActionProfileEdit      = "PROFILE_EDIT"
	AuditActionSystemReset      = "SYSTEM_RESET"
	AuditActionNotificationSend = "NOTIFICATION_SEND"
	AuditActionAttendance       = "ATTENDANCE_RECORD"
)

// AuditLog is an append-only trail record. Nothing in the core mutates or
// deletes audit rows except the explicit system reset.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	UserName  string    `db:"user_name" json:"user_name"`
	Action    string    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter constrains audit listing queries.
type AuditFilter struct {
	UserID string
	Action string
	Since  *time.Time
	Limit  int
	Offset int
}
