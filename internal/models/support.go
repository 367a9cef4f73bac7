package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// SupportStatus captures workflow states for support-needs requests.
type SupportStatus string

const (
	SupportStatusForwarded      SupportStatus = "FORWARDED"
	SupportStatusVisitScheduled SupportStatus = "VISIT_SCHEDULED"
	SupportStatusResolved       SupportStatus = "RESOLVED"
	SupportStatusReferredToCare SupportStatus = "REFERRED_TO_CARE"
	SupportStatusRejected       SupportStatus = "REJECTED"
)

// SupportStatuses is the closed enumeration for the family.
var SupportStatuses = []SupportStatus{
	SupportStatusForwarded,
	SupportStatusVisitScheduled,
	SupportStatusResolved,
	SupportStatusReferredToCare,
	SupportStatusRejected,
}

// DeptNotesKind discriminates the resolution payload variants.
type DeptNotesKind string

const (
	DeptNotesKindSchedule   DeptNotesKind = "SCHEDULE"
	DeptNotesKindResolution DeptNotesKind = "RESOLUTION"
	DeptNotesKindReferral   DeptNotesKind = "REFERRAL"
)

// VisitSchedule records when the department will visit the student, together
// with the approval notes entered when the request was accepted.
type VisitSchedule struct {
	ScheduledAt   time.Time `json:"scheduled_at"`
	ApprovalNotes string    `json:"approval_notes,omitempty"`
}

// ResolutionNote records how the department resolved the request.
type ResolutionNote struct {
	Text       string    `json:"text"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// ReferralPacket carries the handover to the CARE team.
type ReferralPacket struct {
	ReferredBy   string    `json:"referred_by"`
	ReferredAt   time.Time `json:"referred_at"`
	ActionsTaken string    `json:"actions_taken"`
	Comments     string    `json:"comments,omitempty"`
	SignatureURI string    `json:"signature_uri"`
}

// DeptNotes is a tagged variant: exactly one payload matches Kind. Stored as
// JSONB so each status keeps a distinguishable, type-safe shape.
type DeptNotes struct {
	Kind       DeptNotesKind   `json:"kind,omitempty"`
	Schedule   *VisitSchedule  `json:"schedule,omitempty"`
	Resolution *ResolutionNote `json:"resolution,omitempty"`
	Referral   *ReferralPacket `json:"referral,omitempty"`
}

// Value implements driver.Valuer.
func (n DeptNotes) Value() (driver.Value, error) {
	if n.Kind == "" {
		return nil, nil
	}
	return json.Marshal(n)
}

// Scan implements sql.Scanner.
func (n *DeptNotes) Scan(src interface{}) error {
	if src == nil {
		*n = DeptNotes{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, n)
	case string:
		return json.Unmarshal([]byte(v), n)
	default:
		return fmt.Errorf("unsupported dept_notes source type %T", src)
	}
}

// SupportCase is a support-needs request forwarded to a department.
type SupportCase struct {
	ID          string         `db:"id" json:"id"`
	StudentID   string         `db:"student_id" json:"student_id"`
	StudentName string         `db:"student_name" json:"student_name"`
	Department  string         `db:"department" json:"department"`
	SupportType string         `db:"support_type" json:"support_type"`
	Description string         `db:"description" json:"description"`
	Documents   pq.StringArray `db:"documents" json:"documents"`
	Status      SupportStatus  `db:"status" json:"status"`
	DeptNotes   DeptNotes      `db:"dept_notes" json:"dept_notes"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// SupportFilter constrains listing queries.
type SupportFilter struct {
	Status     []SupportStatus
	Department string
	StudentID  string
	Search     string
	Limit      int
	Offset     int
}
