package models

import "time"

// CounselingStatus captures workflow states for counseling referrals.
type CounselingStatus string

const (
	CounselingStatusSubmitted CounselingStatus = "SUBMITTED"
	CounselingStatusScheduled CounselingStatus = "SCHEDULED"
	CounselingStatusCompleted CounselingStatus = "COMPLETED"
	CounselingStatusReferred  CounselingStatus = "REFERRED"
	CounselingStatusRejected  CounselingStatus = "REJECTED"
)

// CounselingStatuses is the closed enumeration for the family.
var CounselingStatuses = []CounselingStatus{
	CounselingStatusSubmitted,
	CounselingStatusScheduled,
	CounselingStatusCompleted,
	CounselingStatusReferred,
	CounselingStatusRejected,
}

// CounselingCase is a counseling referral tracked through its lifecycle.
// A case scheduled must carry a non-null ScheduledAt before leaving SUBMITTED.
type CounselingCase struct {
	ID                string           `db:"id" json:"id"`
	StudentID         string           `db:"student_id" json:"student_id"`
	StudentName       string           `db:"student_name" json:"student_name"`
	CourseYear        string           `db:"course_year" json:"course_year"`
	ContactNumber     string           `db:"contact_number" json:"contact_number"`
	Department        string           `db:"department" json:"department"`
	RequestType       string           `db:"request_type" json:"request_type"`
	Description       string           `db:"description" json:"description"`
	Status            CounselingStatus `db:"status" json:"status"`
	ScheduledAt       *time.Time       `db:"scheduled_at" json:"scheduled_at,omitempty"`
	ResolutionNotes   *string          `db:"resolution_notes" json:"resolution_notes,omitempty"`
	ReferredBy        *string          `db:"referred_by" json:"referred_by,omitempty"`
	ReferrerSignature *string          `db:"referrer_signature" json:"referrer_signature,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// CounselingFilter constrains listing queries.
type CounselingFilter struct {
	Status     []CounselingStatus
	Department string
	StudentID  string
	Search     string
	Limit      int
	Offset     int
}
