package workflow

import (
	"strings"

	"github.com/campus-osa/care-desk-api/internal/models"
)

// Counseling actions.
const (
	ActionSchedule Action = "SCHEDULE"
	ActionReject   Action = "REJECT"
	ActionComplete Action = "COMPLETE"
	ActionRefer    Action = "REFER"
)

var counselingRoles = []models.UserRole{models.RoleDepartment, models.RoleCareStaff}

// Counseling is the state machine for counseling referrals.
// COMPLETED, REFERRED and REJECTED are terminal for the owning department;
// a REFERRED case continues as a fresh submission in the CARE queue.
var Counseling = NewMachine(FamilyCounseling,
	Transition{
		Action: ActionSchedule,
		From:   Status(models.CounselingStatusSubmitted),
		To:     Status(models.CounselingStatusScheduled),
		Roles:  counselingRoles,
		Guard:  requireSchedule,
	},
	Transition{
		Action: ActionReject,
		From:   Status(models.CounselingStatusSubmitted),
		To:     Status(models.CounselingStatusRejected),
		Roles:  counselingRoles,
		Guard:  requireReason,
	},
	Transition{
		Action: ActionComplete,
		From:   Status(models.CounselingStatusScheduled),
		To:     Status(models.CounselingStatusCompleted),
		Roles:  counselingRoles,
		Guard:  requireNotes,
	},
	Transition{
		Action: ActionRefer,
		From:   Status(models.CounselingStatusScheduled),
		To:     Status(models.CounselingStatusReferred),
		Roles:  counselingRoles,
		Guard:  requireReferral,
	},
)

func requireSchedule(p Payload) error {
	if p.ScheduledAt == nil || p.ScheduledAt.IsZero() {
		return guardFailed("a schedule date and time are required")
	}
	return nil
}

func requireReason(p Payload) error {
	if strings.TrimSpace(p.Reason) == "" {
		return guardFailed("a rejection reason is required")
	}
	return nil
}

func requireNotes(p Payload) error {
	if strings.TrimSpace(p.Notes) == "" {
		return guardFailed("resolution notes must not be empty")
	}
	return nil
}

func requireReferral(p Payload) error {
	if strings.TrimSpace(p.Reason) == "" {
		return guardFailed("a reason for referral is required")
	}
	if strings.TrimSpace(p.ReferredBy) == "" {
		return guardFailed("the referring staff member must be named")
	}
	return nil
}
