package workflow

import (
	"strings"

	"github.com/campus-osa/care-desk-api/internal/models"
)

// Support actions.
const (
	ActionScheduleVisit Action = "SCHEDULE_VISIT"
	ActionResolve       Action = "RESOLVE"
	ActionReferToCare   Action = "REFER_TO_CARE"
)

var supportRoles = []models.UserRole{models.RoleDepartment, models.RoleCareStaff}

// Support is the state machine for support-needs requests.
var Support = NewMachine(FamilySupport,
	Transition{
		Action: ActionScheduleVisit,
		From:   Status(models.SupportStatusForwarded),
		To:     Status(models.SupportStatusVisitScheduled),
		Roles:  supportRoles,
		Guard:  requireSchedule,
	},
	Transition{
		Action: ActionReject,
		From:   Status(models.SupportStatusForwarded),
		To:     Status(models.SupportStatusRejected),
		Roles:  supportRoles,
		Guard:  requireReason,
	},
	Transition{
		Action: ActionResolve,
		From:   Status(models.SupportStatusVisitScheduled),
		To:     Status(models.SupportStatusResolved),
		Roles:  supportRoles,
		Guard:  requireNotes,
	},
	Transition{
		Action: ActionReferToCare,
		From:   Status(models.SupportStatusVisitScheduled),
		To:     Status(models.SupportStatusReferredToCare),
		Roles:  supportRoles,
		Guard:  requireCareReferral,
	},
)

// requireCareReferral enforces the hard handover contract: actions text and a
// captured signature artifact, on top of the referring actor.
func requireCareReferral(p Payload) error {
	if strings.TrimSpace(p.ActionsTaken) == "" {
		return guardFailed("actions taken must be documented before referring to CARE")
	}
	if strings.TrimSpace(p.SignatureURI) == "" {
		return guardFailed("a captured signature is required to refer to CARE")
	}
	if strings.TrimSpace(p.ReferredBy) == "" {
		return guardFailed("the referring staff member must be named")
	}
	return nil
}
