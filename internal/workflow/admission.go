package workflow

import (
	"fmt"

	"github.com/campus-osa/care-desk-api/internal/models"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

// Admission actions.
const (
	ActionScheduleInterview Action = "SCHEDULE_INTERVIEW"
	ActionApprove           Action = "APPROVE"
)

var admissionRoles = []models.UserRole{models.RoleDepartment, models.RoleCareStaff}

// AdmissionCascade computes where an application lands when rejected at its
// current choice: the next declared preference if one exists, otherwise the
// terminal UNSUCCESSFUL state. The returned choice never decreases.
func AdmissionCascade(app *models.AdmissionApplication) (models.AdmissionStatus, int) {
	next := app.CurrentChoice + 1
	if next <= 4 && app.CourseForChoice(next) != "" {
		status, err := models.ForwardedStatusForChoice(next)
		if err == nil {
			return status, next
		}
	}
	return models.AdmissionStatusUnsuccessful, app.CurrentChoice
}

// AdmissionResolve derives the legal transition for (application, action).
// The rejection edge is computed from the preference list, not read from a
// static table.
func AdmissionResolve(app *models.AdmissionApplication, action Action) (Transition, error) {
	status := Status(app.Status)

	forwarded := app.Status == models.AdmissionStatusForwardedChoice1 ||
		app.Status == models.AdmissionStatusForwardedChoice2 ||
		app.Status == models.AdmissionStatusForwardedChoice3 ||
		app.Status == models.AdmissionStatusForwardedChoice4

	switch action {
	case ActionScheduleInterview:
		if !forwarded {
			break
		}
		return Transition{
			Action: ActionScheduleInterview,
			From:   status,
			To:     Status(models.AdmissionStatusInterviewScheduled),
			Roles:  admissionRoles,
			Guard:  requireSchedule,
		}, nil
	case ActionApprove:
		if app.Status != models.AdmissionStatusInterviewScheduled {
			break
		}
		return Transition{
			Action: ActionApprove,
			From:   status,
			To:     Status(models.AdmissionStatusApproved),
			Roles:  admissionRoles,
		}, nil
	case ActionReject:
		if !forwarded && app.Status != models.AdmissionStatusInterviewScheduled {
			break
		}
		target, _ := AdmissionCascade(app)
		return Transition{
			Action: ActionReject,
			From:   status,
			To:     Status(target),
			Roles:  admissionRoles,
			Guard:  requireReason,
		}, nil
	}

	return Transition{}, appErrors.Clone(appErrors.ErrIllegalTransition,
		fmt.Sprintf("action %s is not allowed while the application is %s", action, app.Status.Label()))
}

// AdmissionLegalTransitions enumerates the outgoing edges for an application
// in its current state.
func AdmissionLegalTransitions(app *models.AdmissionApplication) []Transition {
	var out []Transition
	for _, action := range []Action{ActionScheduleInterview, ActionApprove, ActionReject} {
		if t, err := AdmissionResolve(app, action); err == nil {
			out = append(out, t)
		}
	}
	return out
}
