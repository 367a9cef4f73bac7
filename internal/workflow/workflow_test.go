package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-osa/care-desk-api/internal/models"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

func TestCounselingResolveLegal(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tr, err := Counseling.Resolve(Status(models.CounselingStatusSubmitted), ActionSchedule)
	require.NoError(t, err)
	assert.Equal(t, Status(models.CounselingStatusScheduled), tr.To)
	require.NoError(t, tr.Guard(Payload{ScheduledAt: &at}))

	tr, err = Counseling.Resolve(Status(models.CounselingStatusScheduled), ActionRefer)
	require.NoError(t, err)
	assert.Equal(t, Status(models.CounselingStatusReferred), tr.To)
}

func TestCounselingIllegalTransition(t *testing.T) {
	_, err := Counseling.Resolve(Status(models.CounselingStatusSubmitted), ActionComplete)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErr.Code)
}

func TestCounselingTerminalStates(t *testing.T) {
	for _, status := range []models.CounselingStatus{
		models.CounselingStatusCompleted,
		models.CounselingStatusReferred,
		models.CounselingStatusRejected,
	} {
		assert.True(t, Counseling.Terminal(Status(status)), "expected %s to be terminal", status)
	}
	assert.False(t, Counseling.Terminal(Status(models.CounselingStatusSubmitted)))
}

func TestCounselingScheduleGuardRequiresDate(t *testing.T) {
	tr, err := Counseling.Resolve(Status(models.CounselingStatusSubmitted), ActionSchedule)
	require.NoError(t, err)
	err = tr.Guard(Payload{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrGuardFailed.Code, appErrors.FromError(err).Code)
}

func TestSupportResolveGuardsResolution(t *testing.T) {
	tr, err := Support.Resolve(Status(models.SupportStatusVisitScheduled), ActionResolve)
	require.NoError(t, err)
	require.Error(t, tr.Guard(Payload{Notes: "   "}))
	require.NoError(t, tr.Guard(Payload{Notes: "visited dorm, issue settled"}))
}

func TestSupportReferToCareRequiresSignature(t *testing.T) {
	tr, err := Support.Resolve(Status(models.SupportStatusVisitScheduled), ActionReferToCare)
	require.NoError(t, err)

	err = tr.Guard(Payload{ActionsTaken: "escorted to clinic", ReferredBy: "Dean Cruz"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrGuardFailed.Code, appErrors.FromError(err).Code)

	require.NoError(t, tr.Guard(Payload{
		ActionsTaken: "escorted to clinic",
		ReferredBy:   "Dean Cruz",
		SignatureURI: "sig/abc.png",
	}))
}

func TestSupportTerminalStates(t *testing.T) {
	assert.True(t, Support.Terminal(Status(models.SupportStatusResolved)))
	assert.True(t, Support.Terminal(Status(models.SupportStatusReferredToCare)))
	assert.True(t, Support.Terminal(Status(models.SupportStatusRejected)))
}

func strPtr(s string) *string { return &s }

func TestAdmissionCascadeAdvancesToNextChoice(t *testing.T) {
	app := &models.AdmissionApplication{
		Status:         models.AdmissionStatusForwardedChoice1,
		PriorityCourse: "BSIT",
		AltCourse1:     strPtr("BSCS"),
		CurrentChoice:  1,
	}

	tr, err := AdmissionResolve(app, ActionReject)
	require.NoError(t, err)
	assert.Equal(t, Status(models.AdmissionStatusForwardedChoice2), tr.To)

	status, choice := AdmissionCascade(app)
	assert.Equal(t, models.AdmissionStatusForwardedChoice2, status)
	assert.Equal(t, 2, choice)
}

func TestAdmissionCascadeExhaustedIsUnsuccessful(t *testing.T) {
	app := &models.AdmissionApplication{
		Status:         models.AdmissionStatusInterviewScheduled,
		PriorityCourse: "BSIT",
		CurrentChoice:  1,
	}

	tr, err := AdmissionResolve(app, ActionReject)
	require.NoError(t, err)
	assert.Equal(t, Status(models.AdmissionStatusUnsuccessful), tr.To)

	status, choice := AdmissionCascade(app)
	assert.Equal(t, models.AdmissionStatusUnsuccessful, status)
	assert.Equal(t, 1, choice, "choice must never decrease")
}

func TestAdmissionCascadeSkipsNothing(t *testing.T) {
	app := &models.AdmissionApplication{
		Status:         models.AdmissionStatusForwardedChoice2,
		PriorityCourse: "BSIT",
		AltCourse1:     strPtr("BSCS"),
		AltCourse2:     strPtr("BSIS"),
		CurrentChoice:  2,
	}

	status, choice := AdmissionCascade(app)
	assert.Equal(t, models.AdmissionStatusForwardedChoice3, status)
	assert.Equal(t, 3, choice)
}

func TestAdmissionApproveOnlyFromInterviewScheduled(t *testing.T) {
	app := &models.AdmissionApplication{
		Status:         models.AdmissionStatusForwardedChoice1,
		PriorityCourse: "BSIT",
		CurrentChoice:  1,
	}
	_, err := AdmissionResolve(app, ActionApprove)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)

	app.Status = models.AdmissionStatusInterviewScheduled
	tr, err := AdmissionResolve(app, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, Status(models.AdmissionStatusApproved), tr.To)
}

func TestAdmissionTerminalStatesResolveNothing(t *testing.T) {
	for _, status := range []models.AdmissionStatus{
		models.AdmissionStatusApproved,
		models.AdmissionStatusUnsuccessful,
	} {
		app := &models.AdmissionApplication{Status: status, PriorityCourse: "BSIT", CurrentChoice: 1}
		assert.Empty(t, AdmissionLegalTransitions(app), "expected %s to be terminal", status)
	}
}

func TestTransitionAllows(t *testing.T) {
	tr, err := Counseling.Resolve(Status(models.CounselingStatusSubmitted), ActionReject)
	require.NoError(t, err)
	assert.True(t, tr.Allows(models.RoleDepartment))
	assert.True(t, tr.Allows(models.RoleCareStaff))
	assert.False(t, tr.Allows(models.RoleStudent))
}
