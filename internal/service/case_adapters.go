package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campus-osa/care-desk-api/internal/models"
	"github.com/campus-osa/care-desk-api/internal/repository"
	"github.com/campus-osa/care-desk-api/internal/workflow"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

// CareDepartment owns the counseling queue and receives hard handovers.
const CareDepartment = "CARE"

type counselingCaseStore interface {
	GetByID(ctx context.Context, id string) (*models.CounselingCase, error)
	Create(ctx context.Context, q sqlx.ExtContext, c *models.CounselingCase) error
	ApplyTransition(ctx context.Context, q sqlx.ExtContext, params repository.CounselingTransitionParams) error
}

// CounselingAdapter executes counseling transitions.
type CounselingAdapter struct {
	repo counselingCaseStore
}

// NewCounselingAdapter constructs the adapter.
func NewCounselingAdapter(repo counselingCaseStore) *CounselingAdapter {
	return &CounselingAdapter{repo: repo}
}

// Family identifies the counseling collection.
func (a *CounselingAdapter) Family() workflow.Family {
	return workflow.FamilyCounseling
}

// Load fetches the case into the executor's neutral view.
func (a *CounselingAdapter) Load(ctx context.Context, id string) (*CaseState, error) {
	c, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CaseState{
		ID:          c.ID,
		StudentID:   c.StudentID,
		StudentName: c.StudentName,
		Department:  c.Department,
		Status:      workflow.Status(c.Status),
		Model:       c,
	}, nil
}

// Resolve finds the legal edge for the requested action.
func (a *CounselingAdapter) Resolve(state *CaseState, action workflow.Action) (workflow.Transition, error) {
	return workflow.Counseling.Resolve(state.Status, action)
}

// LegalTransitions enumerates the outgoing edges.
func (a *CounselingAdapter) LegalTransitions(state *CaseState) []workflow.Transition {
	return workflow.Counseling.LegalTransitions(state.Status)
}

// Apply performs the conditional status write. Referring a case spawns a
// fresh submission in the CARE queue inside the same transaction.
func (a *CounselingAdapter) Apply(ctx context.Context, tx sqlx.ExtContext, state *CaseState, tr workflow.Transition, p workflow.Payload) error {
	c := state.Model.(*models.CounselingCase)
	params := repository.CounselingTransitionParams{
		ID:         state.ID,
		FromStatus: models.CounselingStatus(tr.From),
		ToStatus:   models.CounselingStatus(tr.To),
	}
	switch tr.Action {
	case workflow.ActionSchedule:
		params.ScheduledAt = p.ScheduledAt
		c.ScheduledAt = p.ScheduledAt
	case workflow.ActionReject:
		reason := p.Reason
		params.ResolutionNotes = &reason
		c.ResolutionNotes = &reason
	case workflow.ActionComplete:
		notes := p.Notes
		params.ResolutionNotes = &notes
		c.ResolutionNotes = &notes
	case workflow.ActionRefer:
		reason := p.Reason
		referredBy := p.ReferredBy
		params.ResolutionNotes = &reason
		params.ReferredBy = &referredBy
		c.ResolutionNotes = &reason
		c.ReferredBy = &referredBy
		if p.SignatureURI != "" {
			signature := p.SignatureURI
			params.ReferrerSignature = &signature
			c.ReferrerSignature = &signature
		}
	}
	if err := a.repo.ApplyTransition(ctx, tx, params); err != nil {
		return err
	}
	c.Status = models.CounselingStatus(tr.To)
	c.UpdatedAt = time.Now().UTC()

	if tr.Action == workflow.ActionRefer {
		followUp := &models.CounselingCase{
			StudentID:     c.StudentID,
			StudentName:   c.StudentName,
			CourseYear:    c.CourseYear,
			ContactNumber: c.ContactNumber,
			Department:    CareDepartment,
			RequestType:   c.RequestType,
			Description:   fmt.Sprintf("Referred from %s: %s", c.Department, c.Description),
		}
		if err := a.repo.Create(ctx, tx, followUp); err != nil {
			return err
		}
		state.Spawned = append(state.Spawned, SpawnedRecord{
			Collection: string(workflow.FamilyCounseling),
			Model:      followUp,
		})
	}
	return nil
}

// Message renders the student notification for the transition.
func (a *CounselingAdapter) Message(state *CaseState, tr workflow.Transition, p workflow.Payload) string {
	switch tr.Action {
	case workflow.ActionSchedule:
		return fmt.Sprintf("Your counseling session has been scheduled for %s.", p.ScheduledAt.Format("January 2, 2006 3:04 PM"))
	case workflow.ActionReject:
		return fmt.Sprintf("Your counseling request was not accepted: %s", p.Reason)
	case workflow.ActionComplete:
		return "Your counseling session has been completed."
	case workflow.ActionRefer:
		return "Your counseling case has been referred to the CARE team for further assistance."
	default:
		return fmt.Sprintf("Your counseling case status changed to %s.", tr.To)
	}
}

type supportCaseStore interface {
	GetByID(ctx context.Context, id string) (*models.SupportCase, error)
	ApplyTransition(ctx context.Context, q sqlx.ExtContext, params repository.SupportTransitionParams) error
}

// SupportAdapter executes support-needs transitions. A referral to CARE
// spawns a counseling submission through the counseling store so the handover
// lands in the same transaction as the status write.
type SupportAdapter struct {
	repo       supportCaseStore
	counseling counselingCaseStore
}

// NewSupportAdapter constructs the adapter.
func NewSupportAdapter(repo supportCaseStore, counseling counselingCaseStore) *SupportAdapter {
	return &SupportAdapter{repo: repo, counseling: counseling}
}

// Family identifies the support collection.
func (a *SupportAdapter) Family() workflow.Family {
	return workflow.FamilySupport
}

// Load fetches the case into the executor's neutral view.
func (a *SupportAdapter) Load(ctx context.Context, id string) (*CaseState, error) {
	c, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CaseState{
		ID:          c.ID,
		StudentID:   c.StudentID,
		StudentName: c.StudentName,
		Department:  c.Department,
		Status:      workflow.Status(c.Status),
		Model:       c,
	}, nil
}

// Resolve finds the legal edge for the requested action.
func (a *SupportAdapter) Resolve(state *CaseState, action workflow.Action) (workflow.Transition, error) {
	return workflow.Support.Resolve(state.Status, action)
}

// LegalTransitions enumerates the outgoing edges.
func (a *SupportAdapter) LegalTransitions(state *CaseState) []workflow.Transition {
	return workflow.Support.LegalTransitions(state.Status)
}

// Apply writes the status together with the tagged dept_notes payload for
// the action taken.
func (a *SupportAdapter) Apply(ctx context.Context, tx sqlx.ExtContext, state *CaseState, tr workflow.Transition, p workflow.Payload) error {
	c := state.Model.(*models.SupportCase)
	now := time.Now().UTC()

	var notes models.DeptNotes
	switch tr.Action {
	case workflow.ActionScheduleVisit:
		notes = models.DeptNotes{
			Kind:     models.DeptNotesKindSchedule,
			Schedule: &models.VisitSchedule{ScheduledAt: *p.ScheduledAt, ApprovalNotes: p.Notes},
		}
	case workflow.ActionReject:
		notes = models.DeptNotes{
			Kind:       models.DeptNotesKindResolution,
			Resolution: &models.ResolutionNote{Text: p.Reason, ResolvedAt: now},
		}
	case workflow.ActionResolve:
		notes = models.DeptNotes{
			Kind:       models.DeptNotesKindResolution,
			Resolution: &models.ResolutionNote{Text: p.Notes, ResolvedAt: now},
		}
	case workflow.ActionReferToCare:
		notes = models.DeptNotes{
			Kind: models.DeptNotesKindReferral,
			Referral: &models.ReferralPacket{
				ReferredBy:   p.ReferredBy,
				ReferredAt:   now,
				ActionsTaken: p.ActionsTaken,
				Comments:     p.Comments,
				SignatureURI: p.SignatureURI,
			},
		}
	}

	err := a.repo.ApplyTransition(ctx, tx, repository.SupportTransitionParams{
		ID:         state.ID,
		FromStatus: models.SupportStatus(tr.From),
		ToStatus:   models.SupportStatus(tr.To),
		DeptNotes:  notes,
	})
	if err != nil {
		return err
	}
	c.Status = models.SupportStatus(tr.To)
	c.DeptNotes = notes
	c.UpdatedAt = now

	if tr.Action == workflow.ActionReferToCare {
		followUp := &models.CounselingCase{
			StudentID:   c.StudentID,
			StudentName: c.StudentName,
			Department:  CareDepartment,
			RequestType: c.SupportType,
			Description: fmt.Sprintf("Referred from %s support case: %s", c.Department, c.Description),
		}
		if err := a.counseling.Create(ctx, tx, followUp); err != nil {
			return err
		}
		state.Spawned = append(state.Spawned, SpawnedRecord{
			Collection: string(workflow.FamilyCounseling),
			Model:      followUp,
		})
	}
	return nil
}

// Message renders the student notification for the transition.
func (a *SupportAdapter) Message(state *CaseState, tr workflow.Transition, p workflow.Payload) string {
	switch tr.Action {
	case workflow.ActionScheduleVisit:
		return fmt.Sprintf("A visit for your support request has been scheduled for %s.", p.ScheduledAt.Format("January 2, 2006 3:04 PM"))
	case workflow.ActionReject:
		return fmt.Sprintf("Your support request was not accepted: %s", p.Reason)
	case workflow.ActionResolve:
		return "Your support request has been resolved."
	case workflow.ActionReferToCare:
		return "Your support request has been referred to the CARE team for further assistance."
	default:
		return fmt.Sprintf("Your support request status changed to %s.", tr.To)
	}
}

type admissionCaseStore interface {
	GetByID(ctx context.Context, id string) (*models.AdmissionApplication, error)
	ApplyTransition(ctx context.Context, q sqlx.ExtContext, params repository.AdmissionTransitionParams) error
}

type departmentResolver interface {
	DepartmentForCourse(ctx context.Context, code string) (string, error)
}

// AdmissionAdapter executes admissions transitions. The rejection edge is
// computed from the applicant's preference list; the next queue's department
// is resolved from the authoritative course mapping before the write.
type AdmissionAdapter struct {
	repo    admissionCaseStore
	courses departmentResolver
}

// NewAdmissionAdapter constructs the adapter.
func NewAdmissionAdapter(repo admissionCaseStore, courses departmentResolver) *AdmissionAdapter {
	return &AdmissionAdapter{repo: repo, courses: courses}
}

// Family identifies the admissions collection.
func (a *AdmissionAdapter) Family() workflow.Family {
	return workflow.FamilyAdmission
}

// Load fetches the application into the executor's neutral view.
func (a *AdmissionAdapter) Load(ctx context.Context, id string) (*CaseState, error) {
	app, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CaseState{
		ID:          app.ID,
		StudentID:   app.StudentID,
		StudentName: app.ApplicantName,
		Department:  app.Department,
		Status:      workflow.Status(app.Status),
		Model:       app,
	}, nil
}

// Resolve derives the legal edge for the requested action.
func (a *AdmissionAdapter) Resolve(state *CaseState, action workflow.Action) (workflow.Transition, error) {
	return workflow.AdmissionResolve(state.Model.(*models.AdmissionApplication), action)
}

// LegalTransitions enumerates the outgoing edges.
func (a *AdmissionAdapter) LegalTransitions(state *CaseState) []workflow.Transition {
	return workflow.AdmissionLegalTransitions(state.Model.(*models.AdmissionApplication))
}

// Apply writes the cascade outcome. A rejection either forwards to the next
// declared choice, re-targeting the owning department, or terminates the
// application when preferences are exhausted.
func (a *AdmissionAdapter) Apply(ctx context.Context, tx sqlx.ExtContext, state *CaseState, tr workflow.Transition, p workflow.Payload) error {
	app := state.Model.(*models.AdmissionApplication)
	params := repository.AdmissionTransitionParams{
		ID:            state.ID,
		FromStatus:    models.AdmissionStatus(tr.From),
		ToStatus:      models.AdmissionStatus(tr.To),
		CurrentChoice: app.CurrentChoice,
	}

	switch tr.Action {
	case workflow.ActionScheduleInterview:
		params.InterviewAt = p.ScheduledAt
		app.InterviewAt = p.ScheduledAt
	case workflow.ActionReject:
		target, nextChoice := workflow.AdmissionCascade(app)
		params.CurrentChoice = nextChoice
		if target != models.AdmissionStatusUnsuccessful {
			course := app.CourseForChoice(nextChoice)
			department, err := a.courses.DepartmentForCourse(ctx, course)
			if err != nil {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("no department owns course %s", course))
			}
			params.Department = &department
			app.Department = department
			state.Department = department
		}
		app.CurrentChoice = nextChoice
	}

	if err := a.repo.ApplyTransition(ctx, tx, params); err != nil {
		return err
	}
	app.Status = models.AdmissionStatus(tr.To)
	app.UpdatedAt = time.Now().UTC()
	return nil
}

// Message renders the applicant notification from the status label.
func (a *AdmissionAdapter) Message(state *CaseState, tr workflow.Transition, p workflow.Payload) string {
	return fmt.Sprintf("Your admission application status is now: %s", models.AdmissionStatus(tr.To).Label())
}
