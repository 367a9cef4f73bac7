package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/models"
	"github.com/campus-osa/care-desk-api/internal/projection"
	"github.com/campus-osa/care-desk-api/internal/realtime"
	"github.com/campus-osa/care-desk-api/internal/workflow"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

type admissionStore interface {
	Create(ctx context.Context, q sqlx.ExtContext, a *models.AdmissionApplication) error
	GetByID(ctx context.Context, id string) (*models.AdmissionApplication, error)
	List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionApplication, error)
	RecordAttendance(ctx context.Context, id string, timeIn, timeOut *time.Time) error
	Delete(ctx context.Context, id string) error
}

// AdmissionService handles ranked-preference admission applications.
type AdmissionService struct {
	repo      admissionStore
	courses   departmentResolver
	audits    auditWriter
	bus       changePublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdmissionService constructs the service.
func NewAdmissionService(repo admissionStore, courses departmentResolver, audits auditWriter, bus changePublisher, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AdmissionService{repo: repo, courses: courses, audits: audits, bus: bus, validator: validate, logger: logger}
}

// Create records a new application. The owning department is resolved from
// the priority course's authoritative mapping, never taken from the client.
func (s *AdmissionService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateAdmissionRequest) (*models.AdmissionApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission submission")
	}

	department, err := s.courses.DepartmentForCourse(ctx, req.PriorityCourse)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("no department owns course %s", req.PriorityCourse))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course department")
	}

	app := &models.AdmissionApplication{
		StudentID:      actor.UserID,
		ApplicantName:  req.ApplicantName,
		Email:          req.Email,
		ContactNumber:  req.ContactNumber,
		PriorityCourse: req.PriorityCourse,
		AltCourse1:     req.AltCourse1,
		AltCourse2:     req.AltCourse2,
		AltCourse3:     req.AltCourse3,
		Department:     department,
	}
	if err := s.repo.Create(ctx, nil, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, "failed to create admission application")
	}

	s.emitAudit(ctx, actor, models.AuditActionCaseCreate, fmt.Sprintf("admission application %s submitted for %s", app.ID, app.PriorityCourse))
	publishRecord(s.bus, s.logger, realtime.KindInserted, string(workflow.FamilyAdmission), app)
	return app, nil
}

// Get returns one application, enforcing the actor's visibility.
func (s *AdmissionService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.AdmissionApplication, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admission application")
	}
	if len(projection.ScopeAdmissions(actor, []models.AdmissionApplication{*app})) == 0 {
		return nil, appErrors.ErrNotFound
	}
	return app, nil
}

// List returns the actor's visible slice of the collection.
func (s *AdmissionService) List(ctx context.Context, actor *models.JWTClaims, query dto.CaseQuery) ([]models.AdmissionApplication, error) {
	filter := models.AdmissionFilter{
		Search: query.Search,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	for _, status := range query.Status {
		filter.Status = append(filter.Status, models.AdmissionStatus(status))
	}
	switch actor.Role {
	case models.RoleDepartment:
		filter.Department = actor.Department
	case models.RoleStudent:
		filter.StudentID = actor.UserID
	}

	apps, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admission applications")
	}
	scoped := projection.ScopeAdmissions(actor, apps)
	return projection.RefineAdmissions(scoped, queryFacets(query)), nil
}

// RecordAttendance stamps interview test attendance. Stamps only ever move
// forward: a stamp already present is never overwritten.
func (s *AdmissionService) RecordAttendance(ctx context.Context, actor *models.JWTClaims, id string, req dto.AttendanceRequest) (*models.AdmissionApplication, error) {
	app, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var timeIn, timeOut *time.Time
	if req.TimeIn && app.TimeIn == nil {
		timeIn = &now
	}
	if req.TimeOut && app.TimeOut == nil {
		timeOut = &now
	}
	if timeIn == nil && timeOut == nil {
		return app, nil
	}

	if err := s.repo.RecordAttendance(ctx, id, timeIn, timeOut); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, "failed to record attendance")
	}
	if timeIn != nil {
		app.TimeIn = timeIn
	}
	if timeOut != nil {
		app.TimeOut = timeOut
	}
	publishRecord(s.bus, s.logger, realtime.KindUpdated, string(workflow.FamilyAdmission), app)
	return app, nil
}

// Delete removes an application and publishes the deletion.
func (s *AdmissionService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admission application")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, "failed to delete admission application")
	}
	s.emitAudit(ctx, actor, models.AuditActionCaseDelete, fmt.Sprintf("admission application %s deleted", id))
	publishRecord(s.bus, s.logger, realtime.KindDeleted, string(workflow.FamilyAdmission), app)
	return nil
}

func (s *AdmissionService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, details string) {
	if s.audits == nil {
		return
	}
	userID := actor.UserID
	entry := &models.AuditLog{UserID: &userID, UserName: actor.FullName, Action: action, Details: details}
	if err := s.audits.Create(ctx, nil, entry); err != nil {
		s.logger.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}
