package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

type counselingStore interface {
	Create(ctx context.Context, q sqlx.ExtContext, c *models.CounselingCase) error
	GetByID(ctx context.Context, id string) (*models.CounselingCase, error)
	List(ctx context.Context, filter models.CounselingFilter) ([]models.CounselingCase, error)
	Delete(ctx context.Context, id string) error
}

type rosterReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// CounselingService handles counseling referral submissions and reads. All
// reads are scoped to what the acting user may see before leaving the
// service.
type CounselingService struct {
	repo      counselingStore
	roster    rosterReader
	audits    auditWriter
	bus       changePublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCounselingService constructs the service.
func NewCounselingService(repo counselingStore, roster rosterReader, audits auditWriter, bus changePublisher, validate *validator.Validate, logger *zap.Logger) *CounselingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CounselingService{repo: repo, roster: roster, audits: audits, bus: bus, validator: validate, logger: logger}
}

// Create records a new counseling submission for the acting student. The
// owning department comes from the student's roster record, falling back to
// the CARE queue when the student is not on the roster.
func (s *CounselingService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateCounselingRequest) (*models.CounselingCase, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid counseling submission")
	}

	department := CareDepartment
	if student, err := s.roster.FindByID(ctx, actor.UserID); err == nil {
		department = student.Department
	}

	c := &models.CounselingCase{
		StudentID:     actor.UserID,
		StudentName:   req.StudentName,
		CourseYear:    req.CourseYear,
		ContactNumber: req.ContactNumber,
		Department:    department,
		RequestType:   req.RequestType,
		Description:   req.Description,
	}
	if err := s.repo.Create(ctx, nil, c); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, "failed to create counseling case")
	}

	s.emitAudit(ctx, actor, models.AuditActionCaseCreate, fmt.Sprintf("counseling case %s submitted", c.ID))
	publishRecord(s.bus, s.logger, realtime.KindInserted, string(workflow.FamilyCounseling), c)
	return c, nil
}

// Get returns one case, enforcing the actor's visibility.
func (s *CounselingService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.CounselingCase, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load counseling case")
	}
	if len(projection.ScopeCounseling(actor, []models.CounselingCase{*c})) == 0 {
		return nil, appErrors.ErrNotFound
	}
	return c, nil
}

// List returns the actor's visible slice of the collection.
func (s *CounselingService) List(ctx context.Context, actor *models.JWTClaims, query dto.CaseQuery) ([]models.CounselingCase, error) {
	filter := models.CounselingFilter{
		Search: query.Search,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	for _, status := range query.Status {
		filter.Status = append(filter.Status, models.CounselingStatus(status))
	}
	switch actor.Role {
	case models.RoleDepartment:
		filter.Department = actor.Department
	case models.RoleStudent:
		filter.StudentID = actor.UserID
	}

	cases, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list counseling cases")
	}
	scoped := projection.ScopeCounseling(actor, cases)
	return projection.RefineCounseling(scoped, queryFacets(query)), nil
}

// Delete removes a case and publishes the deletion so open views evict it.
func (s *CounselingService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load counseling case")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, "failed to delete counseling case")
	}
	s.emitAudit(ctx, actor, models.AuditActionCaseDelete, fmt.Sprintf("counseling case %s deleted", id))
	publishRecord(s.bus, s.logger, realtime.KindDeleted, string(workflow.FamilyCounseling), c)
	return nil
}

func (s *CounselingService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, details string) {
	if s.audits == nil {
		return
	}
	userID := actor.UserID
	entry := &models.AuditLog{UserID: &userID, UserName: actor.FullName, Action: action, Details: details}
	if err := s.audits.Create(ctx, nil, entry); err != nil {
		s.logger.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}
