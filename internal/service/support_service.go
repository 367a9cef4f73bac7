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

type supportStore interface {
	Create(ctx context.Context, q sqlx.ExtContext, c *models.SupportCase) error
	GetByID(ctx context.Context, id string) (*models.SupportCase, error)
	List(ctx context.Context, filter models.SupportFilter) ([]models.SupportCase, error)
	Delete(ctx context.Context, id string) error
}

// SupportService handles support-needs submissions and reads.
type SupportService struct {
	repo      supportStore
	audits    auditWriter
	bus       changePublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSupportService constructs the service.
func NewSupportService(repo supportStore, audits auditWriter, bus changePublisher, validate *validator.Validate, logger *zap.Logger) *SupportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SupportService{repo: repo, audits: audits, bus: bus, validator: validate, logger: logger}
}

// Create records a new support request forwarded to the named department.
func (s *SupportService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateSupportRequest) (*models.SupportCase, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid support submission")
	}

	c := &models.SupportCase{
		StudentID:   actor.UserID,
		StudentName: req.StudentName,
		Department:  req.Department,
		SupportType: req.SupportType,
		Description: req.Description,
		Documents:   req.Documents,
	}
	if err := s.repo.Create(ctx, nil, c); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, "failed to create support case")
	}

	s.emitAudit(ctx, actor, models.AuditActionCaseCreate, fmt.Sprintf("support case %s submitted to %s", c.ID, c.Department))
	publishRecord(s.bus, s.logger, realtime.KindInserted, string(workflow.FamilySupport), c)
	return c, nil
}

// Get returns one case, enforcing the actor's visibility.
func (s *SupportService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.SupportCase, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load support case")
	}
	if len(projection.ScopeSupport(actor, []models.SupportCase{*c})) == 0 {
		return nil, appErrors.ErrNotFound
	}
	return c, nil
}

// List returns the actor's visible slice of the collection.
func (s *SupportService) List(ctx context.Context, actor *models.JWTClaims, query dto.CaseQuery) ([]models.SupportCase, error) {
	filter := models.SupportFilter{
		Search: query.Search,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	for _, status := range query.Status {
		filter.Status = append(filter.Status, models.SupportStatus(status))
	}
	switch actor.Role {
	case models.RoleDepartment:
		filter.Department = actor.Department
	case models.RoleStudent:
		filter.StudentID = actor.UserID
	}

	cases, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list support cases")
	}
	scoped := projection.ScopeSupport(actor, cases)
	return projection.RefineSupport(scoped, queryFacets(query)), nil
}

// Delete removes a case and publishes the deletion so open views evict it.
func (s *SupportService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load support case")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, "failed to delete support case")
	}
	s.emitAudit(ctx, actor, models.AuditActionCaseDelete, fmt.Sprintf("support case %s deleted", id))
	publishRecord(s.bus, s.logger, realtime.KindDeleted, string(workflow.FamilySupport), c)
	return nil
}

func (s *SupportService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, details string) {
	if s.audits == nil {
		return
	}
	userID := actor.UserID
	entry := &models.AuditLog{UserID: &userID, UserName: actor.FullName, Action: action, Details: details}
	if err := s.audits.Create(ctx, nil, entry); err != nil {
		s.logger.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}
