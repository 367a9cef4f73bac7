package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/internal/models"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

type studentRoster interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// StudentService serves the roster that cases reference by student id.
type StudentService struct {
	roster studentRoster
	logger *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(roster studentRoster, logger *zap.Logger) *StudentService {
	return &StudentService{roster: roster, logger: logger}
}

// List returns roster entries. Department actors are pinned to their own
// department regardless of the requested filter.
func (s *StudentService) List(ctx context.Context, actor *models.JWTClaims, filter models.StudentFilter) ([]models.Student, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleDepartment {
		filter.Department = actor.Department
	}
	students, total, err := s.roster.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, total, nil
}

// Get returns one roster entry.
func (s *StudentService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Student, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	student, err := s.roster.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if actor.Role == models.RoleDepartment && student.Department != actor.Department {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another department")
	}
	return student, nil
}
