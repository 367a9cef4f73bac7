package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/internal/models"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

type notificationStore interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	CountByStudent(ctx context.Context, studentID string) (int, error)
}

// NotificationService serves the student notification inbox. Notifications
// are written by the transition executor; this service only reads.
type NotificationService struct {
	repo   notificationStore
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationStore, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// List returns the actor's notifications. Students see only their own inbox;
// staff may inspect any student's inbox through the filter.
func (s *NotificationService) List(ctx context.Context, actor *models.JWTClaims, filter models.NotificationFilter) ([]models.Notification, error) {
	if actor.Role == models.RoleStudent {
		filter.StudentID = actor.UserID
	}
	notifications, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// Count returns the inbox size for one student.
func (s *NotificationService) Count(ctx context.Context, actor *models.JWTClaims, studentID string) (int, error) {
	if actor.Role == models.RoleStudent {
		studentID = actor.UserID
	}
	total, err := s.repo.CountByStudent(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return total, nil
}
