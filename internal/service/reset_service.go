package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/internal/models"
	"github.com/campus-osa/care-desk-api/internal/repository"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

type resetStore interface {
	WipeAll(ctx context.Context) []repository.CollectionResult
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ResetService performs the privileged full wipe of case data. The wipe is
// disabled unless explicitly enabled in configuration, and each collection
// reports its own outcome so partial failures stay visible.
type ResetService struct {
	repo    resetStore
	cache   cacheInvalidator
	audits  auditWriter
	enabled bool
	logger  *zap.Logger
}

// NewResetService constructs the service.
func NewResetService(repo resetStore, cache cacheInvalidator, audits auditWriter, enabled bool, logger *zap.Logger) *ResetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResetService{repo: repo, cache: cache, audits: audits, enabled: enabled, logger: logger}
}

// Reset wipes all case collections. The audit entry for the reset itself is
// written after the wipe so it survives it.
func (s *ResetService) Reset(ctx context.Context, actor *models.JWTClaims) ([]repository.CollectionResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "system reset is disabled")
	}

	results := s.repo.WipeAll(ctx)

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache after reset", zap.Error(err))
		}
	}

	var wiped int64
	for _, r := range results {
		wiped += r.Deleted
	}
	if s.audits != nil {
		userID := actor.UserID
		entry := &models.AuditLog{
			UserID:   &userID,
			UserName: actor.FullName,
			Action:   models.AuditActionSystemReset,
			Details:  fmt.Sprintf("system reset wiped %d rows across %d collections", wiped, len(results)),
		}
		if err := s.audits.Create(ctx, nil, entry); err != nil {
			s.logger.Warn("failed to record reset audit entry", zap.Error(err))
		}
	}
	return results, nil
}
