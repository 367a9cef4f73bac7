package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/models"
	"github.com/campus-osa/care-desk-api/internal/realtime"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

type counselingCounter interface {
	CountByDepartment(ctx context.Context, statuses []models.CounselingStatus) (map[string]int, error)
}

type supportCounter interface {
	CountByDepartment(ctx context.Context, statuses []models.SupportStatus) (map[string]int, error)
}

type admissionCounter interface {
	CountByDepartment(ctx context.Context, statuses []models.AdmissionStatus) (map[string]int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const dashboardCacheKey = "dashboard:queues"

// openCounselingStatuses are the counseling states that still need staff
// attention.
var openCounselingStatuses = []models.CounselingStatus{
	models.CounselingStatusSubmitted,
	models.CounselingStatusScheduled,
}

var openSupportStatuses = []models.SupportStatus{
	models.SupportStatusForwarded,
	models.SupportStatusVisitScheduled,
}

var openAdmissionStatuses = []models.AdmissionStatus{
	models.AdmissionStatusForwardedChoice1,
	models.AdmissionStatusForwardedChoice2,
	models.AdmissionStatusForwardedChoice3,
	models.AdmissionStatusForwardedChoice4,
	models.AdmissionStatusInterviewScheduled,
}

// DashboardService assembles live queue snapshots for the staff landing
// view. Snapshots are cached briefly; per-department queue alerts flag when
// the live count passed what the viewer last acknowledged.
type DashboardService struct {
	counseling counselingCounter
	support    supportCounter
	admissions admissionCounter
	cache      dashboardCache
	cacheTTL   time.Duration
	logger     *zap.Logger

	mu     sync.Mutex
	alerts map[string]*realtime.QueueAlert
}

// NewDashboardService constructs the service.
func NewDashboardService(counseling counselingCounter, support supportCounter, admissions admissionCounter, cache dashboardCache, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &DashboardService{
		counseling: counseling,
		support:    support,
		admissions: admissions,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
		alerts:     make(map[string]*realtime.QueueAlert),
	}
}

// Summary returns the queue snapshot, serving from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, error) {
	if s.cache != nil {
		var cached dto.DashboardSummary
		if err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil {
			s.flagQueues(cached.Queues)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	counselingCounts, err := s.counseling.CountByDepartment(ctx, openCounselingStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count counseling queues")
	}
	supportCounts, err := s.support.CountByDepartment(ctx, openSupportStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count support queues")
	}
	admissionCounts, err := s.admissions.CountByDepartment(ctx, openAdmissionStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admission queues")
	}

	departments := make(map[string]struct{})
	for d := range counselingCounts {
		departments[d] = struct{}{}
	}
	for d := range supportCounts {
		departments[d] = struct{}{}
	}
	for d := range admissionCounts {
		departments[d] = struct{}{}
	}

	summary := &dto.DashboardSummary{GeneratedAt: time.Now().UTC()}
	for department := range departments {
		snapshot := dto.QueueSnapshot{
			Department: department,
			Counseling: counselingCounts[department],
			Support:    supportCounts[department],
			Admissions: admissionCounts[department],
		}
		summary.TotalOpen += snapshot.Counseling + snapshot.Support + snapshot.Admissions
		summary.Queues = append(summary.Queues, snapshot)
	}
	sort.Slice(summary.Queues, func(i, j int) bool {
		return summary.Queues[i].Department < summary.Queues[j].Department
	})
	s.flagQueues(summary.Queues)

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// Acknowledge clears the attention flag for one department at its current
// count.
func (s *DashboardService) Acknowledge(department string, live int) {
	s.alert(department).Acknowledge(live)
}

func (s *DashboardService) flagQueues(queues []dto.QueueSnapshot) {
	for i := range queues {
		live := queues[i].Counseling + queues[i].Support + queues[i].Admissions
		queues[i].Flagged = s.alert(queues[i].Department).Observe(live)
	}
}

func (s *DashboardService) alert(department string) *realtime.QueueAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[department]
	if !ok {
		a = realtime.NewQueueAlert(0)
		s.alerts[department] = a
	}
	return a
}
