package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campus-osa/care-desk-api/internal/models"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

type counterStub struct {
	counts map[string]int
}

func (s *counterStub) counted(statuses int) (map[string]int, error) {
	return s.counts, nil
}

type counselingCounterStub struct{ counterStub }

func (s *counselingCounterStub) CountByDepartment(ctx context.Context, statuses []models.CounselingStatus) (map[string]int, error) {
	return s.counted(len(statuses))
}

type supportCounterStub struct{ counterStub }

func (s *supportCounterStub) CountByDepartment(ctx context.Context, statuses []models.SupportStatus) (map[string]int, error) {
	return s.counted(len(statuses))
}

type admissionCounterStub struct{ counterStub }

func (s *admissionCounterStub) CountByDepartment(ctx context.Context, statuses []models.AdmissionStatus) (map[string]int, error) {
	return s.counted(len(statuses))
}

type cacheStub struct {
	values map[string]interface{}
	sets   int
}

func (s *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (s *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.values == nil {
		s.values = make(map[string]interface{})
	}
	s.values[key] = value
	s.sets++
	return nil
}

func newDashboardFixture() (*DashboardService, *cacheStub) {
	cache := &cacheStub{}
	svc := NewDashboardService(
		&counselingCounterStub{counterStub{counts: map[string]int{"CCS": 3, "COE": 1}}},
		&supportCounterStub{counterStub{counts: map[string]int{"CCS": 2}}},
		&admissionCounterStub{counterStub{counts: map[string]int{"COE": 4}}},
		cache,
		time.Minute,
		nil,
	)
	return svc, cache
}

func TestDashboardSummaryAggregatesQueues(t *testing.T) {
	svc, cache := newDashboardFixture()

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, summary.TotalOpen)
	require.Len(t, summary.Queues, 2)

	require.Equal(t, "CCS", summary.Queues[0].Department)
	require.Equal(t, 3, summary.Queues[0].Counseling)
	require.Equal(t, 2, summary.Queues[0].Support)
	require.Equal(t, 0, summary.Queues[0].Admissions)

	require.Equal(t, "COE", summary.Queues[1].Department)
	require.Equal(t, 4, summary.Queues[1].Admissions)

	require.Equal(t, 1, cache.sets)
}

func TestDashboardQueueAlertFlagsAndAcknowledges(t *testing.T) {
	svc, _ := newDashboardFixture()

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.True(t, summary.Queues[0].Flagged)

	svc.Acknowledge("CCS", 5)
	summary, err = svc.Summary(context.Background())
	require.NoError(t, err)
	require.False(t, summary.Queues[0].Flagged)
	require.True(t, summary.Queues[1].Flagged)
}
