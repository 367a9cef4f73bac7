package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/models"
)

type admissionListStub struct {
	apps []models.AdmissionApplication
}

func (s *admissionListStub) Create(ctx context.Context, q sqlx.ExtContext, a *models.AdmissionApplication) error {
	return nil
}

func (s *admissionListStub) GetByID(ctx context.Context, id string) (*models.AdmissionApplication, error) {
	return nil, sql.ErrNoRows
}

func (s *admissionListStub) List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionApplication, error) {
	return s.apps, nil
}

func (s *admissionListStub) RecordAttendance(ctx context.Context, id string, timeIn, timeOut *time.Time) error {
	return nil
}

func (s *admissionListStub) Delete(ctx context.Context, id string) error { return nil }

func TestAdmissionListAppliesCourseFacet(t *testing.T) {
	second := "BSCS"
	store := &admissionListStub{apps: []models.AdmissionApplication{
		{ID: "app-1", PriorityCourse: "BSCS", CurrentChoice: 1, Department: "CCS"},
		{ID: "app-2", PriorityCourse: "BSN", AltCourse1: &second, CurrentChoice: 2, Department: "CCS"},
		{ID: "app-3", PriorityCourse: "BSN", CurrentChoice: 1, Department: "CON"},
	}}
	courses := &courseResolverStub{departments: map[string]string{"BSCS": "CCS"}}
	svc := NewAdmissionService(store, courses, &auditStub{}, &busStub{}, nil, nil)

	apps, err := svc.List(context.Background(), careStaffActor(), dto.CaseQuery{Course: "BSCS"})
	require.NoError(t, err)
	require.Len(t, apps, 2)
	require.Equal(t, "app-1", apps[0].ID)
	require.Equal(t, "app-2", apps[1].ID)
}
