package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/models"
)

type counselingListStub struct {
	cases   []models.CounselingCase
	filters []models.CounselingFilter
}

func (s *counselingListStub) Create(ctx context.Context, q sqlx.ExtContext, c *models.CounselingCase) error {
	return nil
}

func (s *counselingListStub) GetByID(ctx context.Context, id string) (*models.CounselingCase, error) {
	return nil, sql.ErrNoRows
}

func (s *counselingListStub) List(ctx context.Context, filter models.CounselingFilter) ([]models.CounselingCase, error) {
	s.filters = append(s.filters, filter)
	return s.cases, nil
}

func (s *counselingListStub) Delete(ctx context.Context, id string) error { return nil }

type rosterStub struct {
	students map[string]*models.Student
}

func (s *rosterStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := s.students[id]; ok {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

func TestCounselingListAppliesFacetQuery(t *testing.T) {
	store := &counselingListStub{cases: []models.CounselingCase{
		{ID: "case-1", StudentID: "student-1", Department: "CCS", CourseYear: "BSIT-2"},
	}}
	svc := NewCounselingService(store, &rosterStub{}, &auditStub{}, &busStub{}, nil, nil)

	cases, err := svc.List(context.Background(), careStaffActor(), dto.CaseQuery{Course: "BSN"})
	require.NoError(t, err)
	require.Empty(t, cases)

	cases, err = svc.List(context.Background(), careStaffActor(), dto.CaseQuery{Course: "BSIT", YearLevel: "2"})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	require.Equal(t, "case-1", cases[0].ID)
}

func TestCounselingListScopesDepartmentActor(t *testing.T) {
	store := &counselingListStub{cases: []models.CounselingCase{
		{ID: "case-1", Department: "CCS", CourseYear: "BSIT-2"},
		{ID: "case-2", Department: "COE", CourseYear: "BSCE-1"},
	}}
	svc := NewCounselingService(store, &rosterStub{}, &auditStub{}, &busStub{}, nil, nil)

	actor := &models.JWTClaims{UserID: "dept-1", Role: models.RoleDepartment, Department: "CCS"}
	cases, err := svc.List(context.Background(), actor, dto.CaseQuery{})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	require.Equal(t, "case-1", cases[0].ID)

	require.Len(t, store.filters, 1)
	require.Equal(t, "CCS", store.filters[0].Department)
}
