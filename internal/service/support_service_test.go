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

type supportListStub struct {
	cases []models.SupportCase
}

func (s *supportListStub) Create(ctx context.Context, q sqlx.ExtContext, c *models.SupportCase) error {
	return nil
}

func (s *supportListStub) GetByID(ctx context.Context, id string) (*models.SupportCase, error) {
	return nil, sql.ErrNoRows
}

func (s *supportListStub) List(ctx context.Context, filter models.SupportFilter) ([]models.SupportCase, error) {
	return s.cases, nil
}

func (s *supportListStub) Delete(ctx context.Context, id string) error { return nil }

func TestSupportListAppliesFacetQuery(t *testing.T) {
	store := &supportListStub{cases: []models.SupportCase{
		{ID: "case-1", Department: "CCS"},
		{ID: "case-2", Department: "COE"},
	}}
	svc := NewSupportService(store, &auditStub{}, &busStub{}, nil, nil)

	cases, err := svc.List(context.Background(), careStaffActor(), dto.CaseQuery{})
	require.NoError(t, err)
	require.Len(t, cases, 2)

	// Support requests carry no roster attributes, so a facet never matches.
	cases, err = svc.List(context.Background(), careStaffActor(), dto.CaseQuery{Course: "BSIT"})
	require.NoError(t, err)
	require.Empty(t, cases)
}
