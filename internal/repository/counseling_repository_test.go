package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campus-osa/care-desk-api/internal/models"
)

func newCounselingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCounselingRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newCounselingRepoMock(t)
	defer cleanup()

	repo := NewCounselingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO counseling_cases")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c := &models.CounselingCase{
		StudentID:     "student-1",
		StudentName:   "Jane Cruz",
		CourseYear:    "BSIT-2",
		ContactNumber: "09170000001",
		Department:    "CARE",
		RequestType:   "ACADEMIC",
		Description:   "needs guidance",
	}
	require.NoError(t, repo.Create(context.Background(), nil, c))
	require.NotEmpty(t, c.ID)
	require.Equal(t, models.CounselingStatusSubmitted, c.Status)

	rows := sqlmock.NewRows([]string{"id", "student_id", "student_name", "course_year", "contact_number", "department", "request_type", "description", "status", "scheduled_at", "resolution_notes", "referred_by", "referrer_signature", "created_at", "updated_at"}).
		AddRow(c.ID, "student-1", "Jane Cruz", "BSIT-2", "09170000001", "CARE", "ACADEMIC", "needs guidance", "SUBMITTED", nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, student_name")).
		WithArgs(c.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCounselingRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newCounselingRepoMock(t)
	defer cleanup()

	repo := NewCounselingRepository(db)
	rows := sqlmock.NewRows([]string{"id", "student_id", "student_name", "course_year", "contact_number", "department", "request_type", "description", "status", "scheduled_at", "resolution_notes", "referred_by", "referrer_signature", "created_at", "updated_at"}).
		AddRow("case-1", "student-1", "Jane Cruz", "BSIT-2", "09170000001", "CARE", "ACADEMIC", "needs guidance", "SUBMITTED", nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, student_name")).
		WithArgs("SUBMITTED", "CARE").
		WillReturnRows(rows)

	cases, err := repo.List(context.Background(), models.CounselingFilter{
		Status:     []models.CounselingStatus{models.CounselingStatusSubmitted},
		Department: "CARE",
	})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCounselingRepositoryApplyTransitionConflict(t *testing.T) {
	db, mock, cleanup := newCounselingRepoMock(t)
	defer cleanup()

	repo := NewCounselingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE counseling_cases SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	when := time.Now().Add(24 * time.Hour)
	err := repo.ApplyTransition(context.Background(), nil, CounselingTransitionParams{
		ID:          "case-1",
		FromStatus:  models.CounselingStatusSubmitted,
		ToStatus:    models.CounselingStatusScheduled,
		ScheduledAt: &when,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCounselingRepositoryApplyTransitionSuccess(t *testing.T) {
	db, mock, cleanup := newCounselingRepoMock(t)
	defer cleanup()

	repo := NewCounselingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE counseling_cases SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	notes := "session held"
	err := repo.ApplyTransition(context.Background(), nil, CounselingTransitionParams{
		ID:              "case-1",
		FromStatus:      models.CounselingStatusScheduled,
		ToStatus:        models.CounselingStatusCompleted,
		ResolutionNotes: &notes,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
