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

func newAdmissionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAdmissionRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newAdmissionRepoMock(t)
	defer cleanup()

	repo := NewAdmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO admission_applications")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	app := &models.AdmissionApplication{
		StudentID:      "student-1",
		ApplicantName:  "Mark Reyes",
		Email:          "mark@example.com",
		PriorityCourse: "BSCS",
		Department:     "CCS",
	}
	require.NoError(t, repo.Create(context.Background(), nil, app))
	require.Equal(t, models.AdmissionStatusForwardedChoice1, app.Status)
	require.Equal(t, 1, app.CurrentChoice)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryApplyTransitionCascade(t *testing.T) {
	db, mock, cleanup := newAdmissionRepoMock(t)
	defer cleanup()

	repo := NewAdmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE admission_applications SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	dept := "COE"
	err := repo.ApplyTransition(context.Background(), nil, AdmissionTransitionParams{
		ID:            "app-1",
		FromStatus:    models.AdmissionStatusForwardedChoice1,
		ToStatus:      models.AdmissionStatusForwardedChoice2,
		CurrentChoice: 2,
		Department:    &dept,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryApplyTransitionConflict(t *testing.T) {
	db, mock, cleanup := newAdmissionRepoMock(t)
	defer cleanup()

	repo := NewAdmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE admission_applications SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ApplyTransition(context.Background(), nil, AdmissionTransitionParams{
		ID:            "app-1",
		FromStatus:    models.AdmissionStatusInterviewScheduled,
		ToStatus:      models.AdmissionStatusApproved,
		CurrentChoice: 1,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRepositoryRecordAttendance(t *testing.T) {
	db, mock, cleanup := newAdmissionRepoMock(t)
	defer cleanup()

	repo := NewAdmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE admission_applications SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	in := time.Now()
	require.NoError(t, repo.RecordAttendance(context.Background(), "app-1", &in, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
