package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/models"
	"github.com/campus-osa/care-desk-api/internal/realtime"
	"github.com/campus-osa/care-desk-api/internal/repository"
	"github.com/campus-osa/care-desk-api/internal/workflow"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

type counselingStoreStub struct {
	cases       map[string]*models.CounselingCase
	applyErr    error
	transitions []repository.CounselingTransitionParams
	created     []*models.CounselingCase
}

func newCounselingStoreStub() *counselingStoreStub {
	return &counselingStoreStub{cases: make(map[string]*models.CounselingCase)}
}

func (s *counselingStoreStub) GetByID(ctx context.Context, id string) (*models.CounselingCase, error) {
	if c, ok := s.cases[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *counselingStoreStub) Create(ctx context.Context, q sqlx.ExtContext, c *models.CounselingCase) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = models.CounselingStatusSubmitted
	}
	s.created = append(s.created, c)
	s.cases[c.ID] = c
	return nil
}

func (s *counselingStoreStub) ApplyTransition(ctx context.Context, q sqlx.ExtContext, params repository.CounselingTransitionParams) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.transitions = append(s.transitions, params)
	c, ok := s.cases[params.ID]
	if !ok || c.Status != params.FromStatus {
		return sql.ErrNoRows
	}
	c.Status = params.ToStatus
	return nil
}

type notificationStub struct {
	notifications []*models.Notification
	err           error
}

func (s *notificationStub) Create(ctx context.Context, q sqlx.ExtContext, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.notifications = append(s.notifications, n)
	return nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (s *auditStub) Create(ctx context.Context, q sqlx.ExtContext, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type busStub struct {
	events []realtime.Event
	err    error
}

func (s *busStub) Publish(event realtime.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func newExecutorFixture(t *testing.T) (*TransitionService, *counselingStoreStub, *notificationStub, *auditStub, *busStub, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	store := newCounselingStoreStub()
	notifications := &notificationStub{}
	audits := &auditStub{}
	bus := &busStub{}
	svc := NewTransitionService(sqlx.NewDb(db, "sqlmock"), notifications, audits, bus, nil, NewCounselingAdapter(store))
	return svc, store, notifications, audits, bus, mock, func() { db.Close() }
}

func careStaffActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "staff-1", Role: models.RoleCareStaff, FullName: "Care Staff"}
}

func seedCounselingCase(store *counselingStoreStub, status models.CounselingStatus) *models.CounselingCase {
	c := &models.CounselingCase{
		ID:          "case-1",
		StudentID:   "student-1",
		StudentName: "Jane Cruz",
		Department:  "CCS",
		RequestType: "ACADEMIC",
		Description: "needs guidance",
		Status:      status,
	}
	store.cases[c.ID] = c
	return c
}

func TestTransitionExecuteHappyPath(t *testing.T) {
	svc, store, notifications, audits, bus, mock, cleanup := newExecutorFixture(t)
	defer cleanup()
	seedCounselingCase(store, models.CounselingStatusSubmitted)

	mock.ExpectBegin()
	mock.ExpectCommit()

	when := time.Now().Add(48 * time.Hour)
	result, err := svc.Execute(context.Background(), workflow.FamilyCounseling, "case-1", careStaffActor(), dto.TransitionRequest{
		Action:      string(workflow.ActionSchedule),
		ScheduledAt: &when,
	})
	require.NoError(t, err)
	require.Equal(t, string(models.CounselingStatusSubmitted), result.From)
	require.Equal(t, string(models.CounselingStatusScheduled), result.To)

	require.Len(t, notifications.notifications, 1)
	require.Equal(t, "student-1", notifications.notifications[0].StudentID)
	require.Len(t, audits.logs, 1)
	require.Equal(t, models.AuditActionCaseTransition, audits.logs[0].Action)
	require.Len(t, bus.events, 1)
	require.Equal(t, realtime.KindUpdated, bus.events[0].Kind)
	require.Equal(t, string(workflow.FamilyCounseling), bus.events[0].Collection)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionExecuteIllegalAction(t *testing.T) {
	svc, store, notifications, _, bus, _, cleanup := newExecutorFixture(t)
	defer cleanup()
	seedCounselingCase(store, models.CounselingStatusSubmitted)

	_, err := svc.Execute(context.Background(), workflow.FamilyCounseling, "case-1", careStaffActor(), dto.TransitionRequest{
		Action: string(workflow.ActionComplete),
		Notes:  "done",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrIllegalTransition.Code, appErr.Code)
	require.Empty(t, notifications.notifications)
	require.Empty(t, bus.events)
}

func TestTransitionExecuteGuardFailure(t *testing.T) {
	svc, store, _, _, _, _, cleanup := newExecutorFixture(t)
	defer cleanup()
	seedCounselingCase(store, models.CounselingStatusSubmitted)

	_, err := svc.Execute(context.Background(), workflow.FamilyCounseling, "case-1", careStaffActor(), dto.TransitionRequest{
		Action: string(workflow.ActionSchedule),
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrGuardFailed.Code, appErr.Code)
}

func TestTransitionExecuteRoleForbidden(t *testing.T) {
	svc, store, _, _, _, _, cleanup := newExecutorFixture(t)
	defer cleanup()
	seedCounselingCase(store, models.CounselingStatusSubmitted)

	student := &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}
	when := time.Now().Add(time.Hour)
	_, err := svc.Execute(context.Background(), workflow.FamilyCounseling, "case-1", student, dto.TransitionRequest{
		Action:      string(workflow.ActionSchedule),
		ScheduledAt: &when,
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestTransitionExecuteDepartmentScoping(t *testing.T) {
	svc, store, _, _, _, _, cleanup := newExecutorFixture(t)
	defer cleanup()
	seedCounselingCase(store, models.CounselingStatusSubmitted)

	reviewer := &models.JWTClaims{UserID: "rev-1", Role: models.RoleDepartment, Department: "COE", FullName: "Reviewer"}
	when := time.Now().Add(time.Hour)
	_, err := svc.Execute(context.Background(), workflow.FamilyCounseling, "case-1", reviewer, dto.TransitionRequest{
		Action:      string(workflow.ActionSchedule),
		ScheduledAt: &when,
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestTransitionExecuteConflict(t *testing.T) {
	svc, store, notifications, _, bus, mock, cleanup := newExecutorFixture(t)
	defer cleanup()
	seedCounselingCase(store, models.CounselingStatusSubmitted)
	store.applyErr = sql.ErrNoRows

	mock.ExpectBegin()
	mock.ExpectRollback()

	when := time.Now().Add(time.Hour)
	_, err := svc.Execute(context.Background(), workflow.FamilyCounseling, "case-1", careStaffActor(), dto.TransitionRequest{
		Action:      string(workflow.ActionSchedule),
		ScheduledAt: &when,
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrConflictDetected.Code, appErr.Code)
	require.Empty(t, notifications.notifications)
	require.Empty(t, bus.events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionExecuteReferSpawnsFollowUp(t *testing.T) {
	svc, store, _, _, bus, mock, cleanup := newExecutorFixture(t)
	defer cleanup()
	seedCounselingCase(store, models.CounselingStatusScheduled)

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Execute(context.Background(), workflow.FamilyCounseling, "case-1", careStaffActor(), dto.TransitionRequest{
		Action: string(workflow.ActionRefer),
		Reason: "needs specialist care",
	})
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	require.Equal(t, CareDepartment, store.created[0].Department)
	require.Equal(t, models.CounselingStatusSubmitted, store.created[0].Status)

	require.Len(t, bus.events, 2)
	require.Equal(t, realtime.KindUpdated, bus.events[0].Kind)
	require.Equal(t, realtime.KindInserted, bus.events[1].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionExecuteUnknownCase(t *testing.T) {
	svc, _, _, _, _, _, cleanup := newExecutorFixture(t)
	defer cleanup()

	_, err := svc.Execute(context.Background(), workflow.FamilyCounseling, "missing", careStaffActor(), dto.TransitionRequest{
		Action: string(workflow.ActionSchedule),
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAvailableActionsFiltersByRole(t *testing.T) {
	svc, store, _, _, _, _, cleanup := newExecutorFixture(t)
	defer cleanup()
	seedCounselingCase(store, models.CounselingStatusSubmitted)

	actions, err := svc.AvailableActions(context.Background(), workflow.FamilyCounseling, "case-1", careStaffActor())
	require.NoError(t, err)
	require.Len(t, actions, 2)

	student := &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}
	actions, err = svc.AvailableActions(context.Background(), workflow.FamilyCounseling, "case-1", student)
	require.NoError(t, err)
	require.Empty(t, actions)
}
