package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/middleware"
	"github.com/campus-osa/care-desk-api/internal/models"
	"github.com/campus-osa/care-desk-api/internal/workflow"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

type counselingServiceMock struct {
	createResp *models.CounselingCase
	createErr  error
	listResp   []models.CounselingCase
	listErr    error
	getResp    *models.CounselingCase
	getErr     error
	deleteErr  error
	lastQuery  dto.CaseQuery
	listCalled bool
}

func (m *counselingServiceMock) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateCounselingRequest) (*models.CounselingCase, error) {
	return m.createResp, m.createErr
}

func (m *counselingServiceMock) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.CounselingCase, error) {
	return m.getResp, m.getErr
}

func (m *counselingServiceMock) List(ctx context.Context, actor *models.JWTClaims, query dto.CaseQuery) ([]models.CounselingCase, error) {
	m.listCalled = true
	m.lastQuery = query
	return m.listResp, m.listErr
}

func (m *counselingServiceMock) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	return m.deleteErr
}

type transitionExecutorMock struct {
	result     *dto.TransitionResult
	execErr    error
	actions    []dto.AvailableAction
	actionsErr error
	lastFamily workflow.Family
	lastCaseID string
	lastReq    dto.TransitionRequest
}

func (m *transitionExecutorMock) Execute(ctx context.Context, family workflow.Family, caseID string, actor *models.JWTClaims, req dto.TransitionRequest) (*dto.TransitionResult, error) {
	m.lastFamily = family
	m.lastCaseID = caseID
	m.lastReq = req
	return m.result, m.execErr
}

func (m *transitionExecutorMock) AvailableActions(ctx context.Context, family workflow.Family, caseID string, actor *models.JWTClaims) ([]dto.AvailableAction, error) {
	m.lastFamily = family
	m.lastCaseID = caseID
	return m.actions, m.actionsErr
}

func careStaffContext(w *httptest.ResponseRecorder) (*gin.Context, *models.JWTClaims) {
	c, _ := gin.CreateTestContext(w)
	claims := &models.JWTClaims{UserID: "staff-1", Role: models.RoleCareStaff}
	c.Set(middleware.ContextUserKey, claims)
	return c, claims
}

func TestCounselingHandlerListParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &counselingServiceMock{listResp: []models.CounselingCase{{ID: "case-1"}}}
	handler := NewCounselingHandler(mockSvc, &transitionExecutorMock{})

	w := httptest.NewRecorder()
	c, _ := careStaffContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/counseling-cases?status=submitted,scheduled&search=reyes&limit=10", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.listCalled)
	assert.Equal(t, []string{"SUBMITTED", "SCHEDULED"}, mockSvc.lastQuery.Status)
	assert.Equal(t, "reyes", mockSvc.lastQuery.Search)
	assert.Equal(t, 10, mockSvc.lastQuery.Limit)
}

func TestCounselingHandlerListUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCounselingHandler(&counselingServiceMock{}, &transitionExecutorMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/counseling-cases", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCounselingHandlerTransitionRoutesToExecutor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockExec := &transitionExecutorMock{
		result: &dto.TransitionResult{CaseID: "case-1", From: "SUBMITTED", To: "SCHEDULED"},
	}
	handler := NewCounselingHandler(&counselingServiceMock{}, mockExec)

	w := httptest.NewRecorder()
	c, _ := careStaffContext(w)
	body := bytes.NewBufferString(`{"action":"SCHEDULE","scheduled_at":"2026-09-07T09:00:00Z"}`)
	req, _ := http.NewRequest(http.MethodPost, "/counseling-cases/case-1/transitions", body)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "case-1"}}

	handler.Transition(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, workflow.FamilyCounseling, mockExec.lastFamily)
	assert.Equal(t, "case-1", mockExec.lastCaseID)
	assert.Equal(t, "SCHEDULE", mockExec.lastReq.Action)
	require.NotNil(t, mockExec.lastReq.ScheduledAt)
}

func TestCounselingHandlerTransitionInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCounselingHandler(&counselingServiceMock{}, &transitionExecutorMock{})

	w := httptest.NewRecorder()
	c, _ := careStaffContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/counseling-cases/case-1/transitions", bytes.NewBufferString(`{"action":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "case-1"}}

	handler.Transition(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCounselingHandlerTransitionConflictStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockExec := &transitionExecutorMock{execErr: appErrors.ErrConflictDetected}
	handler := NewCounselingHandler(&counselingServiceMock{}, mockExec)

	w := httptest.NewRecorder()
	c, _ := careStaffContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/counseling-cases/case-1/transitions", bytes.NewBufferString(`{"action":"SCHEDULE"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "case-1"}}

	handler.Transition(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCounselingHandlerActions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockExec := &transitionExecutorMock{
		actions: []dto.AvailableAction{{Action: "SCHEDULE", To: "SCHEDULED"}},
	}
	handler := NewCounselingHandler(&counselingServiceMock{}, mockExec)

	w := httptest.NewRecorder()
	c, _ := careStaffContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/counseling-cases/case-1/transitions", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "case-1"}}

	handler.Actions(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "case-1", mockExec.lastCaseID)
}
