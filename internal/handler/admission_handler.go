package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/models"
	"github.com/campus-osa/care-desk-api/internal/workflow"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
	"github.com/campus-osa/care-desk-api/pkg/response"
)

type admissionService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateAdmissionRequest) (*models.AdmissionApplication, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.AdmissionApplication, error)
	List(ctx context.Context, actor *models.JWTClaims, query dto.CaseQuery) ([]models.AdmissionApplication, error)
	RecordAttendance(ctx context.Context, actor *models.JWTClaims, id string, req dto.AttendanceRequest) (*models.AdmissionApplication, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// AdmissionHandler exposes REST endpoints for admission applications.
type AdmissionHandler struct {
	service     admissionService
	transitions transitionExecutor
}

// NewAdmissionHandler constructs the handler.
func NewAdmissionHandler(service admissionService, transitions transitionExecutor) *AdmissionHandler {
	return &AdmissionHandler{service: service, transitions: transitions}
}

// Create godoc
// @Summary Submit an admission application
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body dto.CreateAdmissionRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Router /admission-applications [post]
func (h *AdmissionHandler) Create(c *gin.Context) {
	var req dto.CreateAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid admission payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	created, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, created, nil)
}

// List godoc
// @Summary List admission applications visible to the caller
// @Tags Admissions
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param search query string false "Applicant or course search"
// @Success 200 {object} response.Envelope
// @Router /admission-applications [get]
func (h *AdmissionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	apps, err := h.service.List(c.Request.Context(), claims, caseQueryFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, nil)
}

// Get godoc
// @Summary Get one admission application
// @Tags Admissions
// @Produce json
// @Param id path string true "Application identifier"
// @Success 200 {object} response.Envelope
// @Router /admission-applications/{id} [get]
func (h *AdmissionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	found, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, found, nil)
}

// Transition godoc
// @Summary Execute a lifecycle action on an admission application
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Application identifier"
// @Param payload body dto.TransitionRequest true "Requested action and payload"
// @Success 200 {object} response.Envelope
// @Router /admission-applications/{id}/transitions [post]
func (h *AdmissionHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid transition payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.transitions.Execute(c.Request.Context(), workflow.FamilyAdmission, c.Param("id"), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Actions godoc
// @Summary List actions available on an admission application
// @Tags Admissions
// @Produce json
// @Param id path string true "Application identifier"
// @Success 200 {object} response.Envelope
// @Router /admission-applications/{id}/transitions [get]
func (h *AdmissionHandler) Actions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	actions, err := h.transitions.AvailableActions(c.Request.Context(), workflow.FamilyAdmission, c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, actions, nil)
}

// Attendance godoc
// @Summary Stamp interview attendance on an application
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Application identifier"
// @Param payload body dto.AttendanceRequest true "Attendance stamps"
// @Success 200 {object} response.Envelope
// @Router /admission-applications/{id}/attendance [post]
func (h *AdmissionHandler) Attendance(c *gin.Context) {
	var req dto.AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid attendance payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	app, err := h.service.RecordAttendance(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Delete godoc
// @Summary Delete an admission application
// @Tags Admissions
// @Produce json
// @Param id path string true "Application identifier"
// @Success 204 "No Content"
// @Router /admission-applications/{id} [delete]
func (h *AdmissionHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
