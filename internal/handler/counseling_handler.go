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

type counselingService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateCounselingRequest) (*models.CounselingCase, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.CounselingCase, error)
	List(ctx context.Context, actor *models.JWTClaims, query dto.CaseQuery) ([]models.CounselingCase, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

type transitionExecutor interface {
	Execute(ctx context.Context, family workflow.Family, caseID string, actor *models.JWTClaims, req dto.TransitionRequest) (*dto.TransitionResult, error)
	AvailableActions(ctx context.Context, family workflow.Family, caseID string, actor *models.JWTClaims) ([]dto.AvailableAction, error)
}

// CounselingHandler exposes REST endpoints for counseling referrals.
type CounselingHandler struct {
	service     counselingService
	transitions transitionExecutor
}

// NewCounselingHandler constructs the handler.
func NewCounselingHandler(service counselingService, transitions transitionExecutor) *CounselingHandler {
	return &CounselingHandler{service: service, transitions: transitions}
}

// Create godoc
// @Summary Submit a counseling referral
// @Tags Counseling
// @Accept json
// @Produce json
// @Param payload body dto.CreateCounselingRequest true "Counseling submission"
// @Success 201 {object} response.Envelope
// @Router /counseling-cases [post]
func (h *CounselingHandler) Create(c *gin.Context) {
	var req dto.CreateCounselingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid counseling payload"))
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
// @Summary List counseling cases visible to the caller
// @Tags Counseling
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param search query string false "Name or description search"
// @Success 200 {object} response.Envelope
// @Router /counseling-cases [get]
func (h *CounselingHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	cases, err := h.service.List(c.Request.Context(), claims, caseQueryFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cases, nil)
}

// Get godoc
// @Summary Get one counseling case
// @Tags Counseling
// @Produce json
// @Param id path string true "Case identifier"
// @Success 200 {object} response.Envelope
// @Router /counseling-cases/{id} [get]
func (h *CounselingHandler) Get(c *gin.Context) {
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
// @Summary Execute a lifecycle action on a counseling case
// @Tags Counseling
// @Accept json
// @Produce json
// @Param id path string true "Case identifier"
// @Param payload body dto.TransitionRequest true "Requested action and payload"
// @Success 200 {object} response.Envelope
// @Router /counseling-cases/{id}/transitions [post]
func (h *CounselingHandler) Transition(c *gin.Context) {
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
	result, err := h.transitions.Execute(c.Request.Context(), workflow.FamilyCounseling, c.Param("id"), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Actions godoc
// @Summary List actions available on a counseling case
// @Tags Counseling
// @Produce json
// @Param id path string true "Case identifier"
// @Success 200 {object} response.Envelope
// @Router /counseling-cases/{id}/transitions [get]
func (h *CounselingHandler) Actions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	actions, err := h.transitions.AvailableActions(c.Request.Context(), workflow.FamilyCounseling, c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, actions, nil)
}

// Delete godoc
// @Summary Delete a counseling case
// @Tags Counseling
// @Produce json
// @Param id path string true "Case identifier"
// @Success 204 "No Content"
// @Router /counseling-cases/{id} [delete]
func (h *CounselingHandler) Delete(c *gin.Context) {
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
