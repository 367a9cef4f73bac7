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

type supportService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateSupportRequest) (*models.SupportCase, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.SupportCase, error)
	List(ctx context.Context, actor *models.JWTClaims, query dto.CaseQuery) ([]models.SupportCase, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// SupportHandler exposes REST endpoints for support-needs cases.
type SupportHandler struct {
	service     supportService
	transitions transitionExecutor
}

// NewSupportHandler constructs the handler.
func NewSupportHandler(service supportService, transitions transitionExecutor) *SupportHandler {
	return &SupportHandler{service: service, transitions: transitions}
}

// Create godoc
// @Summary Submit a support-needs request
// @Tags Support
// @Accept json
// @Produce json
// @Param payload body dto.CreateSupportRequest true "Support submission"
// @Success 201 {object} response.Envelope
// @Router /support-cases [post]
func (h *SupportHandler) Create(c *gin.Context) {
	var req dto.CreateSupportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid support payload"))
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
// @Summary List support cases visible to the caller
// @Tags Support
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param search query string false "Name or description search"
// @Success 200 {object} response.Envelope
// @Router /support-cases [get]
func (h *SupportHandler) List(c *gin.Context) {
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
// @Summary Get one support case
// @Tags Support
// @Produce json
// @Param id path string true "Case identifier"
// @Success 200 {object} response.Envelope
// @Router /support-cases/{id} [get]
func (h *SupportHandler) Get(c *gin.Context) {
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
// @Summary Execute a lifecycle action on a support case
// @Tags Support
// @Accept json
// @Produce json
// @Param id path string true "Case identifier"
// @Param payload body dto.TransitionRequest true "Requested action and payload"
// @Success 200 {object} response.Envelope
// @Router /support-cases/{id}/transitions [post]
func (h *SupportHandler) Transition(c *gin.Context) {
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
	result, err := h.transitions.Execute(c.Request.Context(), workflow.FamilySupport, c.Param("id"), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Actions godoc
// @Summary List actions available on a support case
// @Tags Support
// @Produce json
// @Param id path string true "Case identifier"
// @Success 200 {object} response.Envelope
// @Router /support-cases/{id}/transitions [get]
func (h *SupportHandler) Actions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	actions, err := h.transitions.AvailableActions(c.Request.Context(), workflow.FamilySupport, c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, actions, nil)
}

// Delete godoc
// @Summary Delete a support case
// @Tags Support
// @Produce json
// @Param id path string true "Case identifier"
// @Success 204 "No Content"
// @Router /support-cases/{id} [delete]
func (h *SupportHandler) Delete(c *gin.Context) {
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
