package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campus-osa/care-desk-api/internal/models"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
	"github.com/campus-osa/care-desk-api/pkg/response"
)

type auditReadService interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	service auditReadService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service auditReadService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List godoc
// @Summary List audit log entries
// @Tags Audit
// @Produce json
// @Param user_id query string false "Acting user filter"
// @Param action query string false "Action filter"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.AuditFilter{
		UserID: c.Query("user_id"),
		Action: strings.ToUpper(strings.TrimSpace(c.Query("action"))),
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			filter.Offset = offset
		}
	}
	logs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
