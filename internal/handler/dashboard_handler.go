package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-osa/care-desk-api/internal/dto"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
	"github.com/campus-osa/care-desk-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context) (*dto.DashboardSummary, error)
	Acknowledge(department string, live int)
}

// DashboardHandler exposes live queue snapshots for staff.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Live queue counts per department
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/queues [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Acknowledge godoc
// @Summary Acknowledge a department queue at its current count
// @Tags Dashboard
// @Produce json
// @Param department path string true "Department code"
// @Param count query int true "Acknowledged live count"
// @Success 204 "No Content"
// @Router /dashboard/queues/{department}/ack [post]
func (h *DashboardHandler) Acknowledge(c *gin.Context) {
	count, err := strconv.Atoi(c.Query("count"))
	if err != nil || count < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "count must be a non-negative integer"))
		return
	}
	h.service.Acknowledge(c.Param("department"), count)
	response.NoContent(c)
}
