package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-osa/care-desk-api/internal/models"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
	"github.com/campus-osa/care-desk-api/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, actor *models.JWTClaims, filter models.NotificationFilter) ([]models.Notification, error)
	Count(ctx context.Context, actor *models.JWTClaims, studentID string) (int, error)
}

// NotificationHandler exposes the notification inbox.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List godoc
// @Summary List notifications for the caller
// @Tags Notifications
// @Produce json
// @Param student_id query string false "Student filter, staff only"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.NotificationFilter{StudentID: c.Query("student_id")}
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
	notifications, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// Count godoc
// @Summary Count notifications for one student
// @Tags Notifications
// @Produce json
// @Param student_id query string false "Student filter, staff only"
// @Success 200 {object} response.Envelope
// @Router /notifications/count [get]
func (h *NotificationHandler) Count(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	total, err := h.service.Count(c.Request.Context(), claims, c.Query("student_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": total}, nil)
}
