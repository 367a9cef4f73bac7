package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-osa/care-desk-api/internal/models"
	"github.com/campus-osa/care-desk-api/internal/repository"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
	"github.com/campus-osa/care-desk-api/pkg/response"
)

type resetService interface {
	Reset(ctx context.Context, actor *models.JWTClaims) ([]repository.CollectionResult, error)
}

// AdminHandler exposes privileged maintenance endpoints.
type AdminHandler struct {
	reset resetService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(reset resetService) *AdminHandler {
	return &AdminHandler{reset: reset}
}

// Reset godoc
// @Summary Wipe all case collections
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reset [post]
func (h *AdminHandler) Reset(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	results, err := h.reset.Reset(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}
