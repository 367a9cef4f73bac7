package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-osa/care-desk-api/pkg/response"
)

type liveViewService interface {
	Snapshot(collection string) ([]json.RawMessage, error)
}

// LiveHandler serves reconciled collection snapshots for staff dashboards.
type LiveHandler struct {
	views liveViewService
}

// NewLiveHandler constructs the handler.
func NewLiveHandler(views liveViewService) *LiveHandler {
	return &LiveHandler{views: views}
}

// Snapshot godoc
// @Summary Recency-ordered live snapshot of one collection
// @Tags Dashboard
// @Produce json
// @Param collection path string true "Collection name"
// @Success 200 {object} response.Envelope
// @Router /dashboard/live/{collection} [get]
func (h *LiveHandler) Snapshot(c *gin.Context) {
	records, err := h.views.Snapshot(c.Param("collection"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
