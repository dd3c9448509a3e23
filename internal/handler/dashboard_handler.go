package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-backoffice-api/internal/service"
	"github.com/noah-isme/school-backoffice-api/pkg/response"
)

// DashboardHandler serves the aggregated back-office summary.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @Summary Aggregated counters for the landing dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Refresh godoc
// @Summary Drop the cached summary so the next read recomputes it
// @Tags Dashboard
// @Produce json
// @Success 204
// @Router /dashboard/summary/refresh [post]
func (h *DashboardHandler) Refresh(c *gin.Context) {
	if err := h.dashboard.InvalidateCache(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
