package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expanders360/vendor-match-backend/internal/analytics/service"
)

// Handler bundles the dependencies for analytics HTTP endpoints.
type Handler struct {
	svc *service.AnalyticsService
}

func New(svc *service.AnalyticsService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) topVendors(c *gin.Context) {
	analytics, err := h.svc.TopVendorsByCountry(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "analytics": analytics})
}

// Register attaches analytics routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/top-vendors", h.topVendors)
}
