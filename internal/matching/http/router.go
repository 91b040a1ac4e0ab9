package http

import "github.com/gin-gonic/gin"

// Register attaches matching routes to the given router groups.
func (h *Handler) Register(projects, vendors *gin.RouterGroup) {
	projects.POST("/:id/matches/rebuild", h.rebuild)
	projects.GET("/:id/matches", h.projectMatches)
	vendors.GET("/:id/matches", h.vendorMatches)
}
