package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

func (h *Handler) rebuild(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.RebuildMatches(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       result.Message,
		"matches":       result.Matches,
		"total_matches": result.TotalMatches,
	})
}

func (h *Handler) projectMatches(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	matches, err := h.svc.GetProjectMatches(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "matches": matches, "total_matches": len(matches)})
}

func (h *Handler) vendorMatches(c *gin.Context) {
	vendorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	matches, err := h.svc.GetVendorMatches(c.Request.Context(), vendorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "matches": matches, "total_matches": len(matches)})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid id"})
		return 0, false
	}
	return id, true
}
