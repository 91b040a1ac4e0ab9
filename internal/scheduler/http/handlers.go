package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expanders360/vendor-match-backend/internal/scheduler/domain"
	"github.com/expanders360/vendor-match-backend/internal/scheduler/repository"
)

// Handler exposes the job-run tracker for operators.
type Handler struct {
	runs *repository.RunRepository
}

func New(runs *repository.RunRepository) *Handler {
	return &Handler{runs: runs}
}

func (h *Handler) latestRun(c *gin.Context) {
	job := c.Param("job")
	switch job {
	case domain.JobMatchRefresh, domain.JobSlaCheck, domain.JobHealthSweep:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown job"})
		return
	}

	run, err := h.runs.GetLatest(c.Request.Context(), job)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "no runs recorded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "run": run})
}

// Register attaches job-run routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/:job/latest", h.latestRun)
}
