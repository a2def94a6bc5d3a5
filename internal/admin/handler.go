// Package admin exposes internal operational counters.
package admin

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"shadow7-backend/internal/requests"
	"shadow7-backend/internal/shared/server/respond"
)

// Handler serves admin statistics.
type Handler struct {
	Requests requests.Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo requests.Repo) *Handler {
	return &Handler{Requests: repo}
}

// RegisterRoutes attaches admin routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/stats", h.stats)
}

func (h *Handler) stats(c *gin.Context) {
	counts, err := h.Requests.CountByStatus(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load stats", nil)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	completed := counts[requests.StatusCompleted]

	denom := total
	if denom == 0 {
		denom = 1
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"total_requests": total,
		"completed":      completed,
		"pending":        counts[requests.StatusPending],
		"failed":         counts[requests.StatusFailed],
		"success_rate":   fmt.Sprintf("%.1f%%", float64(completed)/float64(denom)*100),
	})
}
