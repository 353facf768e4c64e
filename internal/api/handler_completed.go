package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListCompleted handles GET /api/completed. One filter applies, in the order
// propertyId, cleanerId, today, pending.
func (h *Handler) ListCompleted(c *gin.Context) {
	switch {
	case c.Query("propertyId") != "":
		c.JSON(http.StatusOK, h.completed.ByProperty(c.Query("propertyId")))
	case c.Query("cleanerId") != "":
		c.JSON(http.StatusOK, h.completed.ByCleaner(c.Query("cleanerId")))
	case c.Query("today") == "1":
		c.JSON(http.StatusOK, h.completed.Today(h.now()))
	case c.Query("pending") == "1":
		c.JSON(http.StatusOK, h.completed.Pending())
	default:
		c.JSON(http.StatusOK, h.completed.All())
	}
}

// GetCompleted handles GET /api/completed/:id.
func (h *Handler) GetCompleted(c *gin.Context) {
	rec, ok := h.completed.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "completed session not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// SyncPending handles POST /api/completed/sync, the manual retry sweep.
func (h *Handler) SyncPending(c *gin.Context) {
	res := h.completed.SyncAllPending(context.WithoutCancel(c.Request.Context()))
	c.JSON(http.StatusOK, res)
}
