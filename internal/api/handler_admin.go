package api

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResetSessions handles POST /api/admin/reset. It discards every active
// session; completed sessions are kept.
func (h *Handler) ResetSessions(c *gin.Context) {
	token := c.GetHeader("X-Admin-Token")
	if h.adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := h.sessions.Reset(c.Request.Context()); err != nil {
		log.Printf("Error resetting sessions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		return
	}
	log.Println("Active sessions reset by admin request")
	c.Status(http.StatusNoContent)
}
