package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetConsumables handles GET /api/consumables.
func (h *Handler) GetConsumables(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Items())
}

// GetProperties handles GET /api/properties.
func (h *Handler) GetProperties(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Properties())
}

// GetCleaners handles GET /api/cleaners.
func (h *Handler) GetCleaners(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Cleaners())
}

type pinRequest struct {
	CleanerID string `json:"cleanerId" binding:"required"`
	PIN       string `json:"pin" binding:"required"`
}

// SelectCleaner handles POST /api/auth/pin.
func (h *Handler) SelectCleaner(c *gin.Context) {
	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cleaner, ok := h.catalog.Authenticate(req.CleanerID, req.PIN)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid cleaner or PIN"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cleaner":        cleaner,
		"hasActiveTimer": h.sessions.HasActiveTimer(cleaner.ID),
		"sessions":       h.views(h.sessions.ActiveForCleaner(cleaner.ID)),
	})
}
