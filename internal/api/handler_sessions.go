package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cleaning-session-backend/internal/model"
	"cleaning-session-backend/internal/timer"
)

// sessionResponse is a session plus its timers evaluated at response time.
type sessionResponse struct {
	*model.CleaningSession
	ElapsedMs       int64   `json:"elapsedMs"`
	HelperElapsedMs int64   `json:"helperElapsedMs"`
	Running         bool    `json:"running"`
	ConsumablesCost float64 `json:"consumablesCost"`
}

func (h *Handler) view(s *model.CleaningSession) sessionResponse {
	now := h.now()
	return sessionResponse{
		CleaningSession: s,
		ElapsedMs:       timer.Elapsed(s, now).Milliseconds(),
		HelperElapsedMs: timer.HelperElapsed(s, now).Milliseconds(),
		Running:         timer.Running(s),
		ConsumablesCost: h.catalog.Cost(s.Consumables),
	}
}

func (h *Handler) views(list []*model.CleaningSession) []sessionResponse {
	out := make([]sessionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, h.view(s))
	}
	return out
}

type startSessionRequest struct {
	PropertyID string `json:"propertyId" binding:"required"`
	CleanerID  string `json:"cleanerId" binding:"required"`
}

// StartSession handles POST /api/sessions.
func (h *Handler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property, ok := h.catalog.Property(req.PropertyID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if _, ok := h.catalog.Cleaner(req.CleanerID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "cleaner not found"})
		return
	}

	s, err := h.sessions.Start(c.Request.Context(), req.PropertyID, req.CleanerID, property)
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.view(s))
}

// ListActiveSessions handles GET /api/sessions/active.
func (h *Handler) ListActiveSessions(c *gin.Context) {
	switch {
	case c.Query("propertyId") != "":
		c.JSON(http.StatusOK, h.views(h.sessions.ActiveForProperty(c.Query("propertyId"))))
	case c.Query("cleanerId") != "":
		c.JSON(http.StatusOK, h.views(h.sessions.ActiveForCleaner(c.Query("cleanerId"))))
	default:
		c.JSON(http.StatusOK, h.views(h.sessions.Active()))
	}
}

// GetSession handles GET /api/sessions/:id and GET /api/sessions/:id/elapsed.
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// HasActiveTimer handles GET /api/cleaners/:id/active-timer.
func (h *Handler) HasActiveTimer(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"active": h.sessions.HasActiveTimer(c.Param("id"))})
}

type sessionOp func(ctx context.Context, id string) (*model.CleaningSession, error)

func (h *Handler) transition(op sessionOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := op(c.Request.Context(), c.Param("id"))
		if err != nil {
			sessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, h.view(s))
	}
}

// StopSession handles POST /api/sessions/:id/stop.
func (h *Handler) StopSession(c *gin.Context) { h.transition(h.sessions.Stop)(c) }

// RestartSession handles POST /api/sessions/:id/restart.
func (h *Handler) RestartSession(c *gin.Context) { h.transition(h.sessions.Restart)(c) }

// StopHelper handles POST /api/sessions/:id/helper/stop.
func (h *Handler) StopHelper(c *gin.Context) { h.transition(h.sessions.StopHelper)(c) }

// StartHelper handles POST /api/sessions/:id/helper/start. A running helper
// is rejected; restarting it would silently drop its open segment.
func (h *Handler) StartHelper(c *gin.Context) { h.transition(h.sessions.StartIdleHelper)(c) }

type adjustRequest struct {
	Target  string `json:"target" binding:"required,oneof=cleaner helper"`
	Minutes int    `json:"minutes" binding:"min=-10080,max=10080"`
}

// AdjustTime handles POST /api/sessions/:id/adjust.
func (h *Handler) AdjustTime(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adjust := h.sessions.AdjustCleanerTime
	if req.Target == "helper" {
		adjust = h.sessions.AdjustHelperTime
	}
	s, err := adjust(c.Request.Context(), c.Param("id"), req.Minutes)
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// UpdateConsumables handles PATCH /api/sessions/:id/consumables.
func (h *Handler) UpdateConsumables(c *gin.Context) {
	var req map[string]int
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for item := range req {
		if _, ok := h.catalog.Item(item); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown consumable " + item})
			return
		}
	}

	s, err := h.sessions.UpdateConsumables(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// CompleteSession handles POST /api/sessions/:id/complete. The session leaves
// the active set before delivery is attempted; delivery failures still
// return 200 with the record marked failed.
func (h *Handler) CompleteSession(c *gin.Context) {
	ctx := c.Request.Context()
	s, err := h.sessions.Complete(ctx, c.Param("id"), h.now())
	if err != nil {
		sessionError(c, err)
		return
	}

	cleaner, ok := h.catalog.Cleaner(s.CleanerID)
	if !ok {
		cleaner = model.CleanerSnapshot{ID: s.CleanerID}
	}

	// Delivery must not be cut short by the client going away.
	rec, err := h.completed.Add(context.WithoutCancel(ctx), s, s.PropertySnapshot, cleaner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// StreamElapsed handles GET /api/sessions/:id/elapsed/stream as server-sent
// events: one immediately, then one per second while a timer runs.
func (h *Handler) StreamElapsed(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.sessions.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	h.pollElapsed(c.Request.Context(), id, timer.PollInterval, func(event string, data any) {
		c.SSEvent(event, data)
		c.Writer.Flush()
	})
}

func (h *Handler) pollElapsed(ctx context.Context, id string, interval time.Duration, emit func(event string, data any)) {
	timer.Poll(ctx, interval, func(time.Time) bool {
		s, ok := h.sessions.Get(id)
		if !ok {
			emit("gone", gin.H{"id": id})
			return false
		}
		emit("elapsed", h.view(s))
		return timer.Running(s)
	})
}
