package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cleaning-session-backend/internal/catalog"
	"cleaning-session-backend/internal/completion"
	"cleaning-session-backend/internal/report"
	"cleaning-session-backend/internal/session"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Sessions      *session.Manager
	Completed     *completion.Pipeline
	Catalog       *catalog.Catalog
	Reports       *report.Service
	DB            *gorm.DB
	WebPush       *webpush.Options
	AdminToken    string
	MaxPhotoBytes int64
	CacheTTL      time.Duration
	RateLimit     float64
	RateBurst     int
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	sessions      *session.Manager
	completed     *completion.Pipeline
	catalog       *catalog.Catalog
	reports       *report.Service
	db            *gorm.DB
	webpush       *webpush.Options
	adminToken    string
	maxPhotoBytes int64
	now           func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		sessions:      d.Sessions,
		completed:     d.Completed,
		catalog:       d.Catalog,
		reports:       d.Reports,
		db:            d.DB,
		webpush:       d.WebPush,
		adminToken:    d.AdminToken,
		maxPhotoBytes: d.MaxPhotoBytes,
		now:           time.Now,
	}
}

// sessionError maps guard rejections from the session core onto HTTP statuses.
func sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrCleanerBusy), errors.Is(err, session.ErrInvalidState), errors.Is(err, session.ErrHelperRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrNegativeDuration), errors.Is(err, session.ErrOutOfRange):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrNegativeQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("Unexpected session error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
