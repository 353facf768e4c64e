package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"cleaning-session-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()
	if d.MaxPhotoBytes > 0 {
		r.MaxMultipartMemory = d.MaxPhotoBytes
	}

	handler := NewHandler(d)

	if d.RateLimit <= 0 {
		d.RateLimit = 10
	}
	if d.RateBurst <= 0 {
		d.RateBurst = 5
	}
	rateLimiter := mw.RateLimiter(rate.Limit(d.RateLimit), d.RateBurst)

	// Reference data only changes on restart.
	if d.CacheTTL <= 0 {
		d.CacheTTL = 5 * time.Minute
	}
	caching := mw.ReferenceCache(cache.New(d.CacheTTL, 2*d.CacheTTL))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/consumables", caching, handler.GetConsumables)
		api.GET("/properties", caching, handler.GetProperties)
		api.GET("/cleaners", caching, handler.GetCleaners)
		api.POST("/auth/pin", handler.SelectCleaner)
		api.GET("/cleaners/:id/active-timer", handler.HasActiveTimer)

		sessions := api.Group("/sessions")
		sessions.POST("", handler.StartSession)
		sessions.GET("/active", handler.ListActiveSessions)
		sessions.GET("/:id", handler.GetSession)
		sessions.GET("/:id/elapsed", handler.GetSession)
		sessions.GET("/:id/elapsed/stream", handler.StreamElapsed)
		sessions.POST("/:id/stop", handler.StopSession)
		sessions.POST("/:id/restart", handler.RestartSession)
		sessions.POST("/:id/helper/start", handler.StartHelper)
		sessions.POST("/:id/helper/stop", handler.StopHelper)
		sessions.POST("/:id/adjust", handler.AdjustTime)
		sessions.PATCH("/:id/consumables", handler.UpdateConsumables)
		sessions.POST("/:id/complete", handler.CompleteSession)

		api.GET("/completed", handler.ListCompleted)
		api.GET("/completed/:id", handler.GetCompleted)
		api.POST("/completed/sync", handler.SyncPending)

		api.POST("/reports", handler.CreateReport)
		api.GET("/reports", handler.ListReports)
		api.GET("/reports/:id", handler.GetReport)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		api.POST("/admin/reset", handler.ResetSessions)
	}

	return r
}
