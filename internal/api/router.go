package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"parking-status-backend/config"
	"parking-status-backend/internal/feed"
	"parking-status-backend/internal/mw"
	"parking-status-backend/internal/notification"
	"parking-status-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s *store.Store, db *gorm.DB, feedSvc *feed.Service, pool *notification.WorkerPool, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, db, feedSvc, pool, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst, cfg.Server.RequestIPHeader)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// The locations catalog changes per booking, so a short cache is
		// fine; the spot grid carries the live overlay and is never cached.
		api.GET("/locations", caching, handler.GetLocations)
		api.GET("/locations/:location_id/spots", handler.GetSpots)
		api.PATCH("/locations/:location_id/spots/:spot_id", handler.SetSpotTaken)

		api.POST("/sessions", handler.CreateSession)
		api.GET("/sessions", handler.GetSessions)
		api.GET("/sessions/active", handler.GetActiveSession)
		api.GET("/sessions/:session_id/remaining", handler.GetRemainingTime)

		api.GET("/feed/status", handler.GetFeedStatus)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
