package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"parking-status-backend/internal/feed"
	"parking-status-backend/internal/notification"
	"parking-status-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   *store.Store
	db      *gorm.DB
	feed    *feed.Service
	pool    *notification.WorkerPool
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s *store.Store, db *gorm.DB, feedSvc *feed.Service, pool *notification.WorkerPool, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		db:      db,
		feed:    feedSvc,
		pool:    pool,
		webpush: webpushOptions,
	}
}
