package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"parking-status-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// LocationNamer resolves a location ID to its display metadata. The spot
// registry satisfies this.
type LocationNamer interface {
	Location(locationID string) (model.Location, bool)
}

// WorkerPool manages a pool of workers that push availability alerts to
// subscribers watching a location.
type WorkerPool struct {
	size      int
	jobs      chan string
	db        *gorm.DB
	locations LocationNamer
	webpush   *webpush.Options
	sender    NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, locations LocationNamer, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:      size,
		jobs:      make(chan string, size), // Buffered channel
		db:        db,
		locations: locations,
		webpush:   webpushOptions,
		sender:    &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case locationID := <-wp.jobs:
			log.Printf("Worker %d processing location %s", id, locationID)
			wp.sendNotificationsForLocation(ctx, locationID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an availability alert for a location.
func (wp *WorkerPool) Dispatch(locationID string) {
	wp.jobs <- locationID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

// sendNotificationsForLocation fetches subscriptions watching a location and
// notifies each of them.
func (wp *WorkerPool) sendNotificationsForLocation(ctx context.Context, locationID string) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_locations sl ON sl.endpoint = push_subscriptions.endpoint").
		Where("sl.location_id = ?", locationID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for location %s: %v", locationID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for location %s", len(subscriptions), locationID)

	label := locationID
	if wp.locations != nil {
		if loc, ok := wp.locations.Location(locationID); ok && loc.Name != "" {
			label = loc.Name
		}
	}

	message := fmt.Sprintf("A parking spot just opened up at %s!", label)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
