package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"custody-ledger-backend/internal/model"
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

// WorkerPool manages a pool of workers notifying subscribers about custody
// transfers. Jobs are item ids of freshly committed transfers; the worker
// re-reads the ledger for the current owner and station, so a late delivery
// still reports the truth.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// SetSender overrides the sender; tests use this to capture payloads.
func (wp *WorkerPool) SetSender(s NotificationSender) {
	wp.sender = s
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case itemID := <-wp.jobs:
			log.Printf("Worker %d processing item %d", id, itemID)
			wp.sendNotificationsForItem(ctx, itemID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(itemID int64) {
	wp.jobs <- itemID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// sendNotificationsForItem fetches subscriptions watching the item and tells
// each one who holds the item now.
func (wp *WorkerPool) sendNotificationsForItem(ctx context.Context, itemID int64) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_item_mapping sim ON sim.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sim.item_id = ?", itemID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for item %d: %v", itemID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for item %d", len(subscriptions), itemID)

	itemLabel := fmt.Sprintf("%d", itemID)
	var item model.Item
	if err := wp.db.WithContext(ctx).
		Select("name").
		First(&item, itemID).Error; err != nil {
		log.Printf("Error fetching item %d: %v", itemID, err)
	} else if item.Name != "" {
		itemLabel = item.Name
	}

	var latest model.CustodyEvent
	err = wp.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("recorded_at DESC, id DESC").
		First(&latest).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Error fetching latest custody event for item %d: %v", itemID, err)
		}
		return
	}

	message := fmt.Sprintf("Custody of %s transferred to %s", itemLabel, latest.Owner)
	if latest.Station != nil {
		message = fmt.Sprintf("%s at %s", message, *latest.Station)
	}

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
