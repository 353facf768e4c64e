package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"cleaning-session-backend/internal/booking"
	"cleaning-session-backend/internal/model"
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

// ReportSubmitter forwards reports to the booking system.
type ReportSubmitter interface {
	Configured() bool
	SubmitReport(ctx context.Context, p booking.ReportPayload) booking.SyncResult
}

// PropertyLookup resolves property display names and record ids.
type PropertyLookup interface {
	Property(id string) (model.PropertySnapshot, bool)
}

// WorkerPool delivers stored reports to the booking system and alerts
// subscribed manager devices.
type WorkerPool struct {
	size       int
	jobs       chan string
	db         *gorm.DB
	webpush    *webpush.Options
	sender     NotificationSender
	remote     ReportSubmitter
	properties PropertyLookup
	startedAt  time.Time
}

// NewWorkerPool creates a new worker pool. A nil webpushOptions disables push alerts.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, remote ReportSubmitter, properties PropertyLookup) *WorkerPool {
	return &WorkerPool{
		size:       size,
		jobs:       make(chan string, size), // Buffered channel
		db:         db,
		webpush:    webpushOptions,
		sender:     &WebPushSender{}, // Use the real sender by default
		remote:     remote,
		properties: properties,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.startedAt = time.Now().UTC()
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case reportID := <-wp.jobs:
			log.Printf("Worker %d processing report %s", id, reportID)
			wp.process(ctx, reportID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(reportID string) {
	wp.jobs <- reportID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

func (wp *WorkerPool) process(ctx context.Context, reportID string) {
	var rep model.Report
	if err := wp.db.WithContext(ctx).Preload("Photos").First(&rep, "id = ?", reportID).Error; err != nil {
		log.Printf("Error fetching report %s: %v", reportID, err)
		return
	}

	property, _ := wp.properties.Property(rep.PropertyID)
	wp.submitReport(ctx, &rep, property)
	wp.notifySubscribers(ctx, &rep, property)
}

// RetryFailed resubmits reports whose delivery failed, oldest first, plus
// reports left pending by a previous process. Subscribers are not alerted
// again. It returns how many were retried and how many now are synced.
func (wp *WorkerPool) RetryFailed(ctx context.Context) (retried, synced int) {
	q := wp.db.WithContext(ctx).Preload("Photos").Where("sync_status = ?", model.SyncFailed)
	if !wp.startedAt.IsZero() {
		q = q.Or("sync_status = ? AND created_at < ?", model.SyncPending, wp.startedAt)
	}
	var reports []model.Report
	if err := q.Order("created_at ASC").Find(&reports).Error; err != nil {
		log.Printf("Error fetching undelivered reports: %v", err)
		return 0, 0
	}

	for i := range reports {
		rep := &reports[i]
		property, _ := wp.properties.Property(rep.PropertyID)
		wp.submitReport(ctx, rep, property)
		if rep.SyncStatus == model.SyncSynced {
			synced++
		}
	}
	if len(reports) > 0 {
		log.Printf("Report retry finished: %d retried, %d synced", len(reports), synced)
	}
	return len(reports), synced
}

// submitReport forwards the report and records the outcome on its row.
func (wp *WorkerPool) submitReport(ctx context.Context, rep *model.Report, property model.PropertySnapshot) {
	status, syncErr := model.SyncFailed, ""
	if wp.remote == nil || !wp.remote.Configured() {
		syncErr = "booking system is not configured"
	} else {
		payload := booking.ReportPayload{
			ReportID:    rep.ID,
			Kind:        string(rep.Kind),
			PropertyID:  rep.PropertyID,
			RecordID:    property.RecordID,
			CleanerID:   rep.CleanerID,
			Description: rep.Description,
			CreatedAt:   rep.CreatedAt,
		}
		for _, photo := range rep.Photos {
			data, err := os.ReadFile(photo.Path)
			if err != nil {
				log.Printf("Warning: could not read photo %s of report %s: %v", photo.ID, rep.ID, err)
				continue
			}
			payload.Photos = append(payload.Photos, booking.PhotoPayload{
				FileName:    photo.FileName,
				ContentType: photo.ContentType,
				Data:        data,
			})
		}

		ok, reason := booking.Outcome(wp.remote.SubmitReport(ctx, payload))
		if ok {
			status = model.SyncSynced
		} else {
			syncErr = reason
			log.Printf("Error submitting report %s: %s", rep.ID, reason)
		}
	}

	rep.SyncStatus, rep.SyncError = status, syncErr
	if err := wp.db.WithContext(ctx).Model(&model.Report{}).Where("id = ?", rep.ID).
		Updates(map[string]any{"sync_status": status, "sync_error": syncErr}).Error; err != nil {
		log.Printf("Error recording sync status of report %s: %v", rep.ID, err)
	}
}

func (wp *WorkerPool) notifySubscribers(ctx context.Context, rep *model.Report, property model.PropertySnapshot) {
	if wp.webpush == nil || wp.webpush.VAPIDPrivateKey == "" {
		return
	}

	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions for report %s: %v", rep.ID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for report %s", len(subscriptions), rep.ID)
	message := []byte(Message(rep, property))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, message)
	}
}

// Message is the push text for a report.
func Message(rep *model.Report, property model.PropertySnapshot) string {
	label := rep.PropertyID
	if property.Name != "" {
		label = property.Name
	}
	kind := "Maintenance issue"
	if rep.Kind == model.ReportLostProperty {
		kind = "Lost property"
	}
	return fmt.Sprintf("%s at %s: %s", kind, label, rep.Description)
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
