package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cleaning-session-backend/internal/booking"
	"cleaning-session-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

type mockSubmitter struct {
	configured bool
	result     booking.SyncResult
	got        []booking.ReportPayload
}

func (m *mockSubmitter) Configured() bool { return m.configured }

func (m *mockSubmitter) SubmitReport(_ context.Context, p booking.ReportPayload) booking.SyncResult {
	m.got = append(m.got, p)
	return m.result
}

type properties map[string]model.PropertySnapshot

func (p properties) Property(id string) (model.PropertySnapshot, bool) {
	snap, ok := p[id]
	return snap, ok
}

var testProperties = properties{"p1": {ID: "p1", RecordID: "rec1", Name: "Harbour View"}}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Report{}, &model.ReportPhoto{}, &model.PushSubscription{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func seedReport(t *testing.T, db *gorm.DB) model.Report {
	t.Helper()
	photoPath := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(photoPath, []byte{0xff, 0xd8, 0xff}, 0o644))

	rep := model.Report{
		ID:          "r1",
		Kind:        model.ReportMaintenance,
		PropertyID:  "p1",
		CleanerID:   "c1",
		Description: "Broken kettle",
		SyncStatus:  model.SyncPending,
		CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Photos: []model.ReportPhoto{
			{ID: "ph1", ReportID: "r1", Path: photoPath, FileName: "kettle.jpg", ContentType: "image/jpeg", Size: 3},
		},
	}
	require.NoError(t, db.Create(&rep).Error)
	return rep
}

func okResponse(code int) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, nil, &webpush.Options{}, nil, testProperties)

	wp.Dispatch("r1")

	select {
	case job := <-wp.jobs:
		assert.Equal(t, "r1", job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_SubmitsAndNotifies(t *testing.T) {
	db := newTestDB(t)
	seedReport(t, db)
	require.NoError(t, db.Create(&model.PushSubscription{Endpoint: "https://example.com/push", P256DH: "k", Auth: "a", CreatedAt: time.Now()}).Error)

	remote := &mockSubmitter{configured: true, result: booking.Success{}}
	wp := NewWorkerPool(1, db, &webpush.Options{VAPIDPrivateKey: "priv"}, remote, testProperties)

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			defer wg.Done()
			assert.Equal(t, "https://example.com/push", sub.Endpoint)
			assert.Equal(t, "Maintenance issue at Harbour View: Broken kettle", string(payload))
			return okResponse(http.StatusCreated), nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)
	wp.Dispatch("r1")
	wg.Wait()

	require.Len(t, remote.got, 1)
	assert.Equal(t, "rec1", remote.got[0].RecordID)
	require.Len(t, remote.got[0].Photos, 1)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, remote.got[0].Photos[0].Data)

	var rep model.Report
	require.NoError(t, db.First(&rep, "id = ?", "r1").Error)
	assert.Equal(t, model.SyncSynced, rep.SyncStatus)
}

func TestWorkerPool_RecordsFailureAndDropsExpired(t *testing.T) {
	db := newTestDB(t)
	rep := seedReport(t, db)
	require.NoError(t, db.Create(&model.PushSubscription{Endpoint: "https://example.com/expired", P256DH: "k", Auth: "a", CreatedAt: time.Now()}).Error)

	remote := &mockSubmitter{configured: true, result: booking.Failure{Reason: "rejected"}}
	wp := NewWorkerPool(1, db, &webpush.Options{VAPIDPrivateKey: "priv"}, remote, testProperties)
	wp.sender = &mockSender{
		SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
			return okResponse(http.StatusGone), nil
		},
	}

	wp.process(context.Background(), rep.ID)

	var stored model.Report
	require.NoError(t, db.First(&stored, "id = ?", rep.ID).Error)
	assert.Equal(t, model.SyncFailed, stored.SyncStatus)
	assert.Equal(t, "rejected", stored.SyncError)

	var count int64
	db.Model(&model.PushSubscription{}).Count(&count)
	assert.Equal(t, int64(0), count, "expired subscription should be deleted")
}

func TestWorkerPool_PushDisabled(t *testing.T) {
	db := newTestDB(t)
	rep := seedReport(t, db)
	require.NoError(t, db.Create(&model.PushSubscription{Endpoint: "https://example.com/push", P256DH: "k", Auth: "a", CreatedAt: time.Now()}).Error)

	wp := NewWorkerPool(1, db, nil, &mockSubmitter{configured: false}, testProperties)
	wp.sender = &mockSender{
		SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
			t.Fatal("push must not be sent without VAPID keys")
			return nil, nil
		},
	}

	wp.process(context.Background(), rep.ID)

	var stored model.Report
	require.NoError(t, db.First(&stored, "id = ?", rep.ID).Error)
	assert.Equal(t, model.SyncFailed, stored.SyncStatus)
	assert.Equal(t, "booking system is not configured", stored.SyncError)
}

func TestWorkerPool_RetryFailed(t *testing.T) {
	db := newTestDB(t)
	rep := seedReport(t, db)
	require.NoError(t, db.Model(&model.Report{}).Where("id = ?", rep.ID).
		Updates(map[string]any{"sync_status": model.SyncFailed, "sync_error": "timeout"}).Error)
	require.NoError(t, db.Create(&model.Report{
		ID: "r2", Kind: model.ReportLostProperty, PropertyID: "p1", CleanerID: "c1",
		Description: "Sunglasses", SyncStatus: model.SyncSynced, CreatedAt: rep.CreatedAt,
	}).Error)
	require.NoError(t, db.Create(&model.PushSubscription{Endpoint: "https://example.com/push", P256DH: "k", Auth: "a", CreatedAt: time.Now()}).Error)

	remote := &mockSubmitter{configured: true, result: booking.Success{}}
	wp := NewWorkerPool(1, db, &webpush.Options{VAPIDPrivateKey: "priv"}, remote, testProperties)
	wp.sender = &mockSender{
		SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
			t.Fatal("a retry must not alert subscribers again")
			return nil, nil
		},
	}

	retried, synced := wp.RetryFailed(context.Background())
	assert.Equal(t, 1, retried)
	assert.Equal(t, 1, synced)
	require.Len(t, remote.got, 1)
	assert.Equal(t, rep.ID, remote.got[0].ReportID)
	require.Len(t, remote.got[0].Photos, 1)

	var stored model.Report
	require.NoError(t, db.First(&stored, "id = ?", rep.ID).Error)
	assert.Equal(t, model.SyncSynced, stored.SyncStatus)
	assert.Empty(t, stored.SyncError)

	retried, _ = wp.RetryFailed(context.Background())
	assert.Equal(t, 0, retried)
}

func TestWorkerPool_RetryPicksUpPendingFromEarlierRun(t *testing.T) {
	db := newTestDB(t)
	rep := seedReport(t, db)

	remote := &mockSubmitter{configured: true, result: booking.Failure{Reason: "still down"}}
	wp := NewWorkerPool(1, db, nil, remote, testProperties)

	retried, _ := wp.RetryFailed(context.Background())
	assert.Equal(t, 0, retried, "pending reports belong to the running pool until it has started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	retried, synced := wp.RetryFailed(ctx)
	assert.Equal(t, 1, retried)
	assert.Equal(t, 0, synced)

	var stored model.Report
	require.NoError(t, db.First(&stored, "id = ?", rep.ID).Error)
	assert.Equal(t, model.SyncFailed, stored.SyncStatus)
	assert.Equal(t, "still down", stored.SyncError)
}

func TestMessage(t *testing.T) {
	rep := &model.Report{Kind: model.ReportLostProperty, PropertyID: "p7", Description: "Blue scarf"}
	assert.Equal(t, "Lost property at p7: Blue scarf", Message(rep, model.PropertySnapshot{}))
}
