package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"custody-ledger-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Item{},
		&model.CustodyEvent{},
		&model.PushSubscription{},
	))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	wp.Dispatch(123)

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, int64(123), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	db := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	station := "Main Office"
	seedItem := func(t *testing.T, id int64, name string) {
		require.NoError(t, db.Create(&model.Item{ID: id, Name: name}).Error)
		require.NoError(t, db.Create(&model.CustodyEvent{
			ItemID: id, Owner: "Alice", RecordedAt: time.Now().UTC().Add(-time.Hour),
		}).Error)
		require.NoError(t, db.Create(&model.CustodyEvent{
			ItemID: id, Owner: "Charlie", RecordedAt: time.Now().UTC(), Station: &station,
		}).Error)
	}

	seedSubscription := func(t *testing.T, endpoint string, itemID int64) {
		sub := model.PushSubscription{Endpoint: endpoint, P256DH: "test_p256dh", Auth: "test_auth"}
		require.NoError(t, db.Create(&sub).Error)
		require.NoError(t, db.Exec(
			"INSERT INTO subscription_item_mapping (push_subscription_endpoint, item_id) VALUES (?, ?)",
			endpoint, itemID,
		).Error)
	}

	t.Run("notifies subscriber with current owner and station", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		seedItem(t, 101, "Laptop")
		seedSubscription(t, "https://example.com/push", 101)

		wp.SetSender(&mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "Custody of Laptop transferred to Charlie at Main Office", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		})

		wp.Dispatch(101)
		wg.Wait()
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		seedItem(t, 102, "Smartphone")
		seedSubscription(t, "https://example.com/expired", 102)

		wp.SetSender(&mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		})

		wp.Dispatch(102)

		assert.Eventually(t, func() bool {
			var count int64
			db.Model(&model.PushSubscription{}).
				Where("endpoint = ?", "https://example.com/expired").
				Count(&count)
			return count == 0
		}, 2*time.Second, 20*time.Millisecond, "expired subscription should be pruned")
	})

	t.Run("falls back to item id when the item row is missing", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		// Events without an item row: the worker labels the item by id.
		require.NoError(t, db.Create(&model.CustodyEvent{
			ItemID: 103, Owner: "Diana", RecordedAt: time.Now().UTC(), Station: &station,
		}).Error)
		seedSubscription(t, "https://example.com/fallback", 103)

		wp.SetSender(&mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "Custody of 103 transferred to Diana at Main Office", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		})

		wp.Dispatch(103)
		wg.Wait()
	})
}
