package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"custody-ledger-backend/config"
	"custody-ledger-backend/internal/mw"
	"custody-ledger-backend/internal/notification"
	"custody-ledger-backend/internal/scan"
	"custody-ledger-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, scanner *scan.Scanner, pool *notification.WorkerPool, webpushOptions *webpush.Options, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, scanner, pool, webpushOptions)

	rateLimit := rate.Limit(10)
	burst := 5
	cacheTTL := time.Minute
	if cfg != nil {
		rateLimit = rate.Limit(cfg.RateLimitPerSec)
		burst = cfg.RateLimitBurst
		cacheTTL = time.Duration(cfg.CacheTTLSeconds) * time.Second
	}

	rateLimiter := mw.RateLimiter(rateLimit, burst)
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/stations", handler.PostStation)
		api.GET("/stations", caching, GetStations(s))

		api.POST("/items", handler.PostItem)
		api.GET("/items", caching, GetItems(s))
		api.GET("/items/:item_id", handler.GetItem)

		// Custody ledger operations: status and history are derived from
		// the event log and must never be cached across a transfer.
		api.POST("/items/:item_id/transfers", handler.PostTransfer)
		api.GET("/items/:item_id/status", handler.GetStatus)
		api.GET("/items/:item_id/history", handler.GetHistory)

		api.POST("/scan", handler.PostScan)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
