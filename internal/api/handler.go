package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"custody-ledger-backend/internal/notification"
	"custody-ledger-backend/internal/scan"
	"custody-ledger-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	scanner *scan.Scanner
	pool    *notification.WorkerPool
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, scanner *scan.Scanner, pool *notification.WorkerPool, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		scanner: scanner,
		pool:    pool,
		webpush: webpushOptions,
	}
}
