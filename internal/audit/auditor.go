// Package audit re-checks the ledger's structural invariants in the
// background. The application can never violate them through its own
// operations; the auditor exists to catch history rewritten underneath
// it, e.g. by hand at a database prompt.
package audit

import (
	"context"
	"fmt"
	"log"
	"time"

	"custody-ledger-backend/config"
	"custody-ledger-backend/internal/model"
	"custody-ledger-backend/internal/store"
)

// Violation describes one detected breach of a ledger invariant.
type Violation struct {
	ItemID int64
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("item %d: %s", v.ItemID, v.Detail)
}

// Service periodically audits every item's custody history.
type Service struct {
	cfg   *config.Config
	store store.Store
}

// NewService creates a new auditor.
func NewService(cfg *config.Config, s store.Store) *Service {
	return &Service{cfg: cfg, store: s}
}

// Run starts the audit loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Audit.Enabled {
		log.Println("Ledger auditor is disabled. Not starting.")
		return
	}
	log.Println("Starting ledger auditor...")

	s.AuditOnce(ctx)

	timer := time.NewTimer(s.cfg.Audit.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Ledger auditor shutting down.")
			return
		case <-timer.C:
			s.AuditOnce(ctx)
			timer.Reset(s.cfg.Audit.Interval)
		}
	}
}

// AuditOnce walks every item's history once and logs each violation found.
// Returns the violations so tests and operators can inspect them.
func (s *Service) AuditOnce(ctx context.Context) []Violation {
	log.Println("Executing audit cycle...")

	items, err := s.store.ListItems(ctx)
	if err != nil {
		log.Printf("Error listing items for audit: %v", err)
		return nil
	}

	var violations []Violation
	for _, item := range items {
		// Events are read in append order (insertion id), not timestamp
		// order: a rewritten timestamp would be invisible after re-sorting.
		var history []model.CustodyEvent
		err := s.store.DB().WithContext(ctx).
			Where("item_id = ?", item.ID).
			Order("id ASC").
			Find(&history).Error
		if err != nil {
			log.Printf("Error loading history for item %d: %v", item.ID, err)
			continue
		}
		violations = append(violations, checkHistory(item.ID, history)...)
	}

	for _, v := range violations {
		log.Printf("LEDGER INVARIANT VIOLATION: %s", v)
	}
	log.Printf("Audit cycle finished: %d items checked, %d violations.", len(items), len(violations))
	return violations
}

// checkHistory validates one item's event sequence: the genesis event exists,
// is station-less, is the only station-less event, and timestamps never
// decrease.
func checkHistory(itemID int64, history []model.CustodyEvent) []Violation {
	var violations []Violation

	if len(history) == 0 {
		violations = append(violations, Violation{ItemID: itemID, Detail: "no genesis event"})
		return violations
	}

	if history[0].Station != nil {
		violations = append(violations, Violation{
			ItemID: itemID,
			Detail: fmt.Sprintf("genesis event has station %q", *history[0].Station),
		})
	}

	for i := 1; i < len(history); i++ {
		if history[i].Station == nil {
			violations = append(violations, Violation{
				ItemID: itemID,
				Detail: fmt.Sprintf("event %d after genesis has no station", i),
			})
		}
		if history[i].RecordedAt.Before(history[i-1].RecordedAt) {
			violations = append(violations, Violation{
				ItemID: itemID,
				Detail: fmt.Sprintf("event %d recorded before event %d", i, i-1),
			})
		}
	}
	return violations
}
