package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"custody-ledger-backend/config"
	"custody-ledger-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Station{},
		&model.Item{},
		&model.CustodyEvent{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnforceAppendOnly {
		log.Println("Applying append-only guards on custody_events...")
		if err := applyAppendOnlyDDL(db); err != nil {
			log.Printf("Warning: failed to apply append-only guards: %v. Continuing without them.", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// applyAppendOnlyDDL installs database-level guards so that no client,
// including an operator at a psql prompt, can rewrite ledger history.
// The application never issues UPDATE or DELETE against custody_events;
// these rules make the invariant hold for everyone else too.
func applyAppendOnlyDDL(db *gorm.DB) error {
	ddls := []string{
		`CREATE OR REPLACE RULE custody_events_no_update AS ON UPDATE TO custody_events DO INSTEAD NOTHING;`,
		`CREATE OR REPLACE RULE custody_events_no_delete AS ON DELETE TO custody_events DO INSTEAD NOTHING;`,
		`CREATE INDEX IF NOT EXISTS idx_custody_events_item_recorded ON custody_events (item_id, recorded_at);`,
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
