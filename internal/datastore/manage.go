package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/radar-go/internal/logging"
)

// performAutoMigration brings the schema up to date. AutoMigrate only adds
// missing tables, columns and indexes, so repeated runs are idempotent and
// existing data is never touched.
func performAutoMigration(db *gorm.DB, debug bool) error {
	start := time.Now()

	tables := []struct {
		name  string
		model any
	}{
		{"companies", &Company{}},
		{"analyses", &Analysis{}},
		{"activity_log_entries", &ActivityLogEntry{}},
		{"trend_reports", &TrendReport{}},
	}

	for _, table := range tables {
		if err := db.AutoMigrate(table.model); err != nil {
			return fmt.Errorf("failed to migrate table %s: %w", table.name, err)
		}
	}

	if debug {
		logging.Debug("database migration complete",
			"tables", len(tables),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return nil
}
