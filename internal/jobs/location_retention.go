package jobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"MedFieldCRM/internal/config"
	"MedFieldCRM/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// RetentionConfig holds configuration for the location history purge
type RetentionConfig struct {
	Schedule      string
	RetentionDays int
	TimeZone      string
}

func NewDefaultRetentionConfig() *RetentionConfig {
	schedule := os.Getenv("LOCATION_PURGE_SCHEDULE")
	if schedule == "" {
		schedule = config.DefaultLocationPurgeSchedule
	}
	days := config.LocationRetentionDays
	if d := os.Getenv("LOCATION_RETENTION_DAYS"); d != "" {
		if parsed, err := parseInt(d); err == nil && parsed > 0 {
			days = parsed
		}
	}
	return &RetentionConfig{
		Schedule:      schedule,
		RetentionDays: days,
		TimeZone:      defaultTimeZone,
	}
}

// RunLocationRetentionScheduler starts the nightly purge of old location
// pings. Login and logout events are kept for the audit trail.
func RunLocationRetentionScheduler(cfg *RetentionConfig, db *pgxpool.Pool) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultLocationPurgeSchedule
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = config.LocationRetentionDays
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = defaultTimeZone
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
		logger.Audit(fmt.Sprintf("Invalid timezone %s, falling back to UTC: %v", cfg.TimeZone, err))
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		n, err := PurgeOldLocations(db, cfg.RetentionDays)
		if err != nil {
			logger.Audit(fmt.Sprintf("Location purge failed: %v", err))
			log.Printf("ERROR: Location purge failed: %v", err)
		} else {
			logger.Audit(fmt.Sprintf("Location purge completed, %d pings removed", n))
		}
	})
	if err != nil {
		return fmt.Errorf("unable to schedule location purge: %v", err)
	}

	c.Start()
	log.Printf("[AUDIT] Location retention scheduler started: %s (%s)", cfg.Schedule, cfg.TimeZone)
	return nil
}

func PurgeOldLocations(db *pgxpool.Pool, retentionDays int) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	tag, err := db.Exec(ctx, `
		DELETE FROM user_locations
		WHERE event = 'ping'
		  AND recorded_at < NOW() - ($1 || ' days')::interval`,
		fmt.Sprintf("%d", retentionDays),
	)
	if err != nil {
		return 0, fmt.Errorf("location purge failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
