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

// ExpiryConfig holds configuration for the proposal expiry sweep
type ExpiryConfig struct {
	Schedule     string // Cron schedule (default: hourly)
	BatchSize    int    // Max proposals expired per run
	ValidityDays int    // Days a pending proposal stays valid
	TimeZone     string
}

func NewDefaultExpiryConfig() *ExpiryConfig {
	schedule := os.Getenv("PROPOSAL_EXPIRY_SCHEDULE")
	if schedule == "" {
		schedule = config.DefaultExpirySchedule
	}
	batchSize := config.ExpiryBatchSize
	if bs := os.Getenv("PROPOSAL_EXPIRY_BATCH_SIZE"); bs != "" {
		if parsed, err := parseInt(bs); err == nil && parsed > 0 {
			batchSize = parsed
		}
	}
	return &ExpiryConfig{
		Schedule:     schedule,
		BatchSize:    batchSize,
		ValidityDays: config.ProposalValidityDays,
		TimeZone:     defaultTimeZone,
	}
}

// RunProposalExpiryScheduler starts the cron job that expires pending
// proposals older than the validity window.
func RunProposalExpiryScheduler(cfg *ExpiryConfig, db *pgxpool.Pool) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultExpirySchedule
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = config.ExpiryBatchSize
	}
	if cfg.ValidityDays == 0 {
		cfg.ValidityDays = config.ProposalValidityDays
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
		logger.Audit(fmt.Sprintf("Starting proposal expiry sweep at %s", time.Now().In(loc).Format(time.RFC3339)))
		n, err := ExpireStaleProposals(db, cfg.ValidityDays, cfg.BatchSize)
		if err != nil {
			logger.Audit(fmt.Sprintf("Proposal expiry sweep failed: %v", err))
			log.Printf("ERROR: Proposal expiry sweep failed: %v", err)
		} else if n > 0 {
			logger.Audit(fmt.Sprintf("Proposal expiry sweep completed, %d proposals expired", n))
		}
	})
	if err != nil {
		return fmt.Errorf("unable to schedule proposal expiry sweep: %v", err)
	}

	c.Start()
	log.Printf("[AUDIT] Proposal expiry scheduler started: %s (%s)", cfg.Schedule, cfg.TimeZone)
	return nil
}

// ExpireStaleProposals marks pending proposals older than validityDays
// as expired. Returns the number of proposals updated.
func ExpireStaleProposals(db *pgxpool.Pool, validityDays, batchSize int) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tag, err := db.Exec(ctx, `
		UPDATE proposals SET status = 'expired'
		WHERE id IN (
			SELECT id FROM proposals
			WHERE status = 'pending'
			  AND created_at < NOW() - ($1 || ' days')::interval
			ORDER BY created_at
			LIMIT $2
		)`,
		fmt.Sprintf("%d", validityDays), batchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("expiry update failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
