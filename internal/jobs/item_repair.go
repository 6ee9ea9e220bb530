package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"MedFieldCRM/internal/config"
	"MedFieldCRM/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// RepairConfig holds configuration for the proposal item repair sweep
type RepairConfig struct {
	Schedule  string
	BatchSize int
	TimeZone  string
}

func NewDefaultRepairConfig() *RepairConfig {
	schedule := os.Getenv("ITEM_REPAIR_SCHEDULE")
	if schedule == "" {
		schedule = config.DefaultRepairSchedule
	}
	batchSize := config.RepairBatchSize
	if bs := os.Getenv("ITEM_REPAIR_BATCH_SIZE"); bs != "" {
		if parsed, err := parseInt(bs); err == nil && parsed > 0 {
			batchSize = parsed
		}
	}
	return &RepairConfig{
		Schedule:  schedule,
		BatchSize: batchSize,
		TimeZone:  defaultTimeZone,
	}
}

// repairItem mirrors the proposal line payload written at submission time.
type repairItem struct {
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ProductCurrency  string          `json:"product_currency"`
	ExcessPercentage decimal.Decimal `json:"excess_percentage"`
	Total            decimal.Decimal `json:"total"`
	OriginalTotal    decimal.Decimal `json:"original_total"`
}

// RunItemRepairScheduler starts the cron job that replays proposal lines
// whose insert failed during submission.
func RunItemRepairScheduler(cfg *RepairConfig, db *pgxpool.Pool) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultRepairSchedule
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = config.RepairBatchSize
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
		n, err := RepairPendingItems(db, cfg.BatchSize)
		if err != nil {
			logger.Audit(fmt.Sprintf("Item repair sweep failed: %v", err))
			log.Printf("ERROR: Item repair sweep failed: %v", err)
		} else if n > 0 {
			logger.Audit(fmt.Sprintf("Item repair sweep completed, %d proposals repaired", n))
		}
	})
	if err != nil {
		return fmt.Errorf("unable to schedule item repair sweep: %v", err)
	}

	c.Start()
	log.Printf("[AUDIT] Item repair scheduler started: %s (%s)", cfg.Schedule, cfg.TimeZone)
	return nil
}

// RepairPendingItems replays queued repair payloads. Each payload is a JSON
// array of proposal lines; all lines of one payload are inserted in one
// transaction, the queue row is removed, and the header flag is cleared
// once no payloads remain for that proposal. Returns the number of
// proposals repaired.
func RepairPendingItems(db *pgxpool.Pool, batchSize int) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rows, err := db.Query(ctx, `
		SELECT id, proposal_id, payload FROM proposal_item_repairs
		ORDER BY created_at
		LIMIT $1`, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch repair queue: %w", err)
	}
	type repairRow struct {
		id         int64
		proposalID string
		payload    []byte
	}
	var queue []repairRow
	for rows.Next() {
		var rr repairRow
		if err := rows.Scan(&rr.id, &rr.proposalID, &rr.payload); err != nil {
			rows.Close()
			return 0, err
		}
		queue = append(queue, rr)
	}
	rows.Close()

	repaired := 0
	for _, rr := range queue {
		var items []repairItem
		if err := json.Unmarshal(rr.payload, &items); err != nil {
			logger.Audit(fmt.Sprintf("Item repair: unreadable payload for proposal %s, dropping queue row %d: %v", rr.proposalID, rr.id, err))
			_, _ = db.Exec(ctx, `DELETE FROM proposal_item_repairs WHERE id = $1`, rr.id)
			continue
		}

		tx, err := db.Begin(ctx)
		if err != nil {
			return repaired, err
		}
		ok := true
		for _, it := range items {
			_, err := tx.Exec(ctx, `
				INSERT INTO proposal_items (
					proposal_id, product_id, product_name, quantity, unit_price,
					product_currency, excess_percentage, total, original_total
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				rr.proposalID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice,
				it.ProductCurrency, it.ExcessPercentage, it.Total, it.OriginalTotal,
			)
			if err != nil {
				logger.Audit(fmt.Sprintf("Item repair: insert failed for proposal %s, will retry next run: %v", rr.proposalID, err))
				ok = false
				break
			}
		}
		if !ok {
			tx.Rollback(ctx)
			continue
		}
		if _, err := tx.Exec(ctx, `DELETE FROM proposal_item_repairs WHERE id = $1`, rr.id); err != nil {
			tx.Rollback(ctx)
			continue
		}
		if _, err := tx.Exec(ctx, `
			UPDATE proposals SET needs_item_repair = false
			WHERE id = $1 AND NOT EXISTS (
				SELECT 1 FROM proposal_item_repairs WHERE proposal_id = $1
			)`, rr.proposalID); err != nil {
			tx.Rollback(ctx)
			continue
		}
		if err := tx.Commit(ctx); err != nil {
			continue
		}
		repaired++
	}
	return repaired, nil
}
