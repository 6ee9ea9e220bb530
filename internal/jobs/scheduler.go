package jobs

import (
	"fmt"
	"log"

	"MedFieldCRM/internal/config"
	"MedFieldCRM/internal/logger"
	"MedFieldCRM/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CronService struct {
	config map[string]interface{}
	db     *pgxpool.Pool
}

func NewCronService(cfg map[string]interface{}, db *pgxpool.Pool) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	expiryConfig := NewDefaultExpiryConfig()
	if s.config != nil {
		if schedule, ok := s.config["expiry_schedule"].(string); ok && schedule != "" {
			expiryConfig.Schedule = schedule
		}
		if batchSize, ok := s.config["expiry_batch_size"].(int); ok && batchSize > 0 {
			expiryConfig.BatchSize = batchSize
		}
		if days, ok := s.config["validity_days"].(int); ok && days > 0 {
			expiryConfig.ValidityDays = days
		}
	}
	if err := RunProposalExpiryScheduler(expiryConfig, s.db); err != nil {
		return fmt.Errorf("failed to start proposal expiry scheduler: %v", err)
	}
	logger.Audit("Proposal expiry scheduler started")

	repairConfig := NewDefaultRepairConfig()
	if s.config != nil {
		if schedule, ok := s.config["repair_schedule"].(string); ok && schedule != "" {
			repairConfig.Schedule = schedule
		}
		if batchSize, ok := s.config["repair_batch_size"].(int); ok && batchSize > 0 {
			repairConfig.BatchSize = batchSize
		}
	}
	if err := RunItemRepairScheduler(repairConfig, s.db); err != nil {
		return fmt.Errorf("failed to start item repair scheduler: %v", err)
	}
	logger.Audit("Item repair scheduler started")

	retentionConfig := NewDefaultRetentionConfig()
	if s.config != nil {
		if schedule, ok := s.config["location_purge_schedule"].(string); ok && schedule != "" {
			retentionConfig.Schedule = schedule
		}
		if days, ok := s.config["location_retention_days"].(int); ok && days > 0 {
			retentionConfig.RetentionDays = days
		}
	}
	if err := RunLocationRetentionScheduler(retentionConfig, s.db); err != nil {
		return fmt.Errorf("failed to start location retention scheduler: %v", err)
	}
	logger.Audit("Location retention scheduler started")

	log.Println("Cron service started")
	return nil
}

func (s *CronService) Stop() error {
	return nil
}

// parseInt is a helper to parse int from string
func parseInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	return i, err
}

var defaultTimeZone = config.DefaultTimeZone
