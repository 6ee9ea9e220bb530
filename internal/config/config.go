package config

const (
	DefaultTimeZone = "Europe/Istanbul"

	// Proposal lifecycle
	DefaultExpirySchedule = "15 * * * *" // hourly sweep for stale pending proposals
	ProposalValidityDays  = 30
	ExpiryBatchSize       = 500

	// Item repair sweep (re-inserts proposal lines that failed at submission)
	DefaultRepairSchedule = "*/5 * * * *"
	RepairBatchSize       = 100

	// Location history retention
	DefaultLocationPurgeSchedule = "30 2 * * *"
	LocationRetentionDays        = 90
)
