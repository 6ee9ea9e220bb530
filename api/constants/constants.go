package constants

// Common error messages
const (
	ErrInvalidSession     = "invalid user_id or session"
	ErrInvalidJSON        = "invalid json or missing fields"
	ErrMissingUserID      = "Missing or invalid user_id in body"
	ErrUserIDRequired     = "user_id required"
	ErrDB                 = "DB error"
	ErrInvalidRequestBody = "Invalid request body"
	ErrPleaseLogin        = "Please login to continue."
	ErrMethodNotAllowed   = "Method Not Allowed"
)

// Content Types
const (
	ContentTypeJSON      = "application/json"
	ContentTypeText      = "Content-Type"
	ContentTypeMultipart = "multipart/form-data"
)

// Body keys
const (
	KeyUserID    = "user_id"
	ValueSuccess = "success"
	ValueError   = "error"
)

// Date formats
const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DateFormat     = "2006-01-02"
)

// Roles (closed set)
const (
	RoleAdmin           = "admin"
	RoleManager         = "manager"
	RoleRegionalManager = "regional_manager"
	RoleFieldUser       = "field_user"
)

// Proposal statuses
const (
	ProposalPending          = "pending"
	ProposalApproved         = "approved"
	ProposalRejected         = "rejected"
	ProposalExpired          = "expired"
	ProposalContractReceived = "contract_received"
	ProposalInTransfer       = "in_transfer"
	ProposalDelivered        = "delivered"
)
