package constants

import "fmt"

// ============================================================================
// AUTHENTICATION & SESSION ERRORS
// ============================================================================

const (
	ErrUnauthorized   = "You are not authorized to perform this action"
	ErrSessionExpired = "Your session has expired. Please login again"
	ErrUserInactive   = "Your account has been deactivated. Please contact your administrator"
)

// ============================================================================
// VALIDATION ERRORS - Users & Regions
// ============================================================================

const (
	ErrUserNotFound   = "User not found in the system"
	ErrInvalidRole    = "Invalid role. Must be admin, manager, regional_manager or field_user"
	ErrNoRegion       = "User has no region assigned. Please contact your administrator"
	ErrRegionNotFound = "Region not found in the system"
)

// ============================================================================
// VALIDATION ERRORS - Clinics & Products
// ============================================================================

const (
	ErrClinicNotFound     = "Clinic not found or you don't have access to it"
	ErrClinicRequired     = "A clinic must be selected"
	ErrNoClinicsInRegion  = "No clinics found for your region"
	ErrProductNotFound    = "Product not found in the system"
	ErrProductInactive    = "Product is not active"
	ErrInvalidCurrency    = "Invalid currency. Must be TRY, USD or EUR"
	ErrNegativeAmount     = "Amount cannot be negative"
	ErrInvalidQuantity    = "Quantity must be greater than zero"
)

// ============================================================================
// VALIDATION ERRORS - Campaigns & Proposals
// ============================================================================

const (
	ErrCampaignNotFound    = "Campaign not found or is not active"
	ErrCampaignEmpty       = "Campaign has no items configured"
	ErrProposalNotFound    = "Proposal not found or you don't have access to it"
	ErrProposalNoItems     = "At least one item is required"
	ErrProposalStatus      = "Invalid proposal status"
	ErrDiscountLocked      = "Discount is set by the selected campaign and cannot be changed"
	ErrDuplicateSubmission = "This proposal was already submitted"
)

// ============================================================================
// DATABASE OPERATION ERRORS
// ============================================================================

const (
	ErrDatabaseConnection = "Database connection failed. Please try again later"
	ErrQueryFailed        = "Database query failed. Please contact support if this persists"
	ErrTransactionFailed  = "Transaction failed. Please try again"
	ErrRecordNotFound     = "Record not found in the database"
	ErrDatabaseScanFailed = "Failed to read database results"
)

// ============================================================================
// FILE UPLOAD ERRORS
// ============================================================================

const (
	ErrFileUploadFailed  = "File upload failed. Please check the file format and try again"
	ErrInvalidFileFormat = "Invalid file format. Please upload a valid .xlsx or .xls file"
	ErrEmptyFile         = "Uploaded file is empty"
	ErrInvalidHeaders    = "File has invalid or missing column headers"
	ErrInvalidDataRow    = "Invalid data found in row %d: %s"
	ErrDuplicateUpload   = "This file was already uploaded as %s"
)

// ============================================================================
// GENERAL
// ============================================================================

const (
	ErrInternalServer  = "Internal server error. Please contact support"
	ErrOperationFailed = "Operation failed. Please try again"
	ErrNoDataFound     = "No data found matching your criteria"
)

const (
	SuccessCreated  = "Record created successfully"
	SuccessUpdated  = "Record updated successfully"
	SuccessUploaded = "File uploaded successfully. %d records processed"
)

// FormatRowError formats an error for a specific data row
func FormatRowError(rowNum int, reason string) string {
	return fmt.Sprintf(ErrInvalidDataRow, rowNum, reason)
}

// FormatMissingFieldError formats an error for a missing required field
func FormatMissingFieldError(field string) string {
	return fmt.Sprintf("%s is required", field)
}

// FormatFieldError formats an error for a field that failed validation
func FormatFieldError(field, reason string) string {
	return fmt.Sprintf("%s %s", field, reason)
}
