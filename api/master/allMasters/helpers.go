package allMaster

import (
	"errors"
	"net/http"
	"strings"

	"MedFieldCRM/api/constants"
	"MedFieldCRM/api/crm/rates"
)

// normalizeCurrency maps a raw currency field or spreadsheet cell onto the
// closed set of product currencies. Empty defaults to TRY; anything outside
// the set is rejected here so a bad master row cannot poison campaign
// expansion later.
func normalizeCurrency(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return string(rates.TRY), nil
	}
	c, ok := rates.Parse(raw)
	if !ok {
		return "", errors.New(constants.ErrInvalidCurrency)
	}
	return string(c), nil
}

// getUserFriendlyMasterError converts database errors into messages the
// field app can show directly.
func getUserFriendlyMasterError(err error, context string) (string, int) {
	if err == nil {
		return "", http.StatusOK
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "unique") || strings.Contains(errMsg, "duplicate") {
		if strings.Contains(errMsg, "sku") {
			return "Product SKU already exists. Please use a different SKU.", http.StatusOK
		}
		if strings.Contains(errMsg, "regions_name_key") {
			return "Region name already exists.", http.StatusOK
		}
		return "This record already exists in the system.", http.StatusOK
	}

	if strings.Contains(errMsg, "foreign key") || strings.Contains(errMsg, "violates foreign key constraint") {
		if strings.Contains(errMsg, "region_id") {
			return "Region does not exist or has been deleted.", http.StatusOK
		}
		if strings.Contains(errMsg, "clinic_id") {
			return "Clinic does not exist or has been deleted.", http.StatusOK
		}
		if strings.Contains(errMsg, "product_id") {
			return "Product does not exist or has been deleted.", http.StatusOK
		}
		return "Referenced record does not exist.", http.StatusOK
	}

	if strings.Contains(errMsg, "null value") || strings.Contains(errMsg, "violates not-null constraint") {
		return "Required field is missing.", http.StatusOK
	}

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "network") {
		return "Database connection issue. Please try again.", http.StatusServiceUnavailable
	}

	if context != "" {
		return context + ": " + err.Error(), http.StatusInternalServerError
	}
	return err.Error(), http.StatusInternalServerError
}
