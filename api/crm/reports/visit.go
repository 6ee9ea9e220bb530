package reports

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"MedFieldCRM/api"
	"MedFieldCRM/api/constants"
	"MedFieldCRM/api/crm/scope"
)

// Handler: log a clinic visit
func CreateVisitReport(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID      string  `json:"user_id"`
			ClinicID    string  `json:"clinic_id"`
			VisitDate   string  `json:"visit_date"`
			ContactName string  `json:"contact_name"`
			Purpose     string  `json:"purpose"`
			Outcome     string  `json:"outcome"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClinicID == "" || req.VisitDate == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
			return
		}
		var id string
		err := db.QueryRow(
			`INSERT INTO visit_reports (clinic_id, user_id, visit_date, contact_name, purpose, outcome, latitude, longitude, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING id`,
			req.ClinicID, req.UserID, req.VisitDate, req.ContactName, req.Purpose, req.Outcome, req.Latitude, req.Longitude,
		).Scan(&id)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "report_id": id})
	}
}

// Handler: list visit reports visible to the caller
func GetVisitReports(db *sql.DB) http.HandlerFunc {
	return listScoped(db, scope.ResourceVisitReports,
		`SELECT id, clinic_id, user_id, visit_date, contact_name, purpose, outcome, created_at
		 FROM visit_reports`)
}
