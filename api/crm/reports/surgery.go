package reports

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"MedFieldCRM/api"
	"MedFieldCRM/api/constants"
	"MedFieldCRM/api/crm/scope"
	"MedFieldCRM/api/utils"
)

// Handler: log a surgery report for a clinic visit
func CreateSurgeryReport(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID       string `json:"user_id"`
			ClinicID     string `json:"clinic_id"`
			SurgeryDate  string `json:"surgery_date"`
			DoctorName   string `json:"doctor_name"`
			ProductsUsed string `json:"products_used"`
			Notes        string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClinicID == "" || req.SurgeryDate == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
			return
		}
		var id string
		err := db.QueryRow(
			`INSERT INTO surgery_reports (clinic_id, user_id, surgery_date, doctor_name, products_used, notes, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING id`,
			req.ClinicID, req.UserID, req.SurgeryDate, req.DoctorName, req.ProductsUsed, req.Notes,
		).Scan(&id)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "report_id": id})
	}
}

// Handler: list surgery reports visible to the caller
func GetSurgeryReports(db *sql.DB) http.HandlerFunc {
	return listScoped(db, scope.ResourceSurgeryReports,
		`SELECT id, clinic_id, user_id, surgery_date, doctor_name, products_used, notes, created_at
		 FROM surgery_reports`)
}

// listScoped builds a scoped, paginated list handler over the given base
// query. Shared by surgery and visit reports.
func listScoped(db *sql.DB, res scope.Resource, baseQuery string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := api.GetScopeUserFromCtx(r.Context())
		if !ok {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		builder := &scope.Builder{Clinics: &scope.SQLClinicResolver{DB: db}, Policy: api.MissingRegionPolicyFromEnv()}
		sc, err := builder.For(r.Context(), u, res)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed)
			return
		}
		if sc.DenyAll {
			api.RespondWithPayload(w, true, "", []map[string]interface{}{})
			return
		}

		pagination, err := utils.ExtractPagination(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		query := baseQuery
		var params []interface{}
		if clause, args := sc.WhereClause(1); clause != "" {
			query += " WHERE " + clause
			params = append(params, args...)
		}
		query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(params)+1, len(params)+2)
		params = append(params, pagination.Limit, pagination.Offset)

		rows, err := db.Query(query, params...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		cols, _ := rows.Columns()
		reports := []map[string]interface{}{}
		for rows.Next() {
			vals := make([]interface{}, len(cols))
			valPtrs := make([]interface{}, len(cols))
			for i := range vals {
				valPtrs[i] = &vals[i]
			}
			rows.Scan(valPtrs...)
			rowMap := map[string]interface{}{}
			for i, col := range cols {
				if b, ok := vals[i].([]byte); ok {
					rowMap[col] = string(b)
				} else {
					rowMap[col] = vals[i]
				}
			}
			reports = append(reports, rowMap)
		}
		api.RespondWithPayload(w, true, "", reports)
	}
}
