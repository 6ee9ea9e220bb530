package allMaster

import (
	"encoding/json"
	"net/http"
	"strings"

	"MedFieldCRM/api"
	"MedFieldCRM/api/constants"
	middlewares "MedFieldCRM/api/middlewares"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ClinicMasterRequest struct {
	Name        string `json:"name"`
	RegionID    string `json:"region_id"`
	City        string `json:"city"`
	Address     string `json:"address"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
}

func CreateClinicMaster(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID  string                `json:"user_id"`
			Clinics []ClinicMasterRequest `json:"clinics"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		session := middlewares.GetSessionFromContext(r.Context())
		if session == nil {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		var results []map[string]interface{}
		for _, c := range req.Clinics {
			if strings.TrimSpace(c.Name) == "" {
				results = append(results, map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   constants.FormatMissingFieldError("name"),
				})
				continue
			}
			if c.RegionID == "" {
				results = append(results, map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   constants.FormatMissingFieldError("region_id"),
					"name":                 c.Name,
				})
				continue
			}
			status := c.Status
			if status == "" {
				status = "active"
			}
			var clinicID string
			err := pgxPool.QueryRow(r.Context(),
				`INSERT INTO clinics (name, region_id, city, address, contact_name, phone, status, created_by, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW()) RETURNING id`,
				strings.TrimSpace(c.Name), c.RegionID, c.City, c.Address, c.ContactName, c.Phone, status, session.Name,
			).Scan(&clinicID)
			if err != nil {
				friendlyMsg, _ := getUserFriendlyMasterError(err, "Failed to create clinic")
				results = append(results, map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   friendlyMsg,
					"name":                 c.Name,
				})
				continue
			}
			results = append(results, map[string]interface{}{
				constants.ValueSuccess: true,
				"clinic_id":            clinicID,
				"name":                 c.Name,
			})
		}
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{constants.ValueSuccess: true, "results": results})
	}
}

func GetAllClinics(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regionID := r.URL.Query().Get("region_id")
		query := `SELECT c.id, c.name, c.region_id, reg.name, c.city, c.address, c.contact_name, c.phone, c.status, c.created_at
		          FROM clinics c JOIN regions reg ON reg.id = c.region_id`
		var args []interface{}
		if regionID != "" {
			query += " WHERE c.region_id = $1"
			args = append(args, regionID)
		}
		query += " ORDER BY c.name"

		rows, err := pgxPool.Query(r.Context(), query, args...)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to fetch clinics")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		defer rows.Close()
		clinics := []map[string]interface{}{}
		for rows.Next() {
			var id, name, region, regionName, status string
			var city, address, contactName, phone *string
			var createdAt interface{}
			if err := rows.Scan(&id, &name, &region, &regionName, &city, &address, &contactName, &phone, &status, &createdAt); err != nil {
				continue
			}
			row := map[string]interface{}{
				"id":          id,
				"name":        name,
				"region_id":   region,
				"region_name": regionName,
				"status":      status,
				"created_at":  createdAt,
			}
			if city != nil {
				row["city"] = *city
			}
			if address != nil {
				row["address"] = *address
			}
			if contactName != nil {
				row["contact_name"] = *contactName
			}
			if phone != nil {
				row["phone"] = *phone
			}
			clinics = append(clinics, row)
		}
		api.RespondWithPayload(w, true, "", clinics)
	}
}

func UpdateClinicMaster(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID      string `json:"user_id"`
			ClinicID    string `json:"clinic_id"`
			Name        string `json:"name"`
			RegionID    string `json:"region_id"`
			City        string `json:"city"`
			Address     string `json:"address"`
			ContactName string `json:"contact_name"`
			Phone       string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClinicID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		tag, err := pgxPool.Exec(r.Context(),
			`UPDATE clinics SET
			        name = COALESCE(NULLIF($2, ''), name),
			        region_id = COALESCE(NULLIF($3, '')::uuid, region_id),
			        city = COALESCE(NULLIF($4, ''), city),
			        address = COALESCE(NULLIF($5, ''), address),
			        contact_name = COALESCE(NULLIF($6, ''), contact_name),
			        phone = COALESCE(NULLIF($7, ''), phone)
			 WHERE id = $1`,
			req.ClinicID, strings.TrimSpace(req.Name), req.RegionID, req.City, req.Address, req.ContactName, req.Phone,
		)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to update clinic")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		if tag.RowsAffected() == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrClinicNotFound)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}

func DeactivateClinicMaster(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string `json:"user_id"`
			ClinicID string `json:"clinic_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClinicID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		tag, err := pgxPool.Exec(r.Context(),
			`UPDATE clinics SET status = 'inactive' WHERE id = $1`, req.ClinicID)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to deactivate clinic")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		if tag.RowsAffected() == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrClinicNotFound)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}
