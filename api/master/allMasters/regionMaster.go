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

type RegionMasterRequest struct {
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	Status      string `json:"status"`
}

func CreateRegionMaster(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID  string                `json:"user_id"`
			Regions []RegionMasterRequest `json:"regions"`
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
		for _, reg := range req.Regions {
			if strings.TrimSpace(reg.Name) == "" {
				results = append(results, map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   constants.FormatMissingFieldError("name"),
				})
				continue
			}
			status := reg.Status
			if status == "" {
				status = "active"
			}
			var regionID string
			err := pgxPool.QueryRow(r.Context(),
				`INSERT INTO regions (name, country_code, status, created_by, created_at)
				 VALUES ($1, $2, $3, $4, NOW()) RETURNING id`,
				strings.TrimSpace(reg.Name), strings.ToUpper(reg.CountryCode), status, session.Name,
			).Scan(&regionID)
			if err != nil {
				friendlyMsg, _ := getUserFriendlyMasterError(err, "Failed to create region")
				results = append(results, map[string]interface{}{
					constants.ValueSuccess: false,
					constants.ValueError:   friendlyMsg,
					"name":                 reg.Name,
				})
				continue
			}
			results = append(results, map[string]interface{}{
				constants.ValueSuccess: true,
				"region_id":            regionID,
				"name":                 reg.Name,
			})
		}
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{constants.ValueSuccess: true, "results": results})
	}
}

func GetAllRegions(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := pgxPool.Query(r.Context(),
			`SELECT id, name, country_code, status, created_by, created_at FROM regions ORDER BY name`)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to fetch regions")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		defer rows.Close()
		regions := []map[string]interface{}{}
		for rows.Next() {
			var id, name, status, createdBy string
			var countryCode *string
			var createdAt interface{}
			if err := rows.Scan(&id, &name, &countryCode, &status, &createdBy, &createdAt); err != nil {
				continue
			}
			row := map[string]interface{}{
				"id":         id,
				"name":       name,
				"status":     status,
				"created_by": createdBy,
				"created_at": createdAt,
			}
			if countryCode != nil {
				row["country_code"] = *countryCode
			}
			regions = append(regions, row)
		}
		api.RespondWithPayload(w, true, "", regions)
	}
}

func UpdateRegionMaster(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID      string `json:"user_id"`
			RegionID    string `json:"region_id"`
			Name        string `json:"name"`
			CountryCode string `json:"country_code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RegionID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		tag, err := pgxPool.Exec(r.Context(),
			`UPDATE regions SET name = COALESCE(NULLIF($2, ''), name),
			        country_code = COALESCE(NULLIF($3, ''), country_code)
			 WHERE id = $1`,
			req.RegionID, strings.TrimSpace(req.Name), strings.ToUpper(req.CountryCode),
		)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to update region")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		if tag.RowsAffected() == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrRegionNotFound)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}

// Regions are never hard-deleted; clinics and users keep their FK.
func DeactivateRegionMaster(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string `json:"user_id"`
			RegionID string `json:"region_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RegionID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		tag, err := pgxPool.Exec(r.Context(),
			`UPDATE regions SET status = 'inactive' WHERE id = $1`, req.RegionID)
		if err != nil {
			friendlyMsg, statusCode := getUserFriendlyMasterError(err, "Failed to deactivate region")
			api.RespondWithError(w, statusCode, friendlyMsg)
			return
		}
		if tag.RowsAffected() == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrRegionNotFound)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}
