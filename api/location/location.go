package location

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"MedFieldCRM/api"
	"MedFieldCRM/api/auth"
	"MedFieldCRM/api/constants"
	"MedFieldCRM/api/crm/scope"
	"MedFieldCRM/internal/dashboard"

	"github.com/lib/pq"
)

// Handler: save a periodic location ping. Fire-and-forget from the
// client's point of view; a lost ping is not an error worth surfacing.
func SaveLocation(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    string  `json:"user_id"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
			return
		}
		now := time.Now()
		_, err := db.Exec(
			`INSERT INTO user_locations (user_id, latitude, longitude, event, recorded_at)
			 VALUES ($1, $2, $3, 'ping', $4)`,
			req.UserID, req.Latitude, req.Longitude, now,
		)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		auth.NotePingGlobal(req.UserID)
		dashboard.GlobalHub().Publish(dashboard.LocationEvent{
			UserID:     req.UserID,
			Latitude:   req.Latitude,
			Longitude:  req.Longitude,
			Event:      "ping",
			RecordedAt: now.Format(time.RFC3339),
		})
		api.RespondWithResult(w, true, "")
	}
}

// Handler: last known location of each visible user
func GetLastLocations(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := api.GetScopeUserFromCtx(r.Context())
		if !ok {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}

		query := `
		SELECT DISTINCT ON (user_id) user_id, latitude, longitude, event, recorded_at
		FROM user_locations`
		var params []interface{}

		switch u.Role {
		case scope.RoleAdmin, scope.RoleManager:
			// unrestricted
		case scope.RoleRegionalManager:
			if u.RegionID == "" {
				api.RespondWithPayload(w, true, "", []map[string]interface{}{})
				return
			}
			userIDs, err := userIDsInRegion(db, u.RegionID)
			if err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if len(userIDs) == 0 {
				api.RespondWithPayload(w, true, "", []map[string]interface{}{})
				return
			}
			query += " WHERE user_id = ANY($1)"
			params = append(params, pq.Array(userIDs))
		default:
			query += " WHERE user_id = $1"
			params = append(params, u.ID)
		}
		query += " ORDER BY user_id, recorded_at DESC"

		rows, err := db.Query(query, params...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		locations := []map[string]interface{}{}
		for rows.Next() {
			var userID, event string
			var lat, lng float64
			var recordedAt time.Time
			if err := rows.Scan(&userID, &lat, &lng, &event, &recordedAt); err != nil {
				continue
			}
			locations = append(locations, map[string]interface{}{
				"user_id":     userID,
				"latitude":    lat,
				"longitude":   lng,
				"event":       event,
				"recorded_at": recordedAt.Format(time.RFC3339),
			})
		}
		api.RespondWithPayload(w, true, "", locations)
	}
}

// Handler: live feed for the manager map. SSE; the client subscribes with
// EventSource carrying user_id as a query param. Field users never see
// other reps' positions, so only admin/manager may attach.
func LiveLocations(hub *dashboard.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := api.GetScopeUserFromCtx(r.Context())
		if !ok {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		if !api.IsManagerRole(u) {
			api.RespondWithError(w, http.StatusForbidden, constants.ErrUnauthorized)
			return
		}
		hub.ServeHTTP(w, r)
	}
}

func userIDsInRegion(db *sql.DB, regionID string) ([]string, error) {
	rows, err := db.Query(`SELECT id FROM users WHERE region_id = $1 AND status = 'active'`, regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func StartLocationService(db *sql.DB) {
	mux := http.NewServeMux()
	scoped := api.RegionScopeMiddleware(db)
	mux.Handle("/location/save", scoped(http.HandlerFunc(SaveLocation(db))))
	mux.Handle("/location/last-known", scoped(http.HandlerFunc(GetLastLocations(db))))
	mux.Handle("/location/live", scoped(http.HandlerFunc(LiveLocations(dashboard.GlobalHub()))))

	log.Println("Location Service started on :7343")
	err := http.ListenAndServe(":7343", mux)
	if err != nil {
		log.Fatalf("Location Service failed: %v", err)
	}
}
