package user

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"MedFieldCRM/api"
	"MedFieldCRM/api/constants"
	"MedFieldCRM/api/crm/scope"
)

var validRoles = map[string]bool{
	constants.RoleAdmin:           true,
	constants.RoleManager:         true,
	constants.RoleRegionalManager: true,
	constants.RoleFieldUser:       true,
}

// roleNeedsRegion reports whether a role is meaningless without a region.
func roleNeedsRegion(role string) bool {
	return role == constants.RoleRegionalManager || role == constants.RoleFieldUser
}

func CreateUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := api.GetScopeUserFromCtx(r.Context())
		if !ok {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		if !api.IsManagerRole(caller) {
			api.RespondWithError(w, http.StatusForbidden, constants.ErrUnauthorized)
			return
		}
		var req struct {
			UserID       string `json:"user_id"`
			EmployeeName string `json:"employee_name"`
			Email        string `json:"email"`
			Password     string `json:"password"`
			Role         string `json:"role"`
			RegionID     string `json:"region_id"`
			Phone        string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if strings.TrimSpace(req.EmployeeName) == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.FormatMissingFieldError("employee_name"))
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.FormatMissingFieldError("email"))
			return
		}
		if req.Password == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.FormatMissingFieldError("password"))
			return
		}
		if !validRoles[req.Role] {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRole)
			return
		}
		if roleNeedsRegion(req.Role) && req.RegionID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.FormatMissingFieldError("region_id"))
			return
		}
		var regionID interface{}
		if req.RegionID != "" {
			regionID = req.RegionID
		}
		var newID string
		err := db.QueryRow(
			`INSERT INTO users (employee_name, email, password, role, region_id, phone, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, 'active', NOW()) RETURNING id`,
			strings.TrimSpace(req.EmployeeName), strings.ToLower(strings.TrimSpace(req.Email)),
			req.Password, req.Role, regionID, req.Phone,
		).Scan(&newID)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			constants.ValueSuccess: true,
			"user_id":              newID,
		})
	}
}

func GetUsers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := api.GetScopeUserFromCtx(r.Context())
		if !ok {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}

		query := `SELECT u.id, u.employee_name, u.email, u.role, u.region_id, reg.name, u.phone, u.status, u.created_at
		          FROM users u LEFT JOIN regions reg ON reg.id = u.region_id`
		var args []interface{}
		switch caller.Role {
		case scope.RoleAdmin, scope.RoleManager:
			// unrestricted
		case scope.RoleRegionalManager:
			if caller.RegionID == "" {
				api.RespondWithPayload(w, true, "", []map[string]interface{}{})
				return
			}
			query += " WHERE u.region_id = $1"
			args = append(args, caller.RegionID)
		default:
			query += " WHERE u.id = $1"
			args = append(args, caller.ID)
		}
		query += " ORDER BY u.employee_name"

		rows, err := db.Query(query, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed)
			return
		}
		defer rows.Close()

		users := []map[string]interface{}{}
		for rows.Next() {
			users = append(users, scanUserRow(rows))
		}
		api.RespondWithPayload(w, true, "", users)
	}
}

func GetUserById(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := api.GetScopeUserFromCtx(r.Context())
		if !ok {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		targetID := r.URL.Query().Get("id")
		if targetID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.FormatMissingFieldError("id"))
			return
		}
		query := `SELECT u.id, u.employee_name, u.email, u.role, u.region_id, reg.name, u.phone, u.status, u.created_at
		          FROM users u LEFT JOIN regions reg ON reg.id = u.region_id WHERE u.id = $1`
		args := []interface{}{targetID}
		switch caller.Role {
		case scope.RoleAdmin, scope.RoleManager:
		case scope.RoleRegionalManager:
			query += " AND u.region_id = $2"
			args = append(args, caller.RegionID)
		default:
			query += " AND u.id = $2"
			args = append(args, caller.ID)
		}

		rows, err := db.Query(query, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed)
			return
		}
		defer rows.Close()
		if !rows.Next() {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrUserNotFound)
			return
		}
		user := scanUserRow(rows)
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			constants.ValueSuccess: true,
			"user":                 user,
		})
	}
}

func UpdateUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := api.GetScopeUserFromCtx(r.Context())
		if !ok {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		if !api.IsManagerRole(caller) {
			api.RespondWithError(w, http.StatusForbidden, constants.ErrUnauthorized)
			return
		}
		var req struct {
			UserID       string `json:"user_id"`
			TargetID     string `json:"target_id"`
			EmployeeName string `json:"employee_name"`
			Role         string `json:"role"`
			RegionID     string `json:"region_id"`
			Phone        string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if req.Role != "" && !validRoles[req.Role] {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRole)
			return
		}
		res, err := db.Exec(
			`UPDATE users SET
			        employee_name = COALESCE(NULLIF($2, ''), employee_name),
			        role = COALESCE(NULLIF($3, ''), role),
			        region_id = COALESCE(NULLIF($4, '')::uuid, region_id),
			        phone = COALESCE(NULLIF($5, ''), phone)
			 WHERE id = $1`,
			req.TargetID, strings.TrimSpace(req.EmployeeName), req.Role, req.RegionID, req.Phone,
		)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrUserNotFound)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}

// Users are deactivated, never deleted; proposals and reports keep a
// valid author reference.
func DeactivateUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := api.GetScopeUserFromCtx(r.Context())
		if !ok {
			api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		if !api.IsManagerRole(caller) {
			api.RespondWithError(w, http.StatusForbidden, constants.ErrUnauthorized)
			return
		}
		var req struct {
			UserID   string `json:"user_id"`
			TargetID string `json:"target_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		res, err := db.Exec(`UPDATE users SET status = 'inactive' WHERE id = $1`, req.TargetID)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrUserNotFound)
			return
		}
		api.RespondWithResult(w, true, "")
	}
}

func scanUserRow(rows *sql.Rows) map[string]interface{} {
	var id, name, email, role, status string
	var regionID, regionName, phone *string
	var createdAt interface{}
	if err := rows.Scan(&id, &name, &email, &role, &regionID, &regionName, &phone, &status, &createdAt); err != nil {
		return map[string]interface{}{}
	}
	row := map[string]interface{}{
		"id":            id,
		"employee_name": name,
		"email":         email,
		"role":          role,
		"status":        status,
		"created_at":    createdAt,
	}
	if regionID != nil {
		row["region_id"] = *regionID
	}
	if regionName != nil {
		row["region_name"] = *regionName
	}
	if phone != nil {
		row["phone"] = *phone
	}
	return row
}
