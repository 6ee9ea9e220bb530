package api

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"strings"

	"MedFieldCRM/api/constants"
	"MedFieldCRM/api/crm/scope"
	"MedFieldCRM/internal/validation"
)

type contextKey string

const (
	SessionKey   contextKey = "session"
	ScopeUserKey contextKey = "scopeUser"
	UserIDKey    contextKey = "user_id"
)

// MissingRegionPolicyFromEnv reads the named configuration choice for
// users in region-scoped roles that have no region assigned. The safe
// default denies; MISSING_REGION_POLICY=allow preserves the legacy
// permissive behavior.
func MissingRegionPolicyFromEnv() scope.MissingRegionPolicy {
	if strings.EqualFold(os.Getenv("MISSING_REGION_POLICY"), "allow") {
		return scope.AllowWhenRegionMissing
	}
	return scope.DenyWhenRegionMissing
}

// RegionScopeMiddleware authenticates the request by the user_id carried
// in the body, confirms the account is still active, and attaches the
// session plus a scope.User to the context for role-scoped queries.
func RegionScopeMiddleware(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := validation.ExtractUserID(r)
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, constants.ErrMissingUserID)
				return
			}

			session := validation.ValidateSession(userID)
			if session == nil {
				RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
				return
			}

			// Role and region come from the users table, not the session, so
			// an admin edit takes effect without a re-login.
			var role string
			var regionID sql.NullString
			var status string
			err = db.QueryRow(
				`SELECT role, region_id, status FROM users WHERE id = $1`, userID,
			).Scan(&role, &regionID, &status)
			if err != nil {
				RespondWithError(w, http.StatusNotFound, constants.ErrUserNotFound)
				return
			}
			if status != "active" {
				RespondWithError(w, http.StatusForbidden, constants.ErrUserInactive)
				return
			}

			scopeUser := scope.User{
				ID:       userID,
				Role:     scope.Role(role),
				RegionID: regionID.String,
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			ctx = context.WithValue(ctx, ScopeUserKey, scopeUser)
			ctx = context.WithValue(ctx, UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
