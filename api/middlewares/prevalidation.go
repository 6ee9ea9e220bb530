package api

import (
	"MedFieldCRM/api"
	"MedFieldCRM/api/auth"
	"MedFieldCRM/api/constants"
	"MedFieldCRM/api/crm/scope"
	"MedFieldCRM/internal/validation"
	"bytes"
	"context"
	"io"

	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	SessionKey   contextKey = "session"
	ScopeUserKey contextKey = "scopeUser"
	UserIDKey    contextKey = "userID"
)

// PreValidationMiddleware authenticates master-service requests against the
// in-memory session table and loads the caller's role and region from the
// users table. Inactive users are rejected even when their session is live.
func PreValidationMiddleware(db *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, "Failed to read request body")
				return
			}
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewBuffer(body))

			userID, err := validation.ExtractUserID(r)
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, constants.ErrUserIDRequired)
				return
			}

			r.Body = io.NopCloser(bytes.NewBuffer(body))

			session := validation.ValidateSession(userID)
			if session == nil {
				api.RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
				return
			}

			var role, status string
			var regionID *string
			err = db.QueryRow(ctx,
				`SELECT role, region_id, status FROM users WHERE id = $1`,
				userID,
			).Scan(&role, &regionID, &status)
			if err != nil {
				api.RespondWithError(w, http.StatusUnauthorized, constants.ErrUserNotFound)
				return
			}
			if status != "active" {
				api.RespondWithError(w, http.StatusUnauthorized, constants.ErrUserInactive)
				return
			}

			u := scope.User{ID: userID, Role: scope.Role(role)}
			if regionID != nil {
				u.RegionID = *regionID
			}

			ctx = context.WithValue(ctx, SessionKey, session)
			ctx = context.WithValue(ctx, ScopeUserKey, u)
			ctx = context.WithValue(ctx, UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetSessionFromContext(ctx context.Context) *auth.UserSession {
	if s, ok := ctx.Value(SessionKey).(*auth.UserSession); ok {
		return s
	}
	return nil
}

func GetScopeUserFromContext(ctx context.Context) (scope.User, bool) {
	u, ok := ctx.Value(ScopeUserKey).(scope.User)
	return u, ok
}
