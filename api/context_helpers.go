package api

import (
	"context"
	"strings"

	"MedFieldCRM/api/auth"
	"MedFieldCRM/api/crm/scope"
)

func GetSessionFromCtx(ctx context.Context) *auth.UserSession {
	if session, ok := ctx.Value(SessionKey).(*auth.UserSession); ok {
		return session
	}
	return nil
}

func GetScopeUserFromCtx(ctx context.Context) (scope.User, bool) {
	u, ok := ctx.Value(ScopeUserKey).(scope.User)
	return u, ok
}

func GetUserIDFromCtx(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// RequestedByFromCtx returns a display name for audit columns.
func RequestedByFromCtx(ctx context.Context, userID string) string {
	if s := GetSessionFromCtx(ctx); s != nil {
		if strings.TrimSpace(s.Name) != "" {
			return s.Name
		}
		if strings.TrimSpace(s.UserID) != "" {
			return s.UserID
		}
	}
	for _, s := range auth.GetActiveSessions() {
		if s.UserID == userID {
			return s.Name
		}
	}
	return ""
}

// IsManagerRole reports whether the role may change proposal statuses and
// manage users.
func IsManagerRole(u scope.User) bool {
	return u.Role == scope.RoleAdmin || u.Role == scope.RoleManager
}
