package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"MedFieldCRM/api/auth"
)

// ExtractUserID pulls user_id out of a JSON or multipart body and restores
// the body for downstream handlers.
func ExtractUserID(r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")

	if strings.HasPrefix(ct, "application/json") {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewBuffer(body))

		var bodyMap map[string]interface{}
		if err := json.Unmarshal(body, &bodyMap); err != nil {
			return "", errors.New("invalid json body")
		}
		uid, _ := bodyMap["user_id"].(string)
		if uid == "" {
			return "", errors.New("user_id missing")
		}
		return uid, nil
	}

	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return "", err
		}
		uid := r.FormValue("user_id")
		if uid == "" {
			return "", errors.New("user_id missing")
		}
		return uid, nil
	}

	// GET-style requests carry it as a query param
	if uid := r.URL.Query().Get("user_id"); uid != "" {
		return uid, nil
	}
	return "", errors.New("user_id missing")
}

// ValidateSession returns the active session for the user, or nil.
func ValidateSession(userID string) *auth.UserSession {
	for _, session := range auth.GetActiveSessions() {
		if session.UserID == userID {
			return session
		}
	}
	return nil
}
