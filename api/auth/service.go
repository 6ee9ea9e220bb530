package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"MedFieldCRM/internal/dashboard"
	"MedFieldCRM/internal/logger"
	"MedFieldCRM/internal/serviceiface"
	"MedFieldCRM/internal/tracking"

	"github.com/google/uuid"
)

type UserSession struct {
	SessionID     string
	UserID        string
	Name          string
	Email         string
	Role          string
	RegionID      string // empty when the user has no region assigned
	LastLoginTime string
	ClientIP      string
	IsLoggedIn    bool

	loc *tracking.Handle
}

type AuthService struct {
	db           *sql.DB
	maxUsers     int
	pingInterval time.Duration
	users        map[string]*UserSession
	userPointers map[string]*UserSession
	mu           sync.Mutex
	stopCh       chan struct{}
}

func NewAuthService(db *sql.DB, maxUsers int, pingIntervalSec int) serviceiface.Service {
	if pingIntervalSec <= 0 {
		pingIntervalSec = 120
	}
	return &AuthService{
		db:           db,
		maxUsers:     maxUsers,
		pingInterval: time.Duration(pingIntervalSec) * time.Second,
		users:        make(map[string]*UserSession),
		userPointers: make(map[string]*UserSession),
		stopCh:       make(chan struct{}),
	}
}

func (a *AuthService) Name() string { return "auth" }

func (a *AuthService) Start() error {
	return nil
}

func (a *AuthService) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.users {
		if s.loc != nil {
			s.loc.Stop()
		}
	}
	close(a.stopCh)
	return nil
}

// Login authenticates against the users table and records a login location
// event. A user who is already logged in gets their existing session back.
func (a *AuthService) Login(email, password, clientIP string, lat, lng float64) (*UserSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, session := range a.users {
		if session.Email == email && session.IsLoggedIn {
			session.LastLoginTime = time.Now().Format(time.RFC3339)
			session.ClientIP = clientIP
			logger.Audit(fmt.Sprintf("User %s re-logged in, returning existing session", email))
			return session, nil
		}
	}

	if a.maxUsers > 0 && len(a.users) >= a.maxUsers {
		return nil, errors.New("maximum concurrent users reached")
	}

	var (
		userID, name, userEmail string
		role, status            sql.NullString
		regionID                sql.NullString
	)

	query := `
    SELECT id, employee_name, email, role, region_id, status
    FROM users
    WHERE email = $1 AND password = $2
    `

	err := a.db.QueryRow(query, email, password).Scan(
		&userID, &name, &userEmail, &role, &regionID, &status,
	)
	if err != nil {
		return nil, errors.New("invalid credentials or user not found")
	}
	if status.String != "active" {
		return nil, errors.New("account is deactivated")
	}

	session := &UserSession{
		SessionID:     uuid.NewString(),
		UserID:        userID,
		Name:          name,
		Email:         userEmail,
		Role:          role.String,
		RegionID:      regionID.String,
		LastLoginTime: time.Now().Format(time.RFC3339),
		ClientIP:      clientIP,
		IsLoggedIn:    true,
	}

	// Each session owns its tracking handle. No global timer.
	session.loc = tracking.Start(userID, a.pingInterval, func(uid string, since time.Duration) {
		logger.Warn(fmt.Sprintf("no location ping from user %s for %s", uid, since.Round(time.Second)))
	})

	a.users[session.SessionID] = session
	a.userPointers[userID] = session

	a.recordLocation(userID, lat, lng, "login")
	logger.Audit(fmt.Sprintf("User logged in: %s", email))

	return session, nil
}

func (a *AuthService) Logout(sessionID string, lat, lng float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	session, exists := a.users[sessionID]
	if !exists {
		return errors.New("session not found")
	}
	if session.loc != nil {
		session.loc.Stop()
	}
	delete(a.users, sessionID)
	delete(a.userPointers, session.UserID)

	a.recordLocation(session.UserID, lat, lng, "logout")
	logger.Audit("User logged out: " + session.UserID)

	return nil
}

// recordLocation persists a location event and pushes it onto the live
// feed. Fire-and-forget: a failed save must never block login or logout.
func (a *AuthService) recordLocation(userID string, lat, lng float64, event string) {
	now := time.Now()
	go func() {
		_, err := a.db.Exec(
			`INSERT INTO user_locations (user_id, latitude, longitude, event, recorded_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			userID, lat, lng, event, now,
		)
		if err != nil {
			logger.Warn(fmt.Sprintf("failed to save %s location for user %s: %v", event, userID, err))
			return
		}
		dashboard.GlobalHub().Publish(dashboard.LocationEvent{
			UserID:     userID,
			Latitude:   lat,
			Longitude:  lng,
			Event:      event,
			RecordedAt: now.Format(time.RFC3339),
		})
	}()
}

// NotePing marks the session's tracking handle alive. Called by the
// location service when a ping arrives.
func (a *AuthService) NotePing(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.userPointers[userID]; ok && s.loc != nil {
		s.loc.Ping()
	}
}

var globalAuthService *AuthService

// SetGlobalAuthService sets the global AuthService instance
func SetGlobalAuthService(svc *AuthService) {
	globalAuthService = svc
}

// GetActiveSessions returns active sessions from the global AuthService
func GetActiveSessions() []*UserSession {
	if globalAuthService == nil {
		return nil
	}
	return globalAuthService.GetActiveSessions()
}

// NotePingGlobal forwards a ping to the global AuthService when wired.
func NotePingGlobal(userID string) {
	if globalAuthService != nil {
		globalAuthService.NotePing(userID)
	}
}

func (a *AuthService) GetActiveSessions() []*UserSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	sessions := make([]*UserSession, 0, len(a.users))
	for _, s := range a.users {
		sessions = append(sessions, s)
	}
	return sessions
}
