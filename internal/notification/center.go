package notification

import (
	"sync"
	"time"
)

type Notification struct {
	Message   string    `json:"message"`
	Kind      string    `json:"kind"` // info | warning
	CreatedAt time.Time `json:"created_at"`
}

// Center keeps per-user in-app notifications (proposal status changes,
// partial-write warnings). In-memory only; the mobile client polls.
type Center struct {
	mu      sync.Mutex
	byUser  map[string][]Notification
	maxKeep int
}

func NewCenter() *Center {
	return &Center{byUser: make(map[string][]Notification), maxKeep: 100}
}

func (c *Center) Push(userID, kind, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := append(c.byUser[userID], Notification{Message: message, Kind: kind, CreatedAt: time.Now()})
	if len(list) > c.maxKeep {
		list = list[len(list)-c.maxKeep:]
	}
	c.byUser[userID] = list
}

func (c *Center) For(userID string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.byUser[userID]))
	copy(out, c.byUser[userID])
	return out
}

func (c *Center) Clear(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byUser, userID)
}

var globalCenter = NewCenter()

func Push(userID, kind, message string) { globalCenter.Push(userID, kind, message) }
func For(userID string) []Notification  { return globalCenter.For(userID) }
func Clear(userID string)               { globalCenter.Clear(userID) }
