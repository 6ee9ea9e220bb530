package tracking

import (
	"sync"
	"time"
)

// Handle is an explicit token for one user's location-tracking loop. It is
// owned by the session that started it; stopping the session stops the loop.
// There is no package-level timer state.
type Handle struct {
	userID   string
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	lastPing time.Time
}

// Start launches a tracking loop for the user. onStale is invoked when no
// ping has been recorded for longer than twice the interval.
func Start(userID string, interval time.Duration, onStale func(userID string, since time.Duration)) *Handle {
	h := &Handle{
		userID:   userID,
		interval: interval,
		stopCh:   make(chan struct{}),
		lastPing: time.Now(),
	}
	go h.loop(onStale)
	return h
}

func (h *Handle) loop(onStale func(string, time.Duration)) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.mu.Lock()
			since := time.Since(h.lastPing)
			h.mu.Unlock()
			if since > 2*h.interval && onStale != nil {
				onStale(h.userID, since)
			}
		}
	}
}

// Ping records that the device reported a location.
func (h *Handle) Ping() {
	h.mu.Lock()
	h.lastPing = time.Now()
	h.mu.Unlock()
}

// Stop terminates the loop. Safe to call more than once.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *Handle) UserID() string { return h.userID }
