// Package alerts keeps the in-memory rolling window of recent alerts that
// backs the live dashboard feed.
package alerts

import (
	"sync"

	"resilience-alerting/internal/models"
)

// DefaultCap is the number of recent alerts retained per organization when no
// cap is given.
const DefaultCap = 10

// Window holds the most recent alerts per organization, newest first. Each
// organization gets its own buffer with its own cap, so one tenant's volume
// never evicts another's. Alerts are never removed explicitly, only aged out
// once the cap is exceeded.
type Window struct {
	mu   sync.Mutex
	cap  int
	bufs map[string][]models.Alert
}

// NewWindow returns a Window retaining at most capacity alerts per
// organization.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Window{cap: capacity, bufs: make(map[string][]models.Alert)}
}

// Add prepends an alert to its organization's buffer, evicting the oldest
// entry when that buffer is full.
func (w *Window) Add(a models.Alert) {
	w.mu.Lock()
	defer w.mu.Unlock()
	buf := append([]models.Alert{a}, w.bufs[a.OrgID]...)
	if len(buf) > w.cap {
		buf = buf[:w.cap]
	}
	w.bufs[a.OrgID] = buf
}

// Acknowledge marks the alert with the given id as acknowledged within the
// organization's buffer. It reports whether the alert was found.
func (w *Window) Acknowledge(orgID, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	buf := w.bufs[orgID]
	for i := range buf {
		if buf[i].ID == id {
			buf[i].Acknowledged = true
			return true
		}
	}
	return false
}

// List returns a snapshot of the organization's window, newest first.
func (w *Window) List(orgID string) []models.Alert {
	w.mu.Lock()
	defer w.mu.Unlock()
	buf := w.bufs[orgID]
	out := make([]models.Alert, len(buf))
	copy(out, buf)
	return out
}

// CountUnacknowledged returns how many of the organization's alerts of the
// given category are still unacknowledged. An empty category counts across
// all categories.
func (w *Window) CountUnacknowledged(orgID string, category models.Category) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, a := range w.bufs[orgID] {
		if a.Acknowledged {
			continue
		}
		if category == "" || a.Category == category {
			n++
		}
	}
	return n
}
