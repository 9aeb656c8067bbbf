package poller

import (
	"sync"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrFetchInProgress is returned when another caller already holds the
	// order-fetch lock.
	ErrFetchInProgress = errors.New("order fetch already in progress")
	// ErrFetchTooSoon is returned when the minimum spacing since the last
	// fetch has not elapsed yet.
	ErrFetchTooSoon = errors.New("order fetch rate limited")
)

// Gate is the global order-fetch lock shared by every caller, with a minimum
// spacing between consecutive fetches. Contenders fail fast; nothing blocks
// or queues.
type Gate struct {
	min time.Duration
	now func() time.Time

	mu     sync.Mutex
	locked bool
	last   time.Time
}

func NewGate(min time.Duration) *Gate {
	return &Gate{min: min, now: time.Now}
}

// Acquire takes the lock or fails immediately.
func (g *Gate) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.locked {
		return ErrFetchInProgress
	}
	if now := g.now(); !g.last.IsZero() && now.Sub(g.last) < g.min {
		return ErrFetchTooSoon
	}
	g.locked = true
	return nil
}

// Release frees the lock and stamps the spacing window.
func (g *Gate) Release() {
	g.mu.Lock()
	g.locked = false
	g.last = g.now()
	g.mu.Unlock()
}
