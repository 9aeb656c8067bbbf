// Package poller runs the background sync loops against the active store.
// Every loop carries a non-overlap guard: a tick that fires while the
// previous tick is still in flight is skipped, never queued.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Func is one poll tick against a store.
type Func func(ctx context.Context, storeID string) error

// Poller fires fn on a fixed interval. An optional watchdog force-clears the
// in-progress flag after the given duration so that an orphaned request can
// never wedge the loop permanently; the stale request itself is left to
// finish and be discarded.
type Poller struct {
	name     string
	interval time.Duration
	watchdog time.Duration
	fn       Func
	lg       *zap.Logger

	mu         sync.Mutex
	inProgress bool
}

func New(lg *zap.Logger, name string, interval, watchdog time.Duration, fn Func) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		watchdog: watchdog,
		fn:       fn,
		lg:       lg.Named(name),
	}
}

func (p *Poller) Name() string { return p.name }

// InProgress reports whether a tick is currently in flight.
func (p *Poller) InProgress() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inProgress
}

// Run loops until the context is canceled. A tick already in flight makes
// the next one a no-op.
func (p *Poller) Run(ctx context.Context, storeID string) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !p.begin() {
				p.lg.Debug("Tick skipped, previous still in flight",
					zap.String("store_id", storeID),
				)
				continue
			}
			go p.tick(ctx, storeID)
		}
	}
}

func (p *Poller) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inProgress {
		return false
	}
	p.inProgress = true
	return true
}

func (p *Poller) end() {
	p.mu.Lock()
	p.inProgress = false
	p.mu.Unlock()
}

func (p *Poller) tick(ctx context.Context, storeID string) {
	var dog *time.Timer
	if p.watchdog > 0 {
		dog = time.AfterFunc(p.watchdog, func() {
			p.mu.Lock()
			stuck := p.inProgress
			p.inProgress = false
			p.mu.Unlock()
			if stuck {
				p.lg.Warn("Watchdog cleared stuck poll",
					zap.String("store_id", storeID),
					zap.Duration("after", p.watchdog),
				)
			}
		})
	}
	defer func() {
		if dog != nil {
			dog.Stop()
		}
		p.end()
	}()

	if err := p.fn(ctx, storeID); err != nil && ctx.Err() == nil {
		p.lg.Warn("Poll failed",
			zap.String("store_id", storeID),
			zap.Error(err),
		)
	}
}
