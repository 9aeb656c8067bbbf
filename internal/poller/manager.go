package poller

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Manager owns the poller set for the active store. Switching stores tears
// the running loops down before starting replacements, so loops never
// outlive the store they were started for.
type Manager struct {
	lg      *zap.Logger
	pollers []*Poller

	mu      sync.Mutex
	cancel  context.CancelFunc
	group   *errgroup.Group
	storeID string
}

func NewManager(lg *zap.Logger, pollers ...*Poller) *Manager {
	return &Manager{
		lg:      lg.Named("pollers"),
		pollers: pollers,
	}
}

// Switch restarts every poller against the given store. A previous set, if
// any, is canceled and awaited first.
func (m *Manager) Switch(ctx context.Context, storeID string) {
	m.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	for _, p := range m.pollers {
		p := p
		g.Go(func() error {
			return p.Run(gctx, storeID)
		})
	}
	m.cancel = cancel
	m.group = g
	m.storeID = storeID
	m.lg.Info("Pollers started", zap.String("store_id", storeID))
}

// Stop cancels the running poller set and waits for the loops to exit.
// In-flight ticks are left to finish and be discarded.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, g := m.cancel, m.group
	m.cancel, m.group = nil, nil
	storeID := m.storeID
	m.storeID = ""
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	_ = g.Wait()
	m.lg.Info("Pollers stopped", zap.String("store_id", storeID))
}

// StoreID returns the store the pollers currently run against, empty when
// stopped.
func (m *Manager) StoreID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeID
}

// Status reports the in-flight flag per poller, keyed by poller name.
func (m *Manager) Status() map[string]bool {
	status := make(map[string]bool, len(m.pollers))
	for _, p := range m.pollers {
		status[p.Name()] = p.InProgress()
	}
	return status
}
