// Package agent orchestrates the order workflow: polling the backend for the
// selected store, surfacing new orders, approving them, and printing
// receipts.
package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/easycorest/easyrest-agent/internal/backend"
	"github.com/easycorest/easyrest-agent/internal/domain/localorder"
	"github.com/easycorest/easyrest-agent/internal/domain/order"
	"github.com/easycorest/easyrest-agent/internal/poller"
)

var (
	ErrNoStoreSelected = errors.New("no store selected")
	ErrOrderNotFound   = errors.New("order not found")
)

// Backend is the slice of the REST client the agent needs.
type Backend interface {
	AggregatedOrders(ctx context.Context, storeID string) (*backend.OrdersResult, error)
	Approve(ctx context.Context, req *localorder.Request) error
	ResolveOrderID(ctx context.Context, orderID, platformName string) (string, error)
	ReceiptHTML(ctx context.Context, localOrderID string) (string, error)
	TriggerTrendyolSync(ctx context.Context, storeID string) error
	TrendyolRefundReport(ctx context.Context, storeID string) error
	YemekSepetiRefundReport(ctx context.Context) error
}

type Printer interface {
	Print(ctx context.Context, html string) error
}

type Recorder interface {
	Record(o *order.Order, fetchedAt time.Time) error
}

type Session interface {
	SelectedStore() string
	SetSelectedStore(id string) error
	AutoApprove() bool
}

// Notifier receives orders that appeared for the first time still
// unacknowledged. Used for the new-order sound and UI badges.
type Notifier func(fresh []order.Order)

// Config carries the poller timings.
type Config struct {
	RefreshInterval           time.Duration
	SyncInterval              time.Duration
	SyncTimeout               time.Duration
	TrendyolRefundInterval    time.Duration
	YemekSepetiRefundInterval time.Duration
	MinFetchSpacing           time.Duration
}

func (c *Config) setDefaults() {
	if c.RefreshInterval == 0 {
		c.RefreshInterval = 10 * time.Second
	}
	if c.SyncInterval == 0 {
		c.SyncInterval = 11 * time.Second
	}
	if c.SyncTimeout == 0 {
		c.SyncTimeout = 30 * time.Second
	}
	if c.TrendyolRefundInterval == 0 {
		c.TrendyolRefundInterval = time.Hour
	}
	if c.YemekSepetiRefundInterval == 0 {
		c.YemekSepetiRefundInterval = 3 * time.Hour
	}
	if c.MinFetchSpacing == 0 {
		c.MinFetchSpacing = 2 * time.Second
	}
}

type Deps struct {
	Backend Backend
	Printer Printer
	Session Session
	Facade  *order.Facade
	Builder *localorder.Builder
	// Archive and Notify are optional.
	Archive Recorder
	Notify  Notifier
}

// Service is the application core behind the status API and the poller set.
type Service struct {
	lg      *zap.Logger
	cfg     Config
	backend Backend
	printer Printer
	session Session
	facade  *order.Facade
	builder *localorder.Builder
	archive Recorder
	notify  Notifier

	gate    *poller.Gate
	pollers *poller.Manager

	mu      sync.RWMutex
	orders  []order.Order
	summary order.Summary
	seen    map[string]struct{}
}

func New(lg *zap.Logger, cfg Config, deps Deps) *Service {
	cfg.setDefaults()
	s := &Service{
		lg:      lg.Named("agent"),
		cfg:     cfg,
		backend: deps.Backend,
		printer: deps.Printer,
		session: deps.Session,
		facade:  deps.Facade,
		builder: deps.Builder,
		archive: deps.Archive,
		notify:  deps.Notify,
		gate:    poller.NewGate(cfg.MinFetchSpacing),
		seen:    make(map[string]struct{}),
	}
	s.pollers = poller.NewManager(lg,
		poller.New(lg, "orders", cfg.RefreshInterval, 0, s.pollOrders),
		poller.New(lg, "trendyol-sync", cfg.SyncInterval, cfg.SyncTimeout,
			func(ctx context.Context, storeID string) error {
				return s.backend.TriggerTrendyolSync(ctx, storeID)
			}),
		poller.New(lg, "trendyol-refunds", cfg.TrendyolRefundInterval, 0,
			func(ctx context.Context, storeID string) error {
				return s.backend.TrendyolRefundReport(ctx, storeID)
			}),
		poller.New(lg, "yemeksepeti-refunds", cfg.YemekSepetiRefundInterval, 0,
			func(ctx context.Context, storeID string) error {
				return s.backend.YemekSepetiRefundReport(ctx)
			}),
	)
	return s
}

// pollOrders is the background refresh tick. Gate contention is routine
// here, not a failure.
func (s *Service) pollOrders(ctx context.Context, storeID string) error {
	err := s.refreshStore(ctx, storeID)
	if errors.Is(err, poller.ErrFetchInProgress) || errors.Is(err, poller.ErrFetchTooSoon) {
		s.lg.Debug("Refresh tick skipped", zap.Error(err))
		return nil
	}
	return err
}

// Refresh is the user-triggered fetch for the selected store. Contenders
// fail fast with the gate's error.
func (s *Service) Refresh(ctx context.Context) error {
	return s.refreshStore(ctx, s.session.SelectedStore())
}

func (s *Service) refreshStore(ctx context.Context, storeID string) error {
	if storeID == "" {
		return ErrNoStoreSelected
	}
	if err := s.gate.Acquire(); err != nil {
		return err
	}
	defer s.gate.Release()

	res, err := s.backend.AggregatedOrders(ctx, storeID)
	if err != nil {
		return errors.Wrap(err, "refresh")
	}
	s.facade.Sort(res.Orders)

	now := time.Now()
	var fresh []order.Order
	s.mu.Lock()
	for i := range res.Orders {
		o := &res.Orders[i]
		if s.archive != nil {
			if err := s.archive.Record(o, now); err != nil {
				s.lg.Warn("Archive write failed", zap.String("order_id", o.ID), zap.Error(err))
			}
		}
		if _, ok := s.seen[o.ID]; ok {
			continue
		}
		s.seen[o.ID] = struct{}{}
		if s.facade.IsNew(o) {
			fresh = append(fresh, *o)
		}
	}
	s.orders = res.Orders
	s.summary = res.Summary
	s.mu.Unlock()

	if len(fresh) == 0 {
		return nil
	}
	s.lg.Info("New orders received",
		zap.String("store_id", storeID),
		zap.Int("count", len(fresh)),
	)
	if s.notify != nil {
		s.notify(fresh)
	}
	if s.session.AutoApprove() {
		for i := range fresh {
			if err := s.ApproveOrder(ctx, fresh[i].ID); err != nil {
				s.lg.Warn("Auto-approve failed",
					zap.String("order_id", fresh[i].ID),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Orders returns a copy of the current snapshot.
func (s *Service) Orders() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]order.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

func (s *Service) Summary() order.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

func (s *Service) find(id string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.orders {
		o := &s.orders[i]
		if o.ID == id || s.facade.OrderID(o) == id {
			clone := *o
			return &clone, nil
		}
	}
	return nil, errors.Wrapf(ErrOrderNotFound, "order %s", id)
}

// ApproveOrder builds and submits the approval for one cached order.
func (s *Service) ApproveOrder(ctx context.Context, id string) error {
	o, err := s.find(id)
	if err != nil {
		return err
	}
	req := s.builder.BuildApproval(o, s.session.SelectedStore())
	if err := s.backend.Approve(ctx, req); err != nil {
		return errors.Wrap(err, "approve order")
	}
	s.lg.Info("Order approved",
		zap.String("order_id", req.OrderID),
		zap.String("platform", req.Platform),
	)
	return nil
}

// PrintReceipt resolves the internal order id, fetches the receipt HTML, and
// hands it to the printer bridge.
func (s *Service) PrintReceipt(ctx context.Context, id string) error {
	o, err := s.find(id)
	if err != nil {
		return err
	}
	localID, err := s.backend.ResolveOrderID(ctx,
		s.facade.ReceiptOrderID(o), strings.ToLower(string(o.Type)))
	if err != nil {
		return errors.Wrap(err, "resolve for print")
	}
	html, err := s.backend.ReceiptHTML(ctx, localID)
	if err != nil {
		return errors.Wrap(err, "fetch receipt")
	}
	if err := s.printer.Print(ctx, html); err != nil {
		return errors.Wrap(err, "print receipt")
	}
	return nil
}

// SwitchStore persists the selection, clears cached state, and restarts the
// poller set scoped to the new store.
func (s *Service) SwitchStore(ctx context.Context, storeID string) error {
	if storeID == "" {
		return ErrNoStoreSelected
	}
	if err := s.session.SetSelectedStore(storeID); err != nil {
		return errors.Wrap(err, "persist store selection")
	}

	s.mu.Lock()
	s.orders = nil
	s.summary = order.Summary{}
	s.seen = make(map[string]struct{})
	s.mu.Unlock()

	s.pollers.Switch(ctx, storeID)
	s.lg.Info("Switched store", zap.String("store_id", storeID))

	if err := s.refreshStore(ctx, storeID); err != nil {
		s.lg.Warn("Initial refresh after switch failed", zap.Error(err))
	}
	return nil
}

// Start brings the pollers up against the persisted store selection, if any.
func (s *Service) Start(ctx context.Context) {
	if storeID := s.session.SelectedStore(); storeID != "" {
		s.pollers.Switch(ctx, storeID)
	}
}

// Stop tears the pollers down.
func (s *Service) Stop() {
	s.pollers.Stop()
}

// Status reports poller state for the status endpoint.
func (s *Service) Status() map[string]bool {
	return s.pollers.Status()
}

// ActiveStore is the store the pollers currently run against.
func (s *Service) ActiveStore() string {
	return s.pollers.StoreID()
}
