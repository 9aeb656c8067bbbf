package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/easycorest/easyrest-agent/internal/agent"
	"github.com/easycorest/easyrest-agent/internal/archive"
	"github.com/easycorest/easyrest-agent/internal/backend"
	"github.com/easycorest/easyrest-agent/internal/control"
	"github.com/easycorest/easyrest-agent/internal/domain/localorder"
	"github.com/easycorest/easyrest-agent/internal/domain/order"
	"github.com/easycorest/easyrest-agent/internal/printer"
	"github.com/easycorest/easyrest-agent/internal/session"
	"github.com/easycorest/easyrest-agent/pkg/health"
	"github.com/easycorest/easyrest-agent/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the pollers and the local control
// server, and handles graceful shutdown. It is the single wiring point for
// the agent.
func Run(ctx context.Context, lg *zap.Logger, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("backend", cfg.BackendURL),
		zap.String("control", cfg.ControlAddr),
		zap.String("data_dir", cfg.DataDir))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return errors.Wrap(err, "create data dir")
	}

	// Session state (token, selected store, preferences).
	sess, err := session.Open(lg, filepath.Join(cfg.DataDir, "session"))
	if err != nil {
		return errors.Wrap(err, "open session store")
	}
	defer sess.Close()

	if cfg.Token != "" {
		if err := sess.SetToken(cfg.Token); err != nil {
			return errors.Wrap(err, "persist token")
		}
	}

	// Append-only order archive.
	arc, err := archive.Open(lg, filepath.Join(cfg.DataDir, "orders.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "open archive")
	}
	defer arc.Close()

	facade := order.NewFacade(lg)
	builder := localorder.NewBuilder(lg, facade)

	api := backend.New(backend.Options{
		BaseURL: cfg.BackendURL,
		Token:   sess.Token,
		Logger:  lg,
		Facade:  facade,
	})
	prn := printer.New(lg, cfg.PrinterPort)

	svc := agent.New(lg, agent.Config{
		RefreshInterval:           cfg.Pollers.RefreshInterval,
		SyncInterval:              cfg.Pollers.SyncInterval,
		SyncTimeout:               cfg.Pollers.SyncTimeout,
		TrendyolRefundInterval:    cfg.Pollers.TrendyolRefundInterval,
		YemekSepetiRefundInterval: cfg.Pollers.YemekSepetiRefundInterval,
		MinFetchSpacing:           cfg.Pollers.MinFetchSpacing,
	}, agent.Deps{
		Backend: api,
		Printer: prn,
		Session: sess,
		Facade:  facade,
		Builder: builder,
		Archive: arc,
		Notify: func(fresh []order.Order) {
			for i := range fresh {
				lg.Info("New order",
					zap.String("id", facade.OrderID(&fresh[i])),
					zap.String("platform", string(fresh[i].Type)))
			}
		},
	})

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("backend", 5*time.Second,
		health.HTTPGetCheck(http.DefaultClient, cfg.BackendURL))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	// Control server: health endpoints + agent routes on one mux.
	ctrl := control.New(lg, svc, facade)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	ctrl.Routes(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.ControlAddr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	svc.Start(ctx)
	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		svc.Stop()
		if err := arc.Flush(); err != nil {
			lg.Warn("Archive flush failed", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Control server listening", zap.String("addr", cfg.ControlAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "control server")
	}
	<-shutdownDone
	return nil
}
