package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinScore/internal/handler/ws"
	mid "FinScore/internal/middleware"
	"FinScore/internal/usecase"
	"FinScore/pkg/config"
	xhttp "FinScore/pkg/http"
	pkgkafka "FinScore/pkg/kafka"
	applogger "FinScore/pkg/logger"
)

// Closer is an infrastructure resource released on shutdown, in registration order.
type Closer struct {
	Name  string
	Close func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	pipeline   *mid.SnapshotPipeline
	recorder   *usecase.SnapshotRecorder
	refresher  *usecase.RegimeRefresher
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	hub        *ws.Hub
	closers    []Closer
}

// Components groups what New needs. Refresher, Consumer, Handler and Hub are optional.
type Components struct {
	Logger     *applogger.Logger
	HTTPServer *xhttp.Server
	Pipeline   *mid.SnapshotPipeline
	Recorder   *usecase.SnapshotRecorder
	Refresher  *usecase.RegimeRefresher
	Consumer   *pkgkafka.Consumer
	Handler    pkgkafka.MessageHandler
	Hub        *ws.Hub
	Closers    []Closer
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, c Components) *App {
	l := c.Logger
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{
		cfg:        cfg,
		logger:     l,
		httpServer: c.HTTPServer,
		pipeline:   c.Pipeline,
		recorder:   c.Recorder,
		refresher:  c.Refresher,
		consumer:   c.Consumer,
		kh:         c.Handler,
		hub:        c.Hub,
		closers:    c.Closers,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		_ = a.Shutdown(context.Background())
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	a.logger.Info("shutdown signal received", applogger.String("signal", sig.String()))
	// ctx stays live so the pipeline drains its buffer instead of abandoning it
	return a.Shutdown(context.Background())
}

// Start launches background workers and the HTTP server without blocking.
func (a *App) Start(ctx context.Context) error {
	if a.pipeline != nil {
		a.pipeline.Start(ctx)
		a.logger.Info("snapshot pipeline started", applogger.String("backend", a.cfg.History.Backend))
	}

	if a.refresher != nil {
		a.refresher.Start(ctx)
		a.logger.Info("regime refresher started",
			applogger.String("index", a.cfg.Regime.IndexSymbol),
			applogger.Duration("interval", a.cfg.Regime.RefreshInterval),
		)
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.logger.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.logger.Error("http server start error", applogger.Error(err))
			return err
		}
	}
	return nil
}

// Shutdown stops intake first, then drains buffered snapshots, then releases
// clients. Errors are logged and the first one is returned.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")
	var first error
	keep := func(err error) {
		if first == nil {
			first = err
		}
	}

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(sctx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
			keep(err)
		}
	}

	if a.hub != nil {
		a.hub.Close()
	}

	if a.refresher != nil {
		a.refresher.Stop()
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(sctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
			keep(err)
		}
	}

	if a.pipeline != nil {
		if err := a.pipeline.Stop(sctx); err != nil {
			a.logger.Warn("snapshot pipeline drain incomplete",
				applogger.Int("pending", a.pipeline.Depth()),
				applogger.Error(err),
			)
			keep(err)
		}
	}

	// flush aggregated logs while the producer is still open
	a.logger.RemoveCollector()

	if a.recorder != nil {
		a.recorder.Close()
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
			keep(err)
		}
	}

	a.logger.Info("shutdown complete")
	return first
}
