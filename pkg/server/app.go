package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	collector   *usecase.TickCollector
	consumer    *pkgkafka.Consumer
	tickHandler pkgkafka.MessageHandler
	signals     *usecase.SignalConsumer
	archive     domrepo.DecisionArchive
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	closers     []io.Closer
}

// New creates an App. collector, consumer and archive may be nil when the
// corresponding subsystem is not configured.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	tickHandler pkgkafka.MessageHandler,
	signals *usecase.SignalConsumer,
	archive domrepo.DecisionArchive,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		collector:   collector,
		consumer:    consumer,
		tickHandler: tickHandler,
		signals:     signals,
		archive:     archive,
		httpHandler: httpHandler,
	}
}

// AddCloser registers a resource closed on shutdown, after all loops stop.
func (a *App) AddCloser(c io.Closer) { a.closers = append(a.closers, c) }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.archive != nil {
		if err := a.archive.Init(ctx); err != nil {
			a.log.Warn("decision archive init failed", applogger.Error(err))
		}
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.collector != nil {
		if err := a.collector.Start(ctx); err != nil {
			a.log.Error("tick collector start error", applogger.Error(err))
			return err
		}
		a.log.Info("tick collector started", applogger.Any("symbols", a.cfg.Feed.Symbols))
	}

	if a.consumer != nil && a.tickHandler != nil {
		a.consumer.RegisterHandler(a.tickHandler)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.tickHandler.Topic()))
	}

	a.signals.Start(ctx)
	a.log.Info("signal consumer started")

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops ingestion first, then the decision loop, then servers and
// clients.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("tick collector stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.signals.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Warn("archive close error", applogger.Error(err))
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
