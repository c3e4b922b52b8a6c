// Package main provides the worker service entry point. The worker relays the
// outbox, serves health and metrics, and tails events forwarded to Redis.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/lllypuk/corebus/internal/app"
	"github.com/lllypuk/corebus/internal/bus"
	"github.com/lllypuk/corebus/internal/config"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/infrastructure/eventbus"
	"github.com/lllypuk/corebus/internal/infrastructure/httpserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		//nolint:sloglint // No context available before logger setup
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	if runErr := run(cfg, logger); runErr != nil {
		logger.Error("worker service failed", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
	logger.Info("worker service shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	container, err := app.NewContainer(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer closeCancel()
		if closeErr := container.Close(closeCtx); closeErr != nil {
			logger.Error("failed to close container", slog.String("error", closeErr.Error()))
		}
	}()

	logger.InfoContext(ctx, "starting workers",
		slog.Bool("outbox_enabled", container.OutboxWorker != nil),
		slog.Bool("redis_listener_enabled", container.Redis != nil),
		slog.String("metrics_addr", cfg.App.MetricsAddr),
	)

	var wg sync.WaitGroup

	if container.OutboxWorker != nil {
		wg.Go(func() {
			if runErr := container.OutboxWorker.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
				logger.Error("outbox worker error", slog.String("error", runErr.Error()))
			}
		})
	}

	if container.Redis != nil {
		listener, listenErr := newAuditListener(container, logger)
		if listenErr != nil {
			return listenErr
		}
		wg.Go(func() {
			if runErr := listener.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
				logger.Error("redis listener error", slog.String("error", runErr.Error()))
			}
		})
	}

	if cfg.App.MetricsAddr != "" {
		server := httpserver.NewServer(httpserver.DefaultServerConfig(cfg.App.MetricsAddr), logger)
		server.RegisterHealth(container.HealthCheckers()...)
		server.RegisterMetrics(container.Metrics)

		wg.Go(func() {
			if startErr := server.Start(); startErr != nil {
				logger.Error("admin server error", slog.String("error", startErr.Error()))
				cancel()
			}
		})
		wg.Go(func() {
			<-ctx.Done()
			if shutdownErr := server.Shutdown(context.Background()); shutdownErr != nil {
				logger.Error("failed to shutdown admin server", slog.String("error", shutdownErr.Error()))
			}
		})
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

// newAuditListener relays events from Redis into a separate bus that logs
// them. A separate bus keeps remote events away from the forwarder.
func newAuditListener(container *app.Container, logger *slog.Logger) (*eventbus.Listener, error) {
	audit := bus.NewEventBus(bus.WithLogger(logger))
	for _, eventType := range app.CompanyEventTypes {
		if err := audit.Subscribe(eventType, func(ctx context.Context, evt event.DomainEvent) error {
			logger.InfoContext(ctx, "event received",
				slog.String("event_type", evt.EventType()),
				slog.String("event_id", evt.EventID()),
				slog.String("aggregate_id", evt.AggregateID()),
				slog.Int("version", evt.Version()),
			)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	return eventbus.NewListener(
		container.Redis,
		audit,
		container.Registry,
		app.CompanyEventTypes,
		eventbus.WithLogger(logger),
		eventbus.WithChannelPrefix(container.Config.EventBus.RedisChannelPrefix),
	), nil
}

// handleShutdown listens for OS signals and cancels the context.
func handleShutdown(cancel context.CancelFunc, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-quit
	logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	cancel()
}
