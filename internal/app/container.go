// Package app wires configuration, storage, buses and background workers
// into a single Container used by the commands under cmd/.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/corebus/internal/application/appcore"
	companyapp "github.com/lllypuk/corebus/internal/application/company"
	"github.com/lllypuk/corebus/internal/bus"
	"github.com/lllypuk/corebus/internal/config"
	"github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/event"
	"github.com/lllypuk/corebus/internal/infrastructure/eventbus"
	"github.com/lllypuk/corebus/internal/infrastructure/healthcheck"
	"github.com/lllypuk/corebus/internal/infrastructure/metrics"
	mongodbinfra "github.com/lllypuk/corebus/internal/infrastructure/mongodb"
	"github.com/lllypuk/corebus/internal/infrastructure/outbox"
	"github.com/lllypuk/corebus/internal/infrastructure/repository/memory"
	mongorepo "github.com/lllypuk/corebus/internal/infrastructure/repository/mongodb"
	"github.com/lllypuk/corebus/internal/infrastructure/repository/sqlite"
	"github.com/lllypuk/corebus/internal/infrastructure/telemetry"
	"github.com/lllypuk/corebus/internal/worker"
)

// Container initialization timeouts.
const (
	redisPingTimeout       = 5 * time.Second
	mongoDisconnectTimeout = 10 * time.Second
)

// CompanyEventTypes lists the event types forwarded to Redis.
var CompanyEventTypes = []string{
	company.EventTypeCreated,
	company.EventTypeRenamed,
	company.EventTypeDeactivated,
}

// Container holds all application dependencies and manages their lifecycle.
type Container struct {
	// Configuration
	Config *config.Config
	Logger *slog.Logger

	// Buses
	Commands *bus.CommandBus
	Queries  *bus.QueryBus
	Events   *bus.EventBus
	Registry *event.Registry

	// Storage and delivery
	Repository company.Repository
	Publisher  event.Publisher
	Outbox     appcore.Outbox
	Forwarder  *eventbus.Forwarder

	// Background workers; nil when direct delivery is configured
	OutboxWorker *worker.OutboxWorker

	// Observability
	Metrics *prometheus.Registry
	Tracing telemetry.Tracing

	// Infrastructure
	MongoDB *mongo.Client
	Redis   *redis.Client

	closers []func(context.Context) error
}

// ContainerOption configures Container.
type ContainerOption func(*Container)

// WithLogger sets the logger for the container.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		c.Logger = logger
	}
}

// NewContainer builds every dependency described by cfg. On error, resources
// acquired so far are released.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	c := &Container{
		Config:   cfg,
		Logger:   slog.Default(),
		Registry: event.NewRegistry(),
		Metrics:  prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	company.RegisterEvents(c.Registry)

	if err := c.setup(ctx); err != nil {
		if closeErr := c.Close(context.Background()); closeErr != nil {
			c.Logger.WarnContext(ctx, "failed to release resources after setup error",
				slog.String("error", closeErr.Error()),
			)
		}
		return nil, err
	}

	c.Logger.InfoContext(ctx, "container initialized",
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("delivery", cfg.EventBus.Delivery),
		slog.Bool("forward_to_redis", cfg.EventBus.ForwardToRedis),
		slog.Bool("tracing", c.Tracing.Enabled()),
	)

	return c, nil
}

func (c *Container) setup(ctx context.Context) error {
	if err := c.setupTelemetry(ctx); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	c.setupBuses()

	if err := c.setupStorage(ctx); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.setupDelivery(); err != nil {
		return fmt.Errorf("delivery: %w", err)
	}
	if err := c.setupForwarder(ctx); err != nil {
		return fmt.Errorf("redis forwarder: %w", err)
	}

	if err := companyapp.RegisterHandlers(c.Commands, c.Queries, c.Repository, c.Publisher, c.Logger); err != nil {
		return fmt.Errorf("register company handlers: %w", err)
	}

	return nil
}

func (c *Container) setupTelemetry(ctx context.Context) error {
	tracing, err := telemetry.Setup(ctx, c.Config.Telemetry)
	if err != nil {
		return err
	}
	c.Tracing = tracing
	c.closers = append(c.closers, tracing.Shutdown)
	return nil
}

func (c *Container) setupBuses() {
	c.Metrics.MustRegister(collectors.NewGoCollector())
	dispatchMetrics := metrics.NewDispatchMetrics(c.Metrics)

	middlewares := bus.WithMiddleware(
		bus.LoggingMiddleware(c.Logger),
		bus.TracingMiddleware(c.Tracing.Tracer),
		bus.MetricsMiddleware(dispatchMetrics),
	)

	c.Commands = bus.NewCommandBus(bus.WithLogger(c.Logger), middlewares)
	c.Queries = bus.NewQueryBus(bus.WithLogger(c.Logger), middlewares)
	c.Events = bus.NewEventBus(bus.WithLogger(c.Logger), bus.WithMetrics(dispatchMetrics))
}

func (c *Container) setupStorage(ctx context.Context) error {
	switch c.Config.Storage.Driver {
	case config.DriverMongoDB:
		if err := c.setupMongoDB(ctx); err != nil {
			return err
		}
		db := c.MongoDB.Database(c.Config.MongoDB.Database)
		c.Repository = mongorepo.NewCompanyRepository(
			db.Collection(mongodbinfra.CollectionCompanies),
			mongorepo.WithCompanyRepoLogger(c.Logger),
		)

	case config.DriverSQLite:
		repo, err := sqlite.Open(ctx, c.Config.SQLite.Path)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, func(context.Context) error { return repo.Close() })
		c.Repository = repo

	default:
		c.Repository = memory.NewCompanyRepository()
	}
	return nil
}

func (c *Container) setupMongoDB(ctx context.Context) error {
	clientOpts := options.Client().
		ApplyURI(c.Config.MongoDB.URI).
		SetMaxPoolSize(c.Config.MongoDB.MaxPoolSize)

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.MongoDB = client
	c.closers = append(c.closers, func(ctx context.Context) error {
		disconnectCtx, cancel := context.WithTimeout(ctx, mongoDisconnectTimeout)
		defer cancel()
		return client.Disconnect(disconnectCtx)
	})

	pingCtx, cancel := context.WithTimeout(ctx, c.Config.MongoDB.Timeout)
	defer cancel()
	if pingErr := client.Ping(pingCtx, nil); pingErr != nil {
		return fmt.Errorf("failed to ping: %w", pingErr)
	}

	c.Logger.InfoContext(ctx, "connected to MongoDB",
		slog.String("database", c.Config.MongoDB.Database),
	)

	indexCtx, indexCancel := context.WithTimeout(ctx, c.Config.MongoDB.Timeout)
	defer indexCancel()
	if indexErr := mongodbinfra.CreateAllIndexes(indexCtx, client.Database(c.Config.MongoDB.Database)); indexErr != nil {
		return fmt.Errorf("failed to create indexes: %w", indexErr)
	}

	return nil
}

// setupDelivery chooses where committed events go. With outbox delivery
// the outbox worker relays them to the event bus.
func (c *Container) setupDelivery() error {
	if !c.Config.UsesOutbox() {
		c.Publisher = c.Events
		return nil
	}

	storage := config.DriverMemory
	if c.MongoDB != nil {
		coll := c.MongoDB.Database(c.Config.MongoDB.Database).Collection(mongodbinfra.CollectionOutbox)
		c.Outbox = outbox.NewMongoOutbox(coll, outbox.WithLogger(c.Logger))
		storage = config.DriverMongoDB
	} else {
		c.Outbox = outbox.NewMemoryOutbox(c.Logger)
	}
	c.Publisher = c.Outbox

	relayMetrics := metrics.NewRelayMetrics(c.Metrics, storage)
	c.OutboxWorker = worker.NewOutboxWorker(
		c.Outbox,
		c.Events,
		c.Registry,
		worker.OutboxWorkerConfig{
			PollInterval:    c.Config.Outbox.PollInterval,
			BatchSize:       c.Config.Outbox.BatchSize,
			MaxRetries:      c.Config.Outbox.MaxRetries,
			CleanupAge:      c.Config.Outbox.CleanupAge,
			CleanupInterval: c.Config.Outbox.CleanupInterval,
			Enabled:         true,
		},
		worker.WithLogger(c.Logger),
		worker.WithMetrics(relayMetrics),
	)
	return nil
}

func (c *Container) setupForwarder(ctx context.Context) error {
	if !c.Config.EventBus.ForwardToRedis {
		return nil
	}

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
		PoolSize: c.Config.Redis.PoolSize,
	})
	client := c.Redis
	c.closers = append(c.closers, func(context.Context) error { return client.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if pingErr := c.Redis.Ping(pingCtx).Err(); pingErr != nil {
		return fmt.Errorf("failed to ping: %w", pingErr)
	}

	c.Logger.InfoContext(ctx, "connected to Redis",
		slog.String("addr", c.Config.Redis.Addr),
	)

	retry := eventbus.DefaultRetryConfig()
	retry.MaxRetries = c.Config.EventBus.RedisPublishRetries
	c.Forwarder = eventbus.NewForwarder(c.Redis,
		eventbus.WithLogger(c.Logger),
		eventbus.WithChannelPrefix(c.Config.EventBus.RedisChannelPrefix),
		eventbus.WithRetryConfig(retry),
	)
	return c.Forwarder.Attach(c.Events, CompanyEventTypes...)
}

// HealthCheckers returns a checker for every external component in use.
func (c *Container) HealthCheckers() []healthcheck.Checker {
	var checkers []healthcheck.Checker
	if c.MongoDB != nil {
		client := c.MongoDB
		checkers = append(checkers, healthcheck.NewPingChecker("mongodb", func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}))
	}
	if c.Redis != nil {
		client := c.Redis
		checkers = append(checkers, healthcheck.NewPingChecker("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	}
	if c.Outbox != nil {
		checkers = append(checkers, healthcheck.NewOutboxRelayChecker(c.Outbox, healthcheck.RelayLimits{
			MaxBacklog: c.Config.Outbox.MaxBacklog,
			MaxLag:     c.Config.Outbox.MaxLag,
		}))
	}
	return checkers
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.Logger.DebugContext(ctx, "all container resources closed")
	return nil
}
