// Package config provides configuration loading and validation for corebus.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Default configuration constants.
const (
	DefaultShutdownTimeout = 10 * time.Second
	DefaultDispatchTimeout = 30 * time.Second

	DefaultMongoDBTimeout     = 10 * time.Second
	DefaultMongoDBMaxPoolSize = 100

	DefaultRedisPoolSize = 10

	DefaultOutboxPollInterval    = 100 * time.Millisecond
	DefaultOutboxBatchSize       = 100
	DefaultOutboxMaxRetries      = 5
	DefaultOutboxCleanupAge      = 7 * 24 * time.Hour
	DefaultOutboxCleanupInterval = time.Hour
	DefaultOutboxMaxBacklog      = 1000
	DefaultOutboxMaxLag          = time.Minute
)

// Storage drivers.
const (
	DriverMemory  = "memory"
	DriverMongoDB = "mongodb"
	DriverSQLite  = "sqlite"
)

// Event delivery modes.
const (
	// DeliveryDirect publishes committed events straight to the in-process bus.
	DeliveryDirect = "direct"

	// DeliveryOutbox stores committed events in the outbox; the worker relays them.
	DeliveryOutbox = "outbox"
)

// Config holds the complete application configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Storage   StorageConfig   `yaml:"storage"`
	MongoDB   MongoDBConfig   `yaml:"mongodb"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Redis     RedisConfig     `yaml:"redis"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// AppConfig holds application-level configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type AppConfig struct {
	// Name is the application name used in logs, metrics and traces.
	Name string `yaml:"name" env:"APP_NAME"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"APP_SHUTDOWN_TIMEOUT"`

	// DispatchTimeout bounds a single command or query dispatched by the tools.
	DispatchTimeout time.Duration `yaml:"dispatch_timeout" env:"APP_DISPATCH_TIMEOUT"`

	// MetricsAddr serves /metrics when non-empty.
	MetricsAddr string `yaml:"metrics_addr" env:"APP_METRICS_ADDR"`
}

// StorageConfig selects the company repository implementation.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER"` // memory | mongodb | sqlite
}

// MongoDBConfig holds MongoDB connection configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type MongoDBConfig struct {
	URI         string        `yaml:"uri" env:"MONGODB_URI"`
	Database    string        `yaml:"database" env:"MONGODB_DATABASE"`
	Timeout     time.Duration `yaml:"timeout" env:"MONGODB_TIMEOUT"`
	MaxPoolSize uint64        `yaml:"max_pool_size" env:"MONGODB_MAX_POOL_SIZE"`
}

// SQLiteConfig holds the SQLite database location.
type SQLiteConfig struct {
	Path string `yaml:"path" env:"SQLITE_PATH"`
}

// RedisConfig holds Redis connection configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE"`
}

// EventBusConfig holds event delivery configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type EventBusConfig struct {
	Delivery           string `yaml:"delivery" env:"EVENTBUS_DELIVERY"` // direct | outbox
	ForwardToRedis     bool   `yaml:"forward_to_redis" env:"EVENTBUS_FORWARD_TO_REDIS"`
	RedisChannelPrefix string `yaml:"redis_channel_prefix" env:"EVENTBUS_REDIS_CHANNEL_PREFIX"`

	// RedisPublishRetries retries a failed forward with backoff starting at
	// 100ms. Forwarding runs inside Publish, so each retry delays the command
	// or the outbox worker that committed the event.
	RedisPublishRetries int `yaml:"redis_publish_retries" env:"EVENTBUS_REDIS_PUBLISH_RETRIES"`
}

// OutboxConfig holds outbox worker configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type OutboxConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval" env:"OUTBOX_POLL_INTERVAL"`
	BatchSize       int           `yaml:"batch_size" env:"OUTBOX_BATCH_SIZE"`
	MaxRetries      int           `yaml:"max_retries" env:"OUTBOX_MAX_RETRIES"`
	CleanupAge      time.Duration `yaml:"cleanup_age" env:"OUTBOX_CLEANUP_AGE"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"OUTBOX_CLEANUP_INTERVAL"`

	// MaxBacklog and MaxLag mark the relay unhealthy; zero disables a limit.
	MaxBacklog int64         `yaml:"max_backlog" env:"OUTBOX_MAX_BACKLOG"`
	MaxLag     time.Duration `yaml:"max_lag" env:"OUTBOX_MAX_LAG"`
}

// TelemetryConfig holds OpenTelemetry tracing configuration.
// Tracing is disabled when OTLPEndpoint is empty.
//
//nolint:golines // Struct tags require longer lines for readability
type TelemetryConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"TELEMETRY_OTLP_ENDPOINT"`
	Insecure     bool    `yaml:"insecure" env:"TELEMETRY_INSECURE"`
	ServiceName  string  `yaml:"service_name" env:"TELEMETRY_SERVICE_NAME"`
	SampleRatio  float64 `yaml:"sample_ratio" env:"TELEMETRY_SAMPLE_RATIO"`
}

// Enabled reports whether traces should be exported.
func (c TelemetryConfig) Enabled() bool {
	return c.OTLPEndpoint != ""
}

// LogConfig holds logging configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug | info | warn | error
	Format string `yaml:"format" env:"LOG_FORMAT"` // json | text
}

// Configuration errors.
var (
	ErrConfigNotFound      = errors.New("configuration file not found")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrInvalidLogLevel     = errors.New("invalid log level: must be debug, info, warn, or error")
	ErrInvalidLogFormat    = errors.New("invalid log format: must be json or text")
	ErrInvalidDriver       = errors.New("invalid storage driver: must be memory, mongodb, or sqlite")
	ErrInvalidDelivery     = errors.New("invalid event delivery: must be direct or outbox")
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:            "corebus",
			ShutdownTimeout: DefaultShutdownTimeout,
			DispatchTimeout: DefaultDispatchTimeout,
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
		},
		MongoDB: MongoDBConfig{
			URI:         "mongodb://localhost:27017",
			Database:    "corebus",
			Timeout:     DefaultMongoDBTimeout,
			MaxPoolSize: DefaultMongoDBMaxPoolSize,
		},
		SQLite: SQLiteConfig{
			Path: "data/corebus.db",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: DefaultRedisPoolSize,
		},
		EventBus: EventBusConfig{
			Delivery:           DeliveryDirect,
			RedisChannelPrefix: "corebus:events:",
		},
		Outbox: OutboxConfig{
			PollInterval:    DefaultOutboxPollInterval,
			BatchSize:       DefaultOutboxBatchSize,
			MaxRetries:      DefaultOutboxMaxRetries,
			CleanupAge:      DefaultOutboxCleanupAge,
			CleanupInterval: DefaultOutboxCleanupInterval,
			MaxBacklog:      DefaultOutboxMaxBacklog,
			MaxLag:          DefaultOutboxMaxLag,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "corebus",
			SampleRatio: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []error

	errs = c.validateApp(errs)
	errs = c.validateStorage(errs)
	errs = c.validateEventBus(errs)
	errs = c.validateOutbox(errs)
	errs = c.validateTelemetry(errs)
	errs = c.validateLog(errs)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(errs...))
	}

	return nil
}

func (c *Config) validateApp(errs []error) []error {
	if c.App.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("app.shutdown_timeout must be positive"))
	}
	if c.App.DispatchTimeout <= 0 {
		errs = append(errs, errors.New("app.dispatch_timeout must be positive"))
	}
	return errs
}

// validateStorage checks the driver and the settings that driver needs.
func (c *Config) validateStorage(errs []error) []error {
	switch strings.ToLower(c.Storage.Driver) {
	case DriverMemory:
	case DriverMongoDB:
		if c.MongoDB.URI == "" {
			errs = append(errs, errors.New("mongodb.uri is required"))
		}
		if c.MongoDB.Database == "" {
			errs = append(errs, errors.New("mongodb.database is required"))
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidDriver, c.Storage.Driver))
	}
	return errs
}

func (c *Config) validateEventBus(errs []error) []error {
	switch strings.ToLower(c.EventBus.Delivery) {
	case DeliveryDirect, DeliveryOutbox:
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidDelivery, c.EventBus.Delivery))
	}
	if c.EventBus.ForwardToRedis && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when eventbus.forward_to_redis is set"))
	}
	if c.EventBus.RedisPublishRetries < 0 {
		errs = append(errs, errors.New("eventbus.redis_publish_retries must not be negative"))
	}
	return errs
}

func (c *Config) validateOutbox(errs []error) []error {
	if !c.UsesOutbox() {
		return errs
	}
	if c.Outbox.PollInterval <= 0 {
		errs = append(errs, errors.New("outbox.poll_interval must be positive"))
	}
	if c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("outbox.batch_size must be positive"))
	}
	if c.Outbox.MaxRetries < 0 {
		errs = append(errs, errors.New("outbox.max_retries must not be negative"))
	}
	if c.Outbox.MaxBacklog < 0 || c.Outbox.MaxLag < 0 {
		errs = append(errs, errors.New("outbox.max_backlog and outbox.max_lag must not be negative"))
	}
	return errs
}

func (c *Config) validateTelemetry(errs []error) []error {
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio must be within [0, 1], got %v", c.Telemetry.SampleRatio))
	}
	if c.Telemetry.Enabled() && c.Telemetry.ServiceName == "" {
		errs = append(errs, errors.New("telemetry.service_name is required when tracing is enabled"))
	}
	return errs
}

func (c *Config) validateLog(errs []error) []error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ErrInvalidLogLevel)
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ErrInvalidLogFormat)
	}
	return errs
}

// UsesOutbox reports whether committed events go through the outbox.
func (c *Config) UsesOutbox() bool {
	return strings.EqualFold(c.EventBus.Delivery, DeliveryOutbox)
}

// IsDevelopment returns true if the log level indicates a development environment.
func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Log.Level) == "debug"
}

// Load loads configuration from the default config file and environment variables.
func Load() (*Config, error) {
	return LoadFromPath("")
}

// LoadFromPath loads configuration from a specific file path.
// If path is empty, it tries to find the config file in standard locations.
func LoadFromPath(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Loader handles configuration loading from files and environment variables.
type Loader struct {
	configPaths []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		configPaths: []string{
			"configs/config.yaml",
			"config.yaml",
			"/etc/corebus/config.yaml",
		},
	}
}

// WithConfigPaths sets custom config paths to search.
func (l *Loader) WithConfigPaths(paths []string) *Loader {
	l.configPaths = paths
	return l
}

// Load applies defaults, then the YAML file, then environment variables,
// and validates the result.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := path
	if configPath == "" {
		if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
			configPath = envPath
		} else {
			for _, p := range l.configPaths {
				if _, err := os.Stat(p); err == nil {
					configPath = p
					break
				}
			}
		}
	}

	if configPath != "" {
		if err := l.loadFromFile(cfg, configPath); err != nil {
			// Only fail if the path was asked for explicitly
			if path != "" || os.Getenv("CONFIG_PATH") != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func (l *Loader) loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
		return fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	return nil
}
