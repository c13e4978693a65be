// Package config defines all configuration structures for the case-law
// intelligence service.  No I/O or parsing logic lives here, only plain data
// types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Kafka producer parameters for sync-run audit events.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	ClientID        string        `mapstructure:"client_id"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchSize       int           `mapstructure:"batch_size"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	Enabled         bool          `mapstructure:"enabled"`
}

// ProviderConfig holds search-provider (Indian Kanoon) API parameters.
type ProviderConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIToken string        `mapstructure:"api_token"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SyncConfig holds case-law synchronisation tunables.  CategoryQueries and
// DefaultQuery override the built-in query table when set; keys are category
// names (e.g. "GST", "ITAT").
type SyncConfig struct {
	Pages           []int             `mapstructure:"pages"`
	MaxRetries      int               `mapstructure:"max_retries"`
	RetryBackoff    time.Duration     `mapstructure:"retry_backoff"`
	RecordDelay     time.Duration     `mapstructure:"record_delay"`
	PageDelay       time.Duration     `mapstructure:"page_delay"`
	LeaseTTL        time.Duration     `mapstructure:"lease_ttl"`
	CategoryQueries map[string]string `mapstructure:"category_queries"`
	DefaultQuery    string            `mapstructure:"default_query"`
}

// CacheConfig holds in-process result-cache tunables.
type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ScheduleSlot maps a weekday + wall-clock minute (UTC) to a sync category.
type ScheduleSlot struct {
	Weekday  string `mapstructure:"weekday"` // "Monday" .. "Sunday"
	Time     string `mapstructure:"time"`    // "HH:MM", 24h UTC
	Category string `mapstructure:"category"`
}

// WorkerConfig holds scheduler-worker parameters.
type WorkerConfig struct {
	TickInterval time.Duration  `mapstructure:"tick_interval"`
	Schedule     []ScheduleSlot `mapstructure:"schedule"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Logging converts the config section into the logging package's constructor
// parameters.
func (l LogConfig) Logging() logging.LogConfig {
	return logging.LogConfig{
		Level:            l.Level,
		Format:           l.Format,
		OutputPaths:      l.OutputPaths,
		ErrorOutputPaths: l.ErrorOutputPaths,
	}
}

// Config is the root configuration structure for the whole service.  Every
// infrastructure component and application service reads its settings from the
// relevant sub-struct.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Provider ProviderConfig `mapstructure:"provider"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
}

// DSN returns the PostgreSQL connection string for pgxpool.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address when kafka is enabled")
	}

	if c.Provider.Endpoint == "" {
		return fmt.Errorf("config: provider.endpoint is required")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("config: provider.timeout must be positive, got %s", c.Provider.Timeout)
	}

	if len(c.Sync.Pages) == 0 {
		return fmt.Errorf("config: sync.pages must contain at least one page number")
	}
	for _, p := range c.Sync.Pages {
		if p < 1 {
			return fmt.Errorf("config: sync.pages entries must be >= 1, got %d", p)
		}
	}
	if c.Sync.MaxRetries < 1 {
		return fmt.Errorf("config: sync.max_retries must be >= 1, got %d", c.Sync.MaxRetries)
	}
	if c.Sync.LeaseTTL <= 0 {
		return fmt.Errorf("config: sync.lease_ttl must be positive, got %s", c.Sync.LeaseTTL)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("config: cache.ttl must be positive, got %s", c.Cache.TTL)
	}

	if c.Worker.TickInterval <= 0 {
		return fmt.Errorf("config: worker.tick_interval must be positive, got %s", c.Worker.TickInterval)
	}
	for i, slot := range c.Worker.Schedule {
		if _, err := ParseWeekday(slot.Weekday); err != nil {
			return fmt.Errorf("config: worker.schedule[%d]: %w", i, err)
		}
		if _, _, err := ParseClock(slot.Time); err != nil {
			return fmt.Errorf("config: worker.schedule[%d]: %w", i, err)
		}
		if slot.Category == "" {
			return fmt.Errorf("config: worker.schedule[%d].category is required", i)
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// ParseWeekday converts an English weekday name into a time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", name)
}

// ParseClock parses an "HH:MM" 24-hour wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q; expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
