package config

import "time"

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "caselaw"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker   = "localhost:9092"
	DefaultKafkaClientID = "caselaw-intelligence"

	DefaultProviderEndpoint = "https://api.indiankanoon.org"
	DefaultProviderTimeout  = 30 * time.Second

	DefaultSyncMaxRetries   = 3
	DefaultSyncRetryBackoff = 2 * time.Second
	DefaultSyncRecordDelay  = 200 * time.Millisecond
	DefaultSyncPageDelay    = 1 * time.Second
	DefaultSyncLeaseTTL     = 30 * time.Minute

	DefaultCacheTTL = 24 * time.Hour

	DefaultWorkerTickInterval = time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultSyncPages are the provider result pages fetched per run when no
// override is configured.
var DefaultSyncPages = []int{1, 2, 3}

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields already set by the caller are left unchanged so explicit
// configuration always wins.  Call after unmarshalling and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "caselaw:"
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = DefaultKafkaClientID
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}

	if cfg.Provider.Endpoint == "" {
		cfg.Provider.Endpoint = DefaultProviderEndpoint
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = DefaultProviderTimeout
	}

	if len(cfg.Sync.Pages) == 0 {
		cfg.Sync.Pages = append([]int(nil), DefaultSyncPages...)
	}
	if cfg.Sync.MaxRetries == 0 {
		cfg.Sync.MaxRetries = DefaultSyncMaxRetries
	}
	if cfg.Sync.RetryBackoff == 0 {
		cfg.Sync.RetryBackoff = DefaultSyncRetryBackoff
	}
	if cfg.Sync.RecordDelay == 0 {
		cfg.Sync.RecordDelay = DefaultSyncRecordDelay
	}
	if cfg.Sync.PageDelay == 0 {
		cfg.Sync.PageDelay = DefaultSyncPageDelay
	}
	if cfg.Sync.LeaseTTL == 0 {
		cfg.Sync.LeaseTTL = DefaultSyncLeaseTTL
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.SweepInterval == 0 {
		cfg.Cache.SweepInterval = cfg.Cache.TTL
	}

	if cfg.Worker.TickInterval == 0 {
		cfg.Worker.TickInterval = DefaultWorkerTickInterval
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
