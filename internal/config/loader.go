// Package config provides configuration loading, defaults, and validation for
// the case-law intelligence service.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "CASELAW"

// newViper builds a pre-configured Viper instance with the service's standard
// settings: YAML file type, CASELAW_ env prefix, automatic env binding, and a
// key replacer mapping "." to "_" so that nested keys like "database.host"
// resolve to "CASELAW_DATABASE_HOST".
// envKeys are the leaf keys bound for environment override.  AutomaticEnv on
// its own does not surface env-only keys through Unmarshal, so every
// overridable key is bound explicitly.
var envKeys = []string{
	"server.port", "server.mode",
	"database.host", "database.port", "database.user", "database.password",
	"database.db_name", "database.ssl_mode", "database.max_conns",
	"database.migration_path",
	"redis.addr", "redis.password", "redis.db", "redis.key_prefix",
	"kafka.brokers", "kafka.client_id", "kafka.enabled",
	"provider.endpoint", "provider.api_token", "provider.timeout",
	"sync.max_retries", "sync.retry_backoff", "sync.record_delay",
	"sync.page_delay", "sync.lease_ttl", "sync.default_query",
	"cache.ttl", "cache.sweep_interval",
	"worker.tick_interval",
	"log.level", "log.format",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges any CASELAW_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.  It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from CASELAW_* environment variables,
// with no config file required.  This is the preferred loading strategy for
// containerised deployments.
//
// Naming convention: CASELAW_<SECTION>_<FIELD>, e.g. CASELAW_DATABASE_HOST,
// CASELAW_PROVIDER_API_TOKEN.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  Intended for
// hot-reloading non-critical settings such as the log level; callers are
// responsible for applying only the safe subset of changes at runtime.
//
// Watch is non-blocking; viper manages the background goroutine.  A changed
// file that fails to parse or validate does not trigger onChange.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors are surfaced by the Load call the caller made first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad wraps Load and panics on any error.  Intended for main() where a
// config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
