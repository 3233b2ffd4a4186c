package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Lumina Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	HTTP      HTTPConfig      `yaml:"http"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Cache     CacheConfig     `yaml:"cache"`
	History   HistoryConfig   `yaml:"history"`
	TSDB      TSDBConfig      `yaml:"tsdb"`
	Decision  DecisionConfig  `yaml:"decision"`
	Context   ContextConfig   `yaml:"context"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// HTTPConfig contains settings for the outbound HTTP transport.
type HTTPConfig struct {
	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// WebSocketConfig contains settings for the outbound WebSocket transport.
type WebSocketConfig struct {
	URL            string `yaml:"url"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// CacheConfig contains Redis shared cache settings.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// HistoryConfig contains the SQLite action-history database settings.
type HistoryConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// TSDBConfig contains InfluxDB connection settings for outcome recording.
type TSDBConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`
}

// DecisionConfig contains decision engine settings.
type DecisionConfig struct {
	// DelegateURL is the base URL of the remote decision API.
	// Empty disables the remote delegate; decisions are rule-local only.
	DelegateURL string `yaml:"delegate_url"`
	APIKey      string `yaml:"api_key"`

	// DelegateTimeout is the remote call timeout in seconds.
	DelegateTimeout int `yaml:"delegate_timeout"`

	// CacheTTL is the decision cache lifetime in seconds.
	CacheTTL int `yaml:"cache_ttl"`

	// CooldownSeconds suppresses repeated identical actions within the window.
	CooldownSeconds int `yaml:"cooldown_seconds"`

	// RulesFile optionally points to a YAML file with additional rules.
	RulesFile string `yaml:"rules_file"`
}

// ContextConfig contains context aggregation settings.
type ContextConfig struct {
	// SourceTimeout is the per-source fetch timeout in seconds.
	SourceTimeout int `yaml:"source_timeout"`

	// Disabled lists source names to skip during aggregation.
	Disabled []string `yaml:"disabled"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LUMINA_SECTION_KEY
// For example: LUMINA_MQTT_HOST, LUMINA_CACHE_ADDR
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Lumina",
			Timezone: "UTC",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "lumina-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		HTTP: HTTPConfig{
			Timeout: 30,
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Cache: CacheConfig{
			Enabled: true,
			Addr:    "localhost:6379",
		},
		History: HistoryConfig{
			Path:        "./data/lumina.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Decision: DecisionConfig{
			DelegateTimeout: 30,
			CacheTTL:        300,
			CooldownSeconds: 60,
		},
		Context: ContextConfig{
			SourceTimeout: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LUMINA_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("LUMINA_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LUMINA_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LUMINA_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Cache
	if v := os.Getenv("LUMINA_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("LUMINA_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}

	// History
	if v := os.Getenv("LUMINA_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	// TSDB
	if v := os.Getenv("LUMINA_TSDB_TOKEN"); v != "" {
		cfg.TSDB.Token = v
	}

	// Decision delegate
	if v := os.Getenv("LUMINA_DECISION_DELEGATE_URL"); v != "" {
		cfg.Decision.DelegateURL = v
	}
	if v := os.Getenv("LUMINA_DECISION_API_KEY"); v != "" {
		cfg.Decision.APIKey = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	// History validation
	if c.History.Path == "" {
		errs = append(errs, "history.path is required")
	}

	// Cache validation
	if c.Cache.Enabled && c.Cache.Addr == "" {
		errs = append(errs, "cache.addr is required when cache is enabled")
	}

	// Decision validation
	if c.Decision.DelegateTimeout <= 0 {
		errs = append(errs, "decision.delegate_timeout must be positive")
	}
	if c.Decision.CacheTTL < 0 {
		errs = append(errs, "decision.cache_ttl must not be negative")
	}

	// TSDB validation
	if c.TSDB.Enabled {
		if c.TSDB.URL == "" {
			errs = append(errs, "tsdb.url is required when tsdb is enabled")
		}
		if c.TSDB.Bucket == "" {
			errs = append(errs, "tsdb.bucket is required when tsdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Timeout returns the remote decision call timeout as a Duration.
func (c *DecisionConfig) Timeout() time.Duration {
	return time.Duration(c.DelegateTimeout) * time.Second
}

// RequestTimeout returns the HTTP transport timeout as a Duration.
func (c *HTTPConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// FetchTimeout returns the per-source context fetch timeout as a Duration.
func (c *ContextConfig) FetchTimeout() time.Duration {
	return time.Duration(c.SourceTimeout) * time.Second
}
