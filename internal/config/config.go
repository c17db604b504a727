// Package config provides configuration management for the crawler.
// It defines the configuration object handed to every component at
// construction time, together with its default values and validation.
package config

import (
	"strings"
	"time"
)

// DatabaseConfig selects the relational store backing the visited set
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `mapstructure:"dsn" yaml:"dsn"`       // File path for sqlite, connection string for postgres
}

// RedisConfig describes the queue store holding the frontier
type RedisConfig struct {
	Address  string `mapstructure:"address" yaml:"address"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	QueueKey string `mapstructure:"queue_key" yaml:"queue_key"` // Name of the list acting as the frontier
}

// LogConfig contains logging output settings
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // "json" or "text"
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int64  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Console    bool   `mapstructure:"console" yaml:"console"`
}

// Config holds crawler configuration
type Config struct {
	// Fetching
	UserAgents     []string      `mapstructure:"user_agents" yaml:"user_agents"`         // Pool a User-Agent is drawn from per request
	Headers        []string      `mapstructure:"headers" yaml:"headers"`                 // Fixed headers in "Name: Value" format
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // Total fetch timeout
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`   // Upper bound on bytes read per response

	// Filtering and dedup
	SkipWords       []string `mapstructure:"skip_words" yaml:"skip_words"`             // URLs containing any of these are never fetched
	DomainThreshold int      `mapstructure:"domain_threshold" yaml:"domain_threshold"` // Domain counts as saturated above this many records

	// Crawl loop
	WorkerTimeout time.Duration `mapstructure:"worker_timeout" yaml:"worker_timeout"` // Wall-clock budget per URL
	DrainDelay    time.Duration `mapstructure:"drain_delay" yaml:"drain_delay"`       // Pause between drain iterations
	Timezone      string        `mapstructure:"timezone" yaml:"timezone"`             // Zone used for crawl timestamps

	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`

	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"` // Listen address for /metrics, empty disables it
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
			"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		},
		Headers: []string{
			"Accept: text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language: ja,en-US;q=0.7,en;q=0.3",
		},
		RequestTimeout:  3 * time.Second,
		MaxBodyBytes:    10 << 20,
		SkipWords:       []string{"login", "logout", "signin", "signup"},
		DomainThreshold: 12,
		WorkerTimeout:   5 * time.Second,
		DrainDelay:      0,
		Timezone:        "Local",
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "./pwascout.db",
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			QueueKey: "urls",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			Console:    true,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.UserAgents) == 0 {
		return ErrNoUserAgents
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.WorkerTimeout <= 0 {
		return ErrInvalidWorkerTimeout
	}

	if c.MaxBodyBytes <= 0 {
		return ErrInvalidBodyLimit
	}

	if c.DomainThreshold < 0 {
		return ErrInvalidThreshold
	}

	if c.DrainDelay < 0 {
		c.DrainDelay = 0
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return ErrUnsupportedDriver
	}

	if c.Database.DSN == "" {
		return ErrEmptyDSN
	}

	if c.Redis.QueueKey == "" {
		return ErrEmptyQueueKey
	}

	if _, err := c.Location(); err != nil {
		return ErrInvalidTimezone
	}

	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// HeaderMap parses the "Name: Value" header list.
// Entries without a name or value are dropped.
func (c *Config) HeaderMap() map[string]string {
	headers := make(map[string]string, len(c.Headers))
	for _, header := range c.Headers {
		colonIndex := strings.Index(header, ":")
		if colonIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(header[:colonIndex])
		value := strings.TrimSpace(header[colonIndex+1:])
		if key == "" || value == "" {
			continue
		}

		headers[key] = value
	}
	return headers
}
