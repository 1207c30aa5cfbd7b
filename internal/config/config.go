// Package config provides configuration loading for the agegate filter.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime configuration, read once at startup and never mutated.
type Config struct {
	// Field references on the event record where computed values are written.
	Target         string
	ExpiredTarget  string
	AgeLimitTarget string

	// Remote limit service. An empty URL disables remote refresh entirely.
	URL       string
	LimitPath string
	Interval  time.Duration

	// Static fallback limit (seconds) used whenever remote refresh is
	// disabled or fails.
	MaxAgeSecs float64

	// Credentials and timeout passed through to the HTTP client.
	Username       string
	Password       string
	RequestTimeout time.Duration

	// Pipeline
	ListenAddr   string
	KafkaBrokers []string
	KafkaTopic   string
	Workers      int
	BatchSize    int
	BatchTimeout time.Duration
	QueueSize    int

	LogLevel string
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Target:         "[@metadata][age]",
		ExpiredTarget:  "[@metadata][expired]",
		AgeLimitTarget: "[@metadata][age_limit]",
		URL:            "",
		LimitPath:      "persistent.cluster.metadata.logstash.filter.age.limit_secs",
		Interval:       60 * time.Second,
		MaxAgeSecs:     259200,
		RequestTimeout: 10 * time.Second,
		ListenAddr:     ":8080",
		KafkaBrokers:   []string{"localhost:9092"},
		KafkaTopic:     "events.aged",
		Workers:        4,
		BatchSize:      100,
		BatchTimeout:   100 * time.Millisecond,
		QueueSize:      1000,
		LogLevel:       "info",
	}
}

// Load reads configuration from an optional file plus AGEGATE_-prefixed
// environment variables, with env taking precedence over the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("target", def.Target)
	v.SetDefault("expired_target", def.ExpiredTarget)
	v.SetDefault("age_limit_target", def.AgeLimitTarget)
	v.SetDefault("url", def.URL)
	v.SetDefault("limit_path", def.LimitPath)
	v.SetDefault("interval", "60s")
	v.SetDefault("max_age_secs", def.MaxAgeSecs)
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("kafka.brokers", def.KafkaBrokers)
	v.SetDefault("kafka.topic", def.KafkaTopic)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("batch_size", def.BatchSize)
	v.SetDefault("batch_timeout", "100ms")
	v.SetDefault("queue_size", def.QueueSize)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("AGEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Target:         v.GetString("target"),
		ExpiredTarget:  v.GetString("expired_target"),
		AgeLimitTarget: v.GetString("age_limit_target"),
		URL:            v.GetString("url"),
		LimitPath:      v.GetString("limit_path"),
		Interval:       v.GetDuration("interval"),
		MaxAgeSecs:     v.GetFloat64("max_age_secs"),
		Username:       v.GetString("username"),
		Password:       v.GetString("password"),
		RequestTimeout: v.GetDuration("request_timeout"),
		ListenAddr:     v.GetString("listen_addr"),
		KafkaBrokers:   v.GetStringSlice("kafka.brokers"),
		KafkaTopic:     v.GetString("kafka.topic"),
		Workers:        v.GetInt("workers"),
		BatchSize:      v.GetInt("batch_size"),
		BatchTimeout:   v.GetDuration("batch_timeout"),
		QueueSize:      v.GetInt("queue_size"),
		LogLevel:       v.GetString("log_level"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks the options the filter itself depends on. Pipeline tuning
// options fall back to defaults instead of failing startup.
func validate(cfg *Config) error {
	if cfg.Target == "" || cfg.ExpiredTarget == "" || cfg.AgeLimitTarget == "" {
		return fmt.Errorf("target, expired_target and age_limit_target must be non-empty")
	}
	if cfg.MaxAgeSecs <= 0 {
		return fmt.Errorf("max_age_secs must be positive, got %v", cfg.MaxAgeSecs)
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", cfg.Interval)
	}
	if cfg.URL != "" && cfg.LimitPath == "" {
		return fmt.Errorf("limit_path must be set when url is configured")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 100 * time.Millisecond
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	return nil
}
