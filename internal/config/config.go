package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Tracker scopes.
const (
	ScopeRender  = "render"  // fresh tracker for every render
	ScopeProcess = "process" // one tracker shared by every render of the process
)

// RenderCfg controls the template host.
type RenderCfg struct {
	Scope      string `mapstructure:"scope"` // "render" | "process"
	LeftDelim  string `mapstructure:"left_delim"`
	RightDelim string `mapstructure:"right_delim"`
}

// LoggingCfg controls output formatting and level.
type LoggingCfg struct {
	Level  string `mapstructure:"level"`  // debug|info|warn|error
	Format string `mapstructure:"format"` // json|console
}

// ReportCfg controls the SQLite occurrence report.
type ReportCfg struct {
	Enabled       bool   `mapstructure:"enabled"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	RetentionDays int    `mapstructure:"retention_days"` // 0 keeps every run
}

// PublishCfg controls uploads of rendered output to S3-compatible storage.
type PublishCfg struct {
	Enabled    bool   `mapstructure:"enabled"`
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	Bucket     string `mapstructure:"bucket"`
	Prefix     string `mapstructure:"prefix"`
	UseSSL     bool   `mapstructure:"use_ssl"`
	MaxRetries int    `mapstructure:"max_retries"`
	BackoffMS  int    `mapstructure:"backoff_ms"`
}

// Config is the root configuration.
type Config struct {
	Render  RenderCfg  `mapstructure:"render"`
	Logging LoggingCfg `mapstructure:"logging"`
	Report  ReportCfg  `mapstructure:"report"`
	Publish PublishCfg `mapstructure:"publish"`
}

// Load reads config from an optional YAML file, then ONLYONCE_* environment
// variables (ONLYONCE_LOGGING_LEVEL overrides logging.level). An empty path
// yields defaults plus environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ONLYONCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("render.scope", ScopeRender)
	v.SetDefault("render.left_delim", "{{")
	v.SetDefault("render.right_delim", "}}")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("report.enabled", false)
	v.SetDefault("report.sqlite_path", "./data/onlyonce.db")
	v.SetDefault("report.retention_days", 0)

	v.SetDefault("publish.enabled", false)
	v.SetDefault("publish.endpoint", "")
	v.SetDefault("publish.access_key", "")
	v.SetDefault("publish.secret_key", "")
	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.prefix", "onlyonce")
	v.SetDefault("publish.use_ssl", true)
	v.SetDefault("publish.max_retries", 3)
	v.SetDefault("publish.backoff_ms", 500)

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Validate rejects settings the rest of the program cannot act on.
func (c Config) Validate() error {
	switch c.Render.Scope {
	case ScopeRender, ScopeProcess:
	default:
		return fmt.Errorf("render.scope must be %q or %q, got %q", ScopeRender, ScopeProcess, c.Render.Scope)
	}
	if c.Publish.Enabled && (c.Publish.Endpoint == "" || c.Publish.Bucket == "") {
		return fmt.Errorf("publish.endpoint and publish.bucket are required when publishing")
	}
	if c.Report.RetentionDays < 0 {
		return fmt.Errorf("report.retention_days must not be negative, got %d", c.Report.RetentionDays)
	}
	return nil
}

// BackoffDuration computes a linear backoff.
func BackoffDuration(ms int, attempt int) time.Duration {
	if ms <= 0 {
		ms = 250
	}
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(ms*attempt) * time.Millisecond
}
