// Package config loads server configuration with koanf, merging an optional
// YAML file under environment variables. Env vars always win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all settings for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database. Empty selects the in-memory store, intended for local
	// development and tests only.
	DatabaseURL string `koanf:"database_url"`

	// JWT authentication; previous secret is set only during rotation.
	JWTSecret         string `koanf:"jwt_secret"`
	JWTPreviousSecret string `koanf:"jwt_previous_secret"`

	// Redis. Empty disables the trending topic source.
	RedisAddr        string `koanf:"redis_addr"`
	RedisPassword    string `koanf:"redis_password"`
	TrendingTopicKey string `koanf:"trending_topic_key"`

	// Ranking calibration file (optional JSON overrides).
	CalibrationPath string `koanf:"calibration_path"`

	// Did-you-mean vocabulary file (optional, newline-delimited terms).
	VocabPath string `koanf:"vocab_path"`

	// Tracing
	TracingEnabled    bool    `koanf:"tracing_enabled"`
	TracingExporter   string  `koanf:"tracing_exporter"`
	TracingEndpoint   string  `koanf:"tracing_endpoint"`
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
}

// Configuration validation errors.
var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
	ErrInvalidPort      = errors.New("PORT must be a valid integer")
)

// Defaults for non-secret settings.
const (
	DefaultPort              = 8080
	DefaultEnv               = "development"
	DefaultTracingExporter   = "otlp-http"
	DefaultTracingSampleRate = 0.1
)

// Load reads configuration and returns it with any accumulated errors.
// A non-empty configFilePath that cannot be read or parsed is fatal;
// validation problems are collected so every one can be reported at once.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	src := source{k: k}
	cfg := &Config{
		Env:               src.str("env", DefaultEnv, "ENV", "GO_ENV"),
		DatabaseURL:       src.str("database_url", "", "DATABASE_URL"),
		JWTSecret:         src.str("jwt_secret", "", "JWT_SECRET"),
		JWTPreviousSecret: src.str("jwt_previous_secret", "", "JWT_PREVIOUS_SECRET"),
		RedisAddr:         src.str("redis_addr", "", "REDIS_ADDR"),
		RedisPassword:     src.str("redis_password", "", "REDIS_PASSWORD"),
		TrendingTopicKey:  src.str("trending_topic_key", "", "TRENDING_TOPIC_KEY"),
		CalibrationPath:   src.str("calibration_path", "", "CALIBRATION_PATH"),
		VocabPath:         src.str("vocab_path", "", "VOCAB_PATH"),
		TracingEnabled:    src.boolean("tracing_enabled", "TRACING_ENABLED"),
		TracingExporter:   src.str("tracing_exporter", DefaultTracingExporter, "TRACING_EXPORTER"),
		TracingEndpoint:   src.str("tracing_endpoint", "", "TRACING_ENDPOINT"),
	}

	var errs []error
	var err error
	if cfg.Port, err = src.integer("port", DefaultPort, "PORT"); err != nil {
		errs = append(errs, err)
	}
	if cfg.TracingSampleRate, err = src.float("tracing_sample_rate", DefaultTracingSampleRate, "TRACING_SAMPLE_RATE"); err != nil {
		errs = append(errs, err)
	}

	errs = append(errs, cfg.Validate()...)
	return cfg, errs
}

// source resolves a setting from the environment first, then the loaded
// file, then a default.
type source struct {
	k *koanf.Koanf
}

func (s source) str(fileKey, def string, envKeys ...string) string {
	for _, key := range envKeys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	if v := s.k.String(fileKey); v != "" {
		return v
	}
	return def
}

func (s source) integer(fileKey string, def int, envKey string) (int, error) {
	if v := os.Getenv(envKey); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidPort)
		}
		return n, nil
	}
	if n := s.k.Int(fileKey); n != 0 {
		return n, nil
	}
	return def, nil
}

func (s source) float(fileKey string, def float64, envKey string) (float64, error) {
	if v := os.Getenv(envKey); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if f := s.k.Float64(fileKey); f != 0 {
		return f, nil
	}
	return def, nil
}

func (s source) boolean(fileKey, envKey string) bool {
	if v := os.Getenv(envKey); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return s.k.Bool(fileKey)
}

// Validate reports every missing required setting.
func (c *Config) Validate() []error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	return errs
}

// LogSummary returns the configuration with secrets masked, for the
// startup log line.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                strconv.Itoa(c.Port),
		"env":                 c.Env,
		"database_url":        maskDatabaseURL(c.DatabaseURL),
		"jwt_secret":          maskSecret(c.JWTSecret),
		"jwt_previous_secret": maskSecret(c.JWTPreviousSecret),
		"redis_addr":          c.RedisAddr,
		"redis_password":      maskSecret(c.RedisPassword),
		"trending_topic_key":  c.TrendingTopicKey,
		"calibration_path":    c.CalibrationPath,
		"vocab_path":          c.VocabPath,
		"tracing_enabled":     strconv.FormatBool(c.TracingEnabled),
		"tracing_exporter":    c.TracingExporter,
		"tracing_endpoint":    c.TracingEndpoint,
		"tracing_sample_rate": strconv.FormatFloat(c.TracingSampleRate, 'g', -1, 64),
	}
}

// maskSecret keeps the first 4 characters of long secrets for operator
// recognition; short secrets are fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL hides the password component of a connection URL while
// keeping scheme, user and host readable.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	at := strings.Index(rest, "@")
	if at == -1 {
		return s // no credentials present
	}
	colon := strings.Index(rest[:at], ":")
	if colon == -1 {
		return s // username only
	}

	return s[:schemeEnd+3] + rest[:colon] + ":****" + rest[at:]
}
