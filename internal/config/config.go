// Package config loads runtime configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"strings"

	"trade-docs/internal/core"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration. Every field maps to one env var.
type Config struct {
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	Port           int    `mapstructure:"SERVER_PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	// AdminToken gates company registration over HTTP. Empty disables it.
	AdminToken string `mapstructure:"ADMIN_TOKEN"`

	// Rate limiting is enabled only when RedisURL is set.
	RedisURL      string `mapstructure:"REDIS_URL"`
	RateLimit     int64  `mapstructure:"RATE_LIMIT"`
	RateWindowSec int    `mapstructure:"RATE_LIMIT_WINDOW_SEC"`

	StorageProvider    string `mapstructure:"STORAGE_PROVIDER"` // local | gcs
	UploadDir          string `mapstructure:"UPLOAD_DIR"`
	GCSBucket          string `mapstructure:"GCS_BUCKET"`
	GCSCredentialsJSON string `mapstructure:"GCS_CREDENTIALS_JSON"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// DeletableStatuses overrides the delete policy, e.g.
	// "INVOICE=DRAFT;PURCHASE_ORDER=DRAFT,PENDING".
	DeletableStatuses string `mapstructure:"DELETABLE_STATUSES"`
}

var keys = []string{
	"DATABASE_URL", "SERVER_PORT", "ALLOWED_ORIGINS", "JWT_SECRET", "ADMIN_TOKEN",
	"REDIS_URL", "RATE_LIMIT", "RATE_LIMIT_WINDOW_SEC",
	"STORAGE_PROVIDER", "UPLOAD_DIR", "GCS_BUCKET", "GCS_CREDENTIALS_JSON",
	"LOG_LEVEL", "LOG_FORMAT", "DELETABLE_STATUSES",
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("RATE_LIMIT", 120)
	v.SetDefault("RATE_LIMIT_WINDOW_SEC", 60)
	v.SetDefault("STORAGE_PROVIDER", "local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.StorageProvider != "local" && cfg.StorageProvider != "gcs" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be local or gcs, got %q", cfg.StorageProvider)
	}
	return cfg, nil
}

// DeletePolicy returns the configured delete policy, or the default when unset.
func (c *Config) DeletePolicy() (core.DeletePolicy, error) {
	if strings.TrimSpace(c.DeletableStatuses) == "" {
		return core.DefaultDeletePolicy(), nil
	}
	return ParseDeletePolicy(c.DeletableStatuses)
}

// ParseDeletePolicy parses "TYPE=STATUS,STATUS;TYPE=STATUS". Types not named
// keep their default statuses.
func ParseDeletePolicy(s string) (core.DeletePolicy, error) {
	policy := core.DefaultDeletePolicy()
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		typ, list, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("DELETABLE_STATUSES: %q is not TYPE=STATUSES", entry)
		}
		docType, err := core.ParseDocumentType(strings.TrimSpace(typ))
		if err != nil {
			return nil, fmt.Errorf("DELETABLE_STATUSES: %w", err)
		}
		var statuses []core.Status
		for _, st := range strings.Split(list, ",") {
			if st = strings.TrimSpace(st); st != "" {
				statuses = append(statuses, core.Status(strings.ToUpper(st)))
			}
		}
		policy[docType] = statuses
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}
