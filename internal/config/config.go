package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultPort                       = 5000
	DefaultAdminSessionHours          = 8
	DefaultPublicWriteRateLimitPerMin = 10
	DefaultMediaUploadMaxBytes        = 10 * 1024 * 1024
	DefaultMediaUploadExpiresSeconds  = 3600
	DefaultCacheSizeMB                = 32
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// postgres; password comes from the environment
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`

	// redis is optional, public write rate limiting is disabled without it
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// admin auth
	AdminSessionHours int `toml:"admin_session_hours"`

	// http
	CorsOrigins                []string `toml:"cors_origins"`
	PublicWriteRateLimitPerMin int      `toml:"public_write_rate_limit_per_min"`
	CacheTTLSeconds            int      `toml:"cache_ttl_seconds"`
	CacheSizeMB                int      `toml:"cache_size_mb"`

	// media, object storage
	S3Bucket               string   `toml:"s3_bucket"`
	S3Region               string   `toml:"s3_region"`
	S3Endpoint             string   `toml:"s3_endpoint"`
	S3UsePathStyle         bool     `toml:"s3_use_path_style"`
	S3PublicBaseURL        string   `toml:"s3_public_base_url"`
	S3Prefixes             []string `toml:"s3_prefixes"`
	S3UploadMaxBytes       int64    `toml:"s3_upload_max_bytes"`
	S3UploadExpiresSeconds int      `toml:"s3_upload_expires_seconds"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing", env)
	}

	cfg.Environment = strings.ToLower(env)
	cfg.applyDefaults()
	return cfg, nil
}

// Load reads the TOML config file and returns the section for the given env.
func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode toml config [%s]: %w", path, err)
	}
	return tomlConfig.Get(env)
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.AdminSessionHours <= 0 {
		c.AdminSessionHours = DefaultAdminSessionHours
	}
	if c.PublicWriteRateLimitPerMin <= 0 {
		c.PublicWriteRateLimitPerMin = DefaultPublicWriteRateLimitPerMin
	}
	if c.CacheSizeMB <= 0 {
		c.CacheSizeMB = DefaultCacheSizeMB
	}
	if c.S3UploadMaxBytes <= 0 {
		c.S3UploadMaxBytes = DefaultMediaUploadMaxBytes
	}
	if c.S3UploadExpiresSeconds <= 0 {
		c.S3UploadExpiresSeconds = DefaultMediaUploadExpiresSeconds
	}
	if len(c.S3Prefixes) == 0 {
		c.S3Prefixes = []string{""}
	}
}

func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func (c *Config) MediaEnabled() bool {
	return c.S3Bucket != ""
}
