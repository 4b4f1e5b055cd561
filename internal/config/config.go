package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"villamedia/pkg/logger"
	"villamedia/pkg/utils"
)

const DefaultSiteURL = "https://interiorvillabd.com"

// AppConfig is the configuration loaded by the last successful Load.
var AppConfig *Config

func (c *Config) GetBaseUrl() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Server.Port)
}

// SiteURL is the public website root without a trailing slash.
func (c *Config) SiteURL() string {
	if u := strings.TrimRight(strings.TrimSpace(c.Site.URL), "/"); u != "" {
		return u
	}
	return DefaultSiteURL
}

// MaxUploadBytes is media.max_upload_size in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return utils.SizeToBytes(c.Media.MaxUploadSize, 20<<20)
}

// Duration parses a duration field, falling back to def.
func Duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Load reads .env, config.yaml (from the given directories, "." by default),
// VILLA_* variables and the legacy variable names, validates the result and
// stores it in AppConfig.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logger.LogDebug("Loaded variables from .env")
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("VILLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("site.url", "VILLA_SITE_URL", "PAYLOAD_PUBLIC_SERVER_URL")
	v.BindEnv("email.resend_api_key", "VILLA_EMAIL_RESEND_API_KEY", "RESEND_API_KEY")
	v.BindEnv("database.path", "VILLA_DATABASE_PATH", "DATABASE_PATH")
	v.BindEnv("security.upload_secret", "VILLA_SECURITY_UPLOAD_SECRET", "UPLOAD_SECRET")
	v.BindEnv("server.port", "VILLA_SERVER_PORT", "APP_PORT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.LogDebug("Config file not found. Using environment variables and defaults.")
		} else {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.BaseURL = cfg.GetBaseUrl()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	AppConfig = cfg
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "Villamedia")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.debug", false)

	// Server
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Database
	v.SetDefault("database.path", "./data/villa.db")
	v.SetDefault("database.maintenance_interval", "1h")

	// Media
	v.SetDefault("media.url_prefix", "/media")
	v.SetDefault("media.max_upload_size", "20MB")
	v.SetDefault("media.default_quality", 82)
	v.SetDefault("media.parallelism", 4)
	v.SetDefault("media.secondary_webp", true)
	v.SetDefault("media.async_secondary", true)
	v.SetDefault("media.max_concurrent_uploads", 4)

	// Storage
	v.SetDefault("storage.driver", "disk")
	v.SetDefault("storage.dir", "./media")
	v.SetDefault("storage.s3.region", "us-east-1")

	// Caching
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_capacity", 100)
	v.SetDefault("cache.ttl", "30m")

	// Security & Limits
	v.SetDefault("security.cors_origins", []string{DefaultSiteURL, "https://**.interiorvillabd.com"})
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.requests", 20)
	v.SetDefault("security.rate_limit.window", "1s")
	v.SetDefault("security.rate_limit.burst", 50)
	v.SetDefault("security.email_rate_limit.enabled", true)
	v.SetDefault("security.email_rate_limit.requests", 5)
	v.SetDefault("security.email_rate_limit.window", "1m")
	v.SetDefault("security.email_rate_limit.burst", 5)

	// Email
	v.SetDefault("email.from", "Interior Villa <onboarding@resend.dev>")
	v.SetDefault("email.to", []string{"bdtechnocrats@gmail.com"})
	v.SetDefault("email.endpoint", "https://api.resend.com/emails")
	v.SetDefault("email.timeout", "10s")
	v.SetDefault("email.breaker.max_failures", 5)
	v.SetDefault("email.breaker.interval", "1m")
	v.SetDefault("email.breaker.timeout", "30s")

	// Site
	v.SetDefault("site.url", "")
	v.SetDefault("site.static_paths", []string{
		"/",
		"/about",
		"/services/residential-interior",
		"/services/commercial-interior",
		"/services/architectural-consultancy",
		"/portfolio",
		"/blog",
		"/contact",
	})
	v.SetDefault("site.entry_limit", 1000)
}

func (c *Config) Validate() error {
	if c.Security.UploadSecret == "" || c.Security.UploadSecret == "secret" {
		if c.Server.Env == "production" {
			return fmt.Errorf("security.upload_secret cannot be default or empty in production environment")
		}
		logger.LogWarn("Security Alert: upload secret is empty or default. Write endpoints will reject every request until it is set.")
	}

	for key, value := range map[string]string{
		"cache.ttl":                        c.Cache.TTL,
		"security.rate_limit.window":       c.Security.RateLimit.Window,
		"security.email_rate_limit.window": c.Security.EmailRateLimit.Window,
		"database.maintenance_interval":    c.Database.MaintenanceInterval,
		"email.timeout":                    c.Email.Timeout,
		"email.breaker.interval":           c.Email.Breaker.Interval,
		"email.breaker.timeout":            c.Email.Breaker.Timeout,
		"server.shutdown_timeout":          c.Server.ShutdownTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format '%s': %v", key, value, err)
		}
	}

	if _, err := utils.ParseSize(c.Media.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid media.max_upload_size: %v", err)
	}

	if c.Media.DefaultQuality < 1 || c.Media.DefaultQuality > 100 {
		return fmt.Errorf("media.default_quality must be within 1-100, got %d", c.Media.DefaultQuality)
	}
	if c.Media.Parallelism < 1 {
		return fmt.Errorf("media.parallelism must be at least 1, got %d", c.Media.Parallelism)
	}
	if c.Media.MaxConcurrentUploads < 1 {
		return fmt.Errorf("media.max_concurrent_uploads must be at least 1, got %d", c.Media.MaxConcurrentUploads)
	}
	if !strings.HasPrefix(c.Media.URLPrefix, "/") {
		return fmt.Errorf("media.url_prefix must start with '/', got '%s'", c.Media.URLPrefix)
	}

	switch c.Storage.Driver {
	case "disk":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the disk driver")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver '%s' (want disk or s3)", c.Storage.Driver)
	}

	return nil
}
