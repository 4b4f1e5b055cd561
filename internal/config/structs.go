package config

type Config struct {
	// App: Global application metadata
	App AppInfoConfig `mapstructure:"app"`

	// Server: Network configuration and execution environment
	Server ServerConfig `mapstructure:"server"`

	// Database: SQLite engine parameters and maintenance schedule
	Database DatabaseConfig `mapstructure:"database"`

	// Media: Variant generation and upload constraints
	Media MediaConfig `mapstructure:"media"`

	// Storage: Where originals and variant files live
	Storage StorageConfig `mapstructure:"storage"`

	// Cache: In-memory cache in front of the file store
	Cache CacheConfig `mapstructure:"cache"`

	// Security: Write secret, CORS whitelist and rate limits
	Security SecurityConfig `mapstructure:"security"`

	// Email: Transactional email relay (contact / appointment forms)
	Email EmailConfig `mapstructure:"email"`

	// Site: Public website used by the sitemap and robots.txt
	Site SiteConfig `mapstructure:"site"`

	// BaseURL: Public root of this service, used for absolute media URLs
	BaseURL string `mapstructure:"base_url"`
}

type AppInfoConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Debug   bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	// Port: TCP port the HTTP server binds to (default: 3001)
	Port int `mapstructure:"port"`

	// Env: development, staging, production
	Env string `mapstructure:"env"`

	// ShutdownTimeout: Grace period for in-flight requests and secondary passes
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Path: Location of the SQLite database file (e.g., ./data/villa.db)
	Path string `mapstructure:"path"`

	// MaintenanceInterval: How often WAL checkpoint / VACUUM checks run (e.g., "1h")
	MaintenanceInterval string `mapstructure:"maintenance_interval"`
}

type MediaConfig struct {
	// URLPrefix: Public path files are served under (e.g., "/media")
	URLPrefix string `mapstructure:"url_prefix"`

	// MaxUploadSize: Maximum payload for POST /api/media (e.g., "20MB")
	MaxUploadSize string `mapstructure:"max_upload_size"`

	// DefaultQuality: Encoder quality when a variant does not set its own (1-100)
	DefaultQuality int `mapstructure:"default_quality"`

	// Parallelism: Variants generated concurrently per record
	Parallelism int `mapstructure:"parallelism"`

	// SecondaryWebP: Enables the best-effort full size WebP derivative
	SecondaryWebP bool `mapstructure:"secondary_webp"`

	// AsyncSecondary: Run the secondary pass after the upload response
	AsyncSecondary bool `mapstructure:"async_secondary"`

	// MaxConcurrentUploads: Uploads processed at once; the rest wait
	MaxConcurrentUploads int `mapstructure:"max_concurrent_uploads"`
}

type StorageConfig struct {
	// Driver: "disk" or "s3"
	Driver string `mapstructure:"driver"`

	// Dir: Root directory for the disk driver
	Dir string `mapstructure:"dir"`

	S3 S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Endpoint string `mapstructure:"endpoint"` // MinIO / R2; enables path-style addressing
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// MaxCapacity: RAM allocated for cached files in MB
	MaxCapacity int `mapstructure:"max_capacity"`

	TTL string `mapstructure:"ttl"`
}

type SecurityConfig struct {
	// UploadSecret: Token required in the X-Secret-Key header for write operations
	UploadSecret string `mapstructure:"upload_secret"`

	// CorsOrigins: Allowed origins; supports "*", "https://*.x.com" and "https://**.x.com"
	CorsOrigins []string `mapstructure:"cors_origins"`

	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
	EmailRateLimit RateLimitConfig `mapstructure:"email_rate_limit"`
}

type RateLimitConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Requests int    `mapstructure:"requests"`
	Window   string `mapstructure:"window"`
	Burst    int    `mapstructure:"burst"`
}

type EmailConfig struct {
	// ResendAPIKey: RESEND_API_KEY; the relay answers 500 when empty
	ResendAPIKey string `mapstructure:"resend_api_key"`

	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	Endpoint string   `mapstructure:"endpoint"`
	Timeout  string   `mapstructure:"timeout"`

	Breaker BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	// MaxFailures: Consecutive provider failures before the breaker opens
	MaxFailures uint32 `mapstructure:"max_failures"`

	// Interval: Closed-state window after which counts reset
	Interval string `mapstructure:"interval"`

	// Timeout: Open-state duration before a half-open probe
	Timeout string `mapstructure:"timeout"`
}

type SiteConfig struct {
	// URL: Public website root (PAYLOAD_PUBLIC_SERVER_URL)
	URL string `mapstructure:"url"`

	StaticPaths []string `mapstructure:"static_paths"`

	// EntryLimit: Max dynamic entries per collection
	EntryLimit int `mapstructure:"entry_limit"`
}
