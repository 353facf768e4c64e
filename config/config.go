package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Booking    BookingConfig    `yaml:"booking"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Reports    ReportsConfig    `yaml:"reports"`
	Catalog    CatalogConfig    `yaml:"catalog"`
}

// WorkerPoolConfig holds the configuration for the report notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	AdminToken      string  `yaml:"admin_token"`
}

// BookingConfig describes the remote booking system completed sessions are pushed to.
type BookingConfig struct {
	BaseURL              string            `yaml:"base_url"`
	APIKey               string            `yaml:"api_key"`
	HTTPProxy            string            `yaml:"http_proxy"`
	Headers              map[string]string `yaml:"headers"`
	TimeoutSeconds       int               `yaml:"timeout_seconds"`
	Timeout              time.Duration     `yaml:"-"`
	RateLimitPerSec      float64           `yaml:"rate_limit_per_sec"`
	RetryIntervalSeconds int               `yaml:"retry_interval_seconds"`
	RetryInterval        time.Duration     `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// ReportsConfig limits photo attachments on lost property and maintenance reports.
type ReportsConfig struct {
	UploadDir     string `yaml:"upload_dir"`
	MaxPhotoBytes int64  `yaml:"max_photo_bytes"`
	MaxPhotos     int    `yaml:"max_photos"`
}

// CatalogConfig is the static reference data: consumables, properties and cleaners.
type CatalogConfig struct {
	Consumables []ConsumableItem `yaml:"consumables"`
	Properties  []Property       `yaml:"properties"`
	Cleaners    []Cleaner        `yaml:"cleaners"`
}

// ConsumableItem is a priced consumable a cleaner can record usage of.
type ConsumableItem struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

// Property is a holiday property as known to the booking system.
type Property struct {
	ID       string `yaml:"id"`
	RecordID string `yaml:"record_id"`
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	Blocked  bool   `yaml:"blocked"`
}

// Cleaner is a selectable identity on the device.
type Cleaner struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	PIN  string `yaml:"pin"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "cleaning.db"
	}

	if cfg.Booking.TimeoutSeconds <= 0 {
		cfg.Booking.TimeoutSeconds = 30
	}
	cfg.Booking.Timeout = time.Duration(cfg.Booking.TimeoutSeconds) * time.Second
	if cfg.Booking.RateLimitPerSec <= 0 {
		cfg.Booking.RateLimitPerSec = 5
	}
	if cfg.Booking.RetryIntervalSeconds < 0 {
		log.Printf("booking.retry_interval_seconds is negative; disabling periodic retry")
		cfg.Booking.RetryIntervalSeconds = 0
	}
	cfg.Booking.RetryInterval = time.Duration(cfg.Booking.RetryIntervalSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Reports.UploadDir == "" {
		cfg.Reports.UploadDir = "./uploads"
	}
	if cfg.Reports.MaxPhotoBytes <= 0 {
		cfg.Reports.MaxPhotoBytes = 10 << 20
	}
	if cfg.Reports.MaxPhotos <= 0 {
		cfg.Reports.MaxPhotos = 5
	}
}
