package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Sampler   SamplerConfig   `mapstructure:"sampler"`
	Canvas    CanvasConfig    `mapstructure:"canvas"`
	Session   SessionConfig   `mapstructure:"session"`
	Export    ExportConfig    `mapstructure:"export"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    int           `mapstructure:"read_timeout"`
	WriteTimeout   int           `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"` // requests per minute per IP
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MapsConfig configures the mapping/places provider and the browser widget.
type MapsConfig struct {
	APIKey        string  `mapstructure:"api_key"`
	BrowserKey    string  `mapstructure:"browser_key"` // defaults to api_key
	BaseURL       string  `mapstructure:"base_url"`
	QPS           int     `mapstructure:"qps"`
	AddressSearch bool    `mapstructure:"address_search"`
	Geolocation   bool    `mapstructure:"geolocation"`
	CenterLat     float64 `mapstructure:"center_lat"`
	CenterLon     float64 `mapstructure:"center_lon"`
	Zoom          int     `mapstructure:"zoom"`
}

type SamplerConfig struct {
	GridSize     int     `mapstructure:"grid_size"`
	SearchRadius float64 `mapstructure:"search_radius"`
	Concurrency  int     `mapstructure:"concurrency"`
}

type CanvasConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type ExportConfig struct {
	Title       string        `mapstructure:"title"`
	PNGWidth    int           `mapstructure:"png_width"`
	DocumentTTL time.Duration `mapstructure:"document_ttl"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
}

// NATSConfig: an empty URL keeps notifications in process.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ValkeyConfig: an empty address keeps sessions and jobs in process.
type ValkeyConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

// TemporalConfig: an empty host disables async exports.
type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 90)
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.browser_key", "")
	v.SetDefault("maps.base_url", "")
	v.SetDefault("maps.qps", 10)
	v.SetDefault("maps.address_search", false)
	v.SetDefault("maps.geolocation", true)
	v.SetDefault("maps.center_lat", 40.7128)
	v.SetDefault("maps.center_lon", -74.0060)
	v.SetDefault("maps.zoom", 15)
	v.SetDefault("sampler.grid_size", 10)
	v.SetDefault("sampler.search_radius", 50)
	v.SetDefault("sampler.concurrency", 8)
	v.SetDefault("canvas.width", 800)
	v.SetDefault("canvas.height", 600)
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("export.title", "Map Design")
	v.SetDefault("export.png_width", 0)
	v.SetDefault("export.document_ttl", "1h")
	v.SetDefault("export.lock_ttl", "5m")
	v.SetDefault("nats.url", "")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("valkey.prefix", "mapart")
	v.SetDefault("temporal.host_port", "")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "mapart-exports")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MAPART_MAPS_API_KEY → maps.api_key
	v.SetEnvPrefix("MAPART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Maps.BrowserKey == "" {
		cfg.Maps.BrowserKey = cfg.Maps.APIKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Maps.APIKey == "" {
		errs = append(errs, "maps.api_key is required (set MAPART_MAPS_API_KEY)")
	}
	if c.Maps.QPS < 0 {
		errs = append(errs, fmt.Sprintf("maps.qps must not be negative, got %d", c.Maps.QPS))
	}
	if c.Maps.CenterLat < -90 || c.Maps.CenterLat > 90 || c.Maps.CenterLon < -180 || c.Maps.CenterLon > 180 {
		errs = append(errs, fmt.Sprintf("maps center %.4f,%.4f is not a valid coordinate", c.Maps.CenterLat, c.Maps.CenterLon))
	}
	if c.Maps.Zoom < 1 || c.Maps.Zoom > 21 {
		errs = append(errs, fmt.Sprintf("maps.zoom must be 1-21, got %d", c.Maps.Zoom))
	}
	if c.Sampler.GridSize < 2 || c.Sampler.GridSize > 100 {
		errs = append(errs, fmt.Sprintf("sampler.grid_size must be 2-100, got %d", c.Sampler.GridSize))
	}
	if c.Sampler.SearchRadius < 1 || c.Sampler.SearchRadius > 500 {
		errs = append(errs, fmt.Sprintf("sampler.search_radius must be 1-500 meters, got %g", c.Sampler.SearchRadius))
	}
	if c.Sampler.Concurrency < 1 {
		errs = append(errs, "sampler.concurrency must be positive")
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Sprintf("canvas must have positive size, got %gx%g", c.Canvas.Width, c.Canvas.Height))
	}
	if c.Export.PNGWidth < 0 {
		errs = append(errs, "export.png_width must not be negative")
	}
	if c.Export.DocumentTTL <= 0 {
		errs = append(errs, "export.document_ttl must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateServer adds the checks only the HTTP API needs.
func (c *Config) ValidateServer() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if len(c.Session.Secret) < 16 {
		errs = append(errs, "session.secret must be at least 16 characters (set MAPART_SESSION_SECRET)")
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, "session.ttl must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
