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
	Region    RegionConfig    `mapstructure:"region"`
	Police    PoliceConfig    `mapstructure:"police"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// RegionConfig is the serviceable bounding box.
type RegionConfig struct {
	MinLat float64 `mapstructure:"min_lat"`
	MaxLat float64 `mapstructure:"max_lat"`
	MinLon float64 `mapstructure:"min_lon"`
	MaxLon float64 `mapstructure:"max_lon"`
}

// PoliceConfig tunes the street-crime client and its dispatch queue.
type PoliceConfig struct {
	BaseURL       string  `mapstructure:"base_url"`
	TimeoutSec    int     `mapstructure:"timeout_sec"`
	MinIntervalMS int     `mapstructure:"min_interval_ms"`
	CooldownMS    int     `mapstructure:"cooldown_ms"`
	BackoffStepMS int     `mapstructure:"backoff_step_ms"`
	MaxAttempts   int     `mapstructure:"max_attempts"`
	LagMonths     int     `mapstructure:"lag_months"`
	MaxRadiusKm   float64 `mapstructure:"max_radius_km"`
}

func (p PoliceConfig) MinInterval() time.Duration { return time.Duration(p.MinIntervalMS) * time.Millisecond }
func (p PoliceConfig) Cooldown() time.Duration    { return time.Duration(p.CooldownMS) * time.Millisecond }
func (p PoliceConfig) BackoffStep() time.Duration { return time.Duration(p.BackoffStepMS) * time.Millisecond }

type GeocodingConfig struct {
	PostcodesBaseURL string  `mapstructure:"postcodes_base_url"`
	NominatimBaseURL string  `mapstructure:"nominatim_base_url"`
	UserAgent        string  `mapstructure:"user_agent"`
	RatePerSec       float64 `mapstructure:"rate_per_sec"`
	TimeoutSec       int     `mapstructure:"timeout_sec"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
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
	v.SetDefault("server.write_timeout", 180)
	v.SetDefault("region.min_lat", 49.8)
	v.SetDefault("region.max_lat", 60.9)
	v.SetDefault("region.min_lon", -8.65)
	v.SetDefault("region.max_lon", 1.78)
	v.SetDefault("police.base_url", "https://data.police.uk/api")
	v.SetDefault("police.timeout_sec", 30)
	v.SetDefault("police.min_interval_ms", 500)
	v.SetDefault("police.cooldown_ms", 5000)
	v.SetDefault("police.backoff_step_ms", 1000)
	v.SetDefault("police.max_attempts", 4)
	v.SetDefault("police.lag_months", 2)
	v.SetDefault("police.max_radius_km", 5)
	v.SetDefault("geocoding.postcodes_base_url", "https://api.postcodes.io")
	v.SetDefault("geocoding.nominatim_base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.user_agent", "safestreets/1.0 (crime area explorer)")
	v.SetDefault("geocoding.rate_per_sec", 1)
	v.SetDefault("geocoding.timeout_sec", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", true)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.endpoint", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SAFESTREETS_POLICE_BASE_URL → police.base_url
	v.SetEnvPrefix("SAFESTREETS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Region.MinLat >= c.Region.MaxLat {
		errs = append(errs, "region.min_lat must be below region.max_lat")
	}
	if c.Region.MinLon >= c.Region.MaxLon {
		errs = append(errs, "region.min_lon must be below region.max_lon")
	}
	if c.Police.BaseURL == "" {
		errs = append(errs, "police.base_url is required")
	}
	if c.Police.MinIntervalMS <= 0 {
		errs = append(errs, "police.min_interval_ms must be positive")
	}
	if c.Police.CooldownMS < c.Police.MinIntervalMS {
		errs = append(errs, "police.cooldown_ms must be at least police.min_interval_ms")
	}
	if c.Police.MaxAttempts <= 0 {
		errs = append(errs, "police.max_attempts must be positive")
	}
	if c.Police.LagMonths < 0 {
		errs = append(errs, "police.lag_months must not be negative")
	}
	if c.Police.MaxRadiusKm <= 0 {
		errs = append(errs, "police.max_radius_km must be positive")
	}
	if c.Geocoding.UserAgent == "" {
		errs = append(errs, "geocoding.user_agent is required (Nominatim usage policy)")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
