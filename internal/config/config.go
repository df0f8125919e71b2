package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Log       LogConfig
	Intel     IntelConfig
	Wizard    WizardConfig
	Weather   WeatherConfig
	Analytics AnalyticsConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port     int `validate:"min=1,max=65535"`
	APIToken string
}

type StorageConfig struct {
	DataDir string `validate:"required"`
	Backend string `validate:"oneof=sqlite badger"`
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=text json logfmt"`
	Dir    string
}

type IntelConfig struct {
	Cooldown time.Duration `validate:"gt=0"`
}

type WizardConfig struct {
	ResultDelay time.Duration `validate:"gte=0"`
	MinWardrobe int           `validate:"min=1"`
}

type WeatherConfig struct {
	Provider    string  `validate:"oneof=static http"`
	BaseURL     string  `validate:"omitempty,url"`
	Latitude    float64 `validate:"min=-90,max=90"`
	Longitude   float64 `validate:"min=-180,max=180"`
	StaticTempF float64
}

type AnalyticsConfig struct {
	Enabled bool
}

type RateLimitConfig struct {
	RequestsPerMinute int `validate:"min=0"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
			Backend: "sqlite",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Intel: IntelConfig{
			Cooldown: 2 * time.Hour,
		},
		Wizard: WizardConfig{
			ResultDelay: 1500 * time.Millisecond,
			MinWardrobe: 3,
		},
		Weather: WeatherConfig{
			Provider:    "static",
			BaseURL:     "https://api.open-meteo.com",
			Latitude:    40.7128,
			Longitude:   -74.0060,
			StaticTempF: 70,
		},
		Analytics: AnalyticsConfig{
			Enabled: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
		},
	}
}

// Load reads configuration from the YAML file backend and environment
// variables.
//
// The file lives at $XDG_CONFIG_HOME/lookbook/config.yaml. Environment
// variables (LOOKBOOK_*) override file values. The API token is a secret
// and is only read from LOOKBOOK_SERVER_API_TOKEN.
func Load() (Config, error) {
	b, err := newFileBackend(configFilePath())
	if err != nil {
		return Config{}, err
	}
	return loadWith(b)
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "lookbook-data"
		}
	}
	return filepath.Join(dir, "lookbook")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "lookbook", "config.yaml")
}
