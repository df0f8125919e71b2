package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
	kDuration
)

func (t keyType) String() string {
	switch t {
	case kInt:
		return "integer"
	case kBool:
		return "bool"
	case kFloat:
		return "float"
	case kDuration:
		return "duration"
	}
	return "string"
}

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "LOOKBOOK_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "LOOKBOOK_SERVER_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "storage.data_dir", typ: kString, env: "LOOKBOOK_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "storage.backend", typ: kString, env: "LOOKBOOK_STORAGE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Storage.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.Backend },
	},
	{
		key: "log.level", typ: kString, env: "LOOKBOOK_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "log.format", typ: kString, env: "LOOKBOOK_LOG_FORMAT",
		apply:   func(cfg *Config, v any) { cfg.Log.Format = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Format },
	},
	{
		key: "log.dir", typ: kString, env: "LOOKBOOK_LOG_DIR",
		apply:   func(cfg *Config, v any) { cfg.Log.Dir = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Dir },
	},
	{
		key: "intel.cooldown", typ: kDuration, env: "LOOKBOOK_INTEL_COOLDOWN",
		apply:   func(cfg *Config, v any) { cfg.Intel.Cooldown = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Intel.Cooldown },
	},
	{
		key: "wizard.result_delay", typ: kDuration, env: "LOOKBOOK_WIZARD_RESULT_DELAY",
		apply:   func(cfg *Config, v any) { cfg.Wizard.ResultDelay = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Wizard.ResultDelay },
	},
	{
		key: "wizard.min_wardrobe", typ: kInt, env: "LOOKBOOK_WIZARD_MIN_WARDROBE",
		apply:   func(cfg *Config, v any) { cfg.Wizard.MinWardrobe = v.(int) },
		extract: func(cfg Config) any { return cfg.Wizard.MinWardrobe },
	},
	{
		key: "weather.provider", typ: kString, env: "LOOKBOOK_WEATHER_PROVIDER",
		apply:   func(cfg *Config, v any) { cfg.Weather.Provider = v.(string) },
		extract: func(cfg Config) any { return cfg.Weather.Provider },
	},
	{
		key: "weather.base_url", typ: kString, env: "LOOKBOOK_WEATHER_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Weather.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Weather.BaseURL },
	},
	{
		key: "weather.latitude", typ: kFloat, env: "LOOKBOOK_WEATHER_LATITUDE",
		apply:   func(cfg *Config, v any) { cfg.Weather.Latitude = v.(float64) },
		extract: func(cfg Config) any { return cfg.Weather.Latitude },
	},
	{
		key: "weather.longitude", typ: kFloat, env: "LOOKBOOK_WEATHER_LONGITUDE",
		apply:   func(cfg *Config, v any) { cfg.Weather.Longitude = v.(float64) },
		extract: func(cfg Config) any { return cfg.Weather.Longitude },
	},
	{
		key: "weather.static_temp_f", typ: kFloat, env: "LOOKBOOK_WEATHER_STATIC_TEMP_F",
		apply:   func(cfg *Config, v any) { cfg.Weather.StaticTempF = v.(float64) },
		extract: func(cfg Config) any { return cfg.Weather.StaticTempF },
	},
	{
		key: "analytics.enabled", typ: kBool, env: "LOOKBOOK_ANALYTICS_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Analytics.Enabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Analytics.Enabled },
	},
	{
		key: "ratelimit.requests_per_minute", typ: kInt, env: "LOOKBOOK_RATELIMIT_REQUESTS_PER_MINUTE",
		apply:   func(cfg *Config, v any) { cfg.RateLimit.RequestsPerMinute = v.(int) },
		extract: func(cfg Config) any { return cfg.RateLimit.RequestsPerMinute },
	},
}

// parseValue converts raw to the Go type of t.
func parseValue(t keyType, raw string) (any, error) {
	switch t {
	case kInt:
		return strconv.Atoi(raw)
	case kBool:
		return strconv.ParseBool(raw)
	case kFloat:
		return strconv.ParseFloat(raw, 64)
	case kDuration:
		return time.ParseDuration(raw)
	}
	return raw, nil
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		if s.typ == kInt {
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
			continue
		}

		raw, ok, err := b.GetString(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || (raw == "" && s.typ != kString) {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			slog.Warn("could not parse config key, using default value", "key", s.key, "value", raw, "type", s.typ.String(), "error", err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			slog.Warn("could not parse env var, using default value", "env", s.env, "value", raw, "type", s.typ.String(), "error", err)
			continue
		}
		s.apply(cfg, v)
	}
}
