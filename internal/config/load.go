package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "PATTERNLAB_CONFIG"

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got kind %d", node.Kind)
	}
	s := strings.TrimSpace(node.Value)
	if s == "" || s == "null" || s == "~" {
		d.Duration = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Duration = time.Duration(n)
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: Duration{Duration: 30 * time.Second},
		},
		HTTP: HTTPConfig{
			Addr:              "127.0.0.1:5173",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 10 * time.Second},
		},
		Storage: StorageConfig{
			Driver:      StorageSQLite,
			Path:        "patternlab.db",
			RedisPrefix: "patternlab:",
		},
		Session: SessionConfig{
			CheckInterval: Duration{Duration: time.Minute},
		},
		Locale: "pt-BR",
		Tracing: TracingConfig{
			ServiceName: "patternlab",
			SampleRatio: 0.1,
		},
	}
}

// Default returns the built-in configuration with no file or env applied.
func Default() *Config { return defaultConfig() }

// Load resolves configuration from defaults, then the YAML file named by
// PATTERNLAB_CONFIG (or ./config/patternlab.yaml when present), then env.
func Load() (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv(configPathEnv))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "patternlab.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	applyEnv(cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	env := func(k string) string { return strings.TrimSpace(getenv(k)) }

	if v := env("LOG_MODE"); v != "" {
		cfg.Env = v
	}
	if v := env("PATTERNLAB_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := env("PATTERNLAB_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = Duration{Duration: d}
		}
	}
	if v := env("PATTERNLAB_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := env("PATTERNLAB_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := env("PATTERNLAB_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := env("PATTERNLAB_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := env("REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := env("PATTERNLAB_LOCALE"); v != "" {
		cfg.Locale = v
	}
	if v := env("PATTERNLAB_SESSION_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.CheckInterval = Duration{Duration: d}
		}
	}
	if v := env("OTEL_ENABLED"); v != "" {
		cfg.Tracing.Enabled = parseBool(v)
	}
	if v := env("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Tracing.Endpoint = v
	}
	if v := env("OTEL_SAMPLER_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tracing.SampleRatio = f
		}
	}
}

func (c *Config) Validate() error {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout.Duration <= 0 {
		c.API.Timeout = Duration{Duration: 30 * time.Second}
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("http.addr is required")
	}
	switch c.Storage.Driver {
	case StorageSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("storage.path is required for the sqlite driver")
		}
	case StorageRedis:
		if strings.TrimSpace(c.Storage.RedisAddr) == "" {
			return errors.New("storage.redis_addr is required for the redis driver")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Session.CheckInterval.Duration <= 0 {
		return errors.New("session.check_interval must be positive")
	}
	if c.Tracing.SampleRatio < 0 {
		c.Tracing.SampleRatio = 0
	}
	if c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
	if strings.TrimSpace(c.Locale) == "" {
		c.Locale = "pt-BR"
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
