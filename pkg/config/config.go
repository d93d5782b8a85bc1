package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes "10s"-style YAML values; yaml.v3 has no native
// time.Duration support.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	v, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type RateClass struct {
	Capacity     float64 `yaml:"capacity"`
	RefillPerSec float64 `yaml:"refill_per_sec"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int      `yaml:"port"`
		ReadTimeout     Duration `yaml:"read_timeout"`
		WriteTimeout    Duration `yaml:"write_timeout"`
		ShutdownTimeout Duration `yaml:"shutdown_timeout"`
		CORS            bool     `yaml:"cors"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	CoinGecko struct {
		BaseURL         string   `yaml:"base_url"`
		FallbackBaseURL string   `yaml:"fallback_base_url"`
		UserAgent       string   `yaml:"user_agent"`
		Timeout         Duration `yaml:"timeout"`
		Retry           struct {
			MaxAttempts         int      `yaml:"max_attempts"`
			BackoffBase         Duration `yaml:"backoff_base"`
			RateLimitBackoffCap Duration `yaml:"rate_limit_backoff_cap"`
			ServerErrBackoffCap Duration `yaml:"server_error_backoff_cap"`
		} `yaml:"retry"`
	} `yaml:"coingecko"`
	RateLimit struct {
		MaxWait     Duration             `yaml:"max_wait"`
		MaxWaitStep Duration             `yaml:"max_wait_step"`
		Classes     map[string]RateClass `yaml:"classes"`
	} `yaml:"ratelimit"`
	Cache struct {
		Backend string `yaml:"backend"` // memory, redis or layered
		Redis   struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		MemoryMaxSize int `yaml:"memory_max_size"`
		TTL           struct {
			Prices   Duration `yaml:"prices"`
			Detail   Duration `yaml:"detail"`
			Chart    Duration `yaml:"chart"`
			Forecast Duration `yaml:"forecast"`
		} `yaml:"ttl"`
	} `yaml:"cache"`
	Market struct {
		VsCurrency          string `yaml:"vs_currency"`
		ListingPerPage      int    `yaml:"listing_per_page"`
		ForecastHistoryDays int    `yaml:"forecast_history_days"`
		MaxChartDays        int    `yaml:"max_chart_days"`
		Horizons            []int  `yaml:"horizons"`
	} `yaml:"market"`
	Stream struct {
		Enabled  bool     `yaml:"enabled"`
		Interval Duration `yaml:"interval"`
	} `yaml:"stream"`
	Warmup struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"warmup"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		c.CoinGecko.BaseURL = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
		if c.Cache.Backend == "memory" {
			c.Cache.Backend = "layered"
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.CoinGecko.BaseURL == "" {
		return fmt.Errorf("coingecko.base_url is required")
	}
	if c.CoinGecko.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("coingecko.retry.max_attempts must be positive")
	}
	if c.CoinGecko.Retry.RateLimitBackoffCap < c.CoinGecko.Retry.ServerErrBackoffCap {
		return fmt.Errorf("rate_limit_backoff_cap must be >= server_error_backoff_cap")
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	if len(c.RateLimit.Classes) == 0 {
		return fmt.Errorf("ratelimit.classes cannot be empty")
	}
	for name, rc := range c.RateLimit.Classes {
		if rc.Capacity <= 0 || rc.RefillPerSec <= 0 {
			return fmt.Errorf("ratelimit.classes.%s: capacity and refill_per_sec must be positive", name)
		}
	}
	if c.Market.MaxChartDays <= 0 {
		return fmt.Errorf("market.max_chart_days must be positive")
	}
	return nil
}
