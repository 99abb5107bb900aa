// Package config loads orchestrator configuration from a YAML file
// with environment overrides, and hot-reloads tuning knobs on change.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProviderConfig describes one content-generation backend.
type ProviderConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Model     string `mapstructure:"model"`
	APIKeyEnv string `mapstructure:"api_key_env"`
}

// Config is the full orchestrator configuration.
type Config struct {
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`

	Providers struct {
		// Order is the cascade priority order; each name must have an
		// entry in Endpoints.
		Order         []string                  `mapstructure:"order"`
		Endpoints     map[string]ProviderConfig `mapstructure:"endpoints"`
		CallTimeout   time.Duration             `mapstructure:"call_timeout"`
		RatePerMinute int                       `mapstructure:"rate_per_minute"`
	} `mapstructure:"providers"`

	Quality struct {
		Threshold    int `mapstructure:"threshold"`
		MaxRevisions int `mapstructure:"max_revisions"`
	} `mapstructure:"quality"`

	Research struct {
		// Endpoints maps basket name to its service URL.
		Endpoints     map[string]string `mapstructure:"endpoints"`
		BasketTimeout time.Duration     `mapstructure:"basket_timeout"`
	} `mapstructure:"research"`

	Cache struct {
		// RedisAddr empty selects the in-memory store.
		RedisAddr  string        `mapstructure:"redis_addr"`
		TTL        time.Duration `mapstructure:"ttl"`
		MaxEntries int           `mapstructure:"max_entries"`
	} `mapstructure:"cache"`

	Registry struct {
		MaxWorkflows int `mapstructure:"max_workflows"`
	} `mapstructure:"registry"`

	Listings struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"listings"`

	Strategy struct {
		DefinitionsPath string `mapstructure:"definitions_path"`
	} `mapstructure:"strategy"`
}

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "./config/strategos.yaml"

// Load reads configuration from path (or CONFIG_PATH, or DefaultPath),
// applying defaults and STRATEGOS_* environment overrides. A missing
// file is not an error; defaults plus env carry a dev setup.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("STRATEGOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8002)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 2112)
	v.SetDefault("logging.level", "info")
	v.SetDefault("providers.order", []string{"groq"})
	v.SetDefault("providers.call_timeout", "60s")
	v.SetDefault("providers.rate_per_minute", 0)
	v.SetDefault("quality.threshold", 7)
	v.SetDefault("quality.max_revisions", 3)
	v.SetDefault("research.basket_timeout", "20s")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.max_entries", 512)
	v.SetDefault("registry.max_workflows", 1000)
	v.SetDefault("listings.path", "")
	v.SetDefault("strategy.definitions_path", "")
}

// Validate rejects out-of-range tuning values and an empty cascade.
func (c *Config) Validate() error {
	if c.Quality.Threshold < 1 || c.Quality.Threshold > 10 {
		return fmt.Errorf("quality.threshold must be in 1..10, got %d", c.Quality.Threshold)
	}
	if c.Quality.MaxRevisions < 0 {
		return fmt.Errorf("quality.max_revisions must be non-negative, got %d", c.Quality.MaxRevisions)
	}
	if len(c.Providers.Order) == 0 {
		return fmt.Errorf("providers.order must list at least one provider")
	}
	for _, name := range c.Providers.Order {
		if _, ok := c.Providers.Endpoints[name]; !ok && len(c.Providers.Endpoints) > 0 {
			return fmt.Errorf("providers.order names %q but providers.endpoints has no such entry", name)
		}
	}
	return nil
}
