package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the shopscribe server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	SearchAPI SearchAPIConfig
	Browser   BrowserConfig
	Inference InferenceConfig
	CMS       CMSConfig
	Pipeline  PipelineConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// SearchAPIConfig describes the tier-1 structured product source.
type SearchAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// BrowserConfig describes the tier-2 headless browser.
type BrowserConfig struct {
	ChromePath    string
	Headless      bool
	NavTimeout    time.Duration
	SettleDelay   time.Duration
	SelectorsPath string
	ProductURL    string // template with %s for the product id
}

type InferenceConfig struct {
	Provider  string
	Timeout   time.Duration
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// CMSConfig describes the target content-management backend.
type CMSConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

type PipelineConfig struct {
	Workers       int
	TierTimeout   time.Duration
	CheckpointTTL time.Duration
}

var validProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"mock":      true,
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any required value is
// missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("SHOPSCRIBE_PORT", 8080),
			Env:  envString("SHOPSCRIBE_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		SearchAPI: SearchAPIConfig{
			BaseURL: os.Getenv("SEARCH_API_BASE_URL"),
			APIKey:  os.Getenv("SEARCH_API_KEY"),
			Timeout: envDuration("SEARCH_API_TIMEOUT", 10*time.Second),
		},
		Browser: BrowserConfig{
			ChromePath:    os.Getenv("CHROME_PATH"),
			Headless:      envBool("BROWSER_HEADLESS", true),
			NavTimeout:    envDuration("BROWSER_NAV_TIMEOUT", 30*time.Second),
			SettleDelay:   envDuration("BROWSER_SETTLE_DELAY", 2*time.Second),
			SelectorsPath: os.Getenv("BROWSER_SELECTORS_PATH"),
			ProductURL:    envString("PRODUCT_URL_TEMPLATE", "https://shop.example/vp/products/%s"),
		},
		Inference: InferenceConfig{
			Provider: envString("INFERENCE_PROVIDER", "mock"),
			Timeout:  envDurationSecs("INFERENCE_TIMEOUT_SECS", 60*time.Second),
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			},
			Anthropic: AnthropicConfig{
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				Model:   envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
				BaseURL: envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			},
		},
		CMS: CMSConfig{
			BaseURL:  os.Getenv("CMS_BASE_URL"),
			Username: os.Getenv("CMS_USERNAME"),
			Password: os.Getenv("CMS_PASSWORD"),
			Timeout:  envDuration("CMS_TIMEOUT", 30*time.Second),
		},
		Pipeline: PipelineConfig{
			Workers:       envInt("PIPELINE_WORKERS", 5),
			TierTimeout:   envDuration("PIPELINE_TIER_TIMEOUT", 45*time.Second),
			CheckpointTTL: envDuration("CHECKPOINT_TTL", 24*time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.SearchAPI.BaseURL == "" {
		return fmt.Errorf("SEARCH_API_BASE_URL is required")
	}
	if !strings.HasPrefix(c.SearchAPI.BaseURL, "http://") && !strings.HasPrefix(c.SearchAPI.BaseURL, "https://") {
		return fmt.Errorf("SEARCH_API_BASE_URL must start with http:// or https://, got %q", c.SearchAPI.BaseURL)
	}

	if c.CMS.BaseURL == "" {
		return fmt.Errorf("CMS_BASE_URL is required")
	}

	if !validProviders[c.Inference.Provider] {
		return fmt.Errorf("INFERENCE_PROVIDER must be one of openai, anthropic, mock; got %q", c.Inference.Provider)
	}
	if c.Inference.Provider == "openai" && c.Inference.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when INFERENCE_PROVIDER is openai")
	}
	if c.Inference.Provider == "anthropic" && c.Inference.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when INFERENCE_PROVIDER is anthropic")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1, got %d", c.Pipeline.Workers)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
