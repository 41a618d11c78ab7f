// Package config handles configuration loading for stockrec.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides,
// e.g. STOCKREC_API_PORT or STOCKREC_DATA_DIR.
const EnvPrefix = "STOCKREC"

// Config represents the complete application configuration.
type Config struct {
	Data      DataConfig      `mapstructure:"data"      yaml:"data"`
	Recommend RecommendConfig `mapstructure:"recommend" yaml:"recommend"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Fetch     FetchConfig     `mapstructure:"fetch"     yaml:"fetch"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// DataConfig locates the input tables.
// Relative file names are resolved against Dir.
type DataConfig struct {
	Dir                  string `mapstructure:"dir"                    yaml:"dir"`
	PortfoliosFile       string `mapstructure:"portfolios_file"        yaml:"portfolios_file"`
	SectorSimilarityFile string `mapstructure:"sector_similarity_file" yaml:"sector_similarity_file"`
	RiskSimilarityFile   string `mapstructure:"risk_similarity_file"   yaml:"risk_similarity_file"`
	ConstituentsFile     string `mapstructure:"constituents_file"      yaml:"constituents_file"`
	Watch                bool   `mapstructure:"watch"                  yaml:"watch"`
	WatchDebounceMS      int    `mapstructure:"watch_debounce_ms"      yaml:"watch_debounce_ms"`
}

// RecommendConfig holds presentation defaults for recommendation lists.
type RecommendConfig struct {
	TopN         int `mapstructure:"top_n"          yaml:"top_n"`
	NewsPerStock int `mapstructure:"news_per_stock" yaml:"news_per_stock"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host              string   `mapstructure:"host"                yaml:"host"`
	Port              int      `mapstructure:"port"                yaml:"port"`
	CORSOrigins       []string `mapstructure:"cors_origins"        yaml:"cors_origins"`
	RequestTimeoutSec int      `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// FetchConfig holds settings for the external reference and news sources.
type FetchConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst"               yaml:"burst"`
	TimeoutSec        int     `mapstructure:"timeout_sec"         yaml:"timeout_sec"`
	BreakerFailures   uint32  `mapstructure:"breaker_failures"    yaml:"breaker_failures"`
	ConstituentsURL   string  `mapstructure:"constituents_url"    yaml:"constituents_url"`
	NewsFeedURL       string  `mapstructure:"news_feed_url"       yaml:"news_feed_url"` // %s is replaced by the symbol
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "json" or "console"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.stockrec/config.yaml (home directory)
//  3. /etc/stockrec/config.yaml (system)
//
// Environment variables override config file values.
// Format: STOCKREC_<SECTION>_<KEY>, e.g., STOCKREC_DATA_DIR
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stockrec"))
	v.AddConfigPath("/etc/stockrec")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Data defaults mirror the layout produced by the data generation scripts.
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.portfolios_file", "user_portfolios.csv")
	v.SetDefault("data.sector_similarity_file", "sector_similarity_matrix.csv")
	v.SetDefault("data.risk_similarity_file", "risk_similarity_matrix.csv")
	v.SetDefault("data.constituents_file", "constituents_with_changes.csv")
	v.SetDefault("data.watch", false)
	v.SetDefault("data.watch_debounce_ms", 500)

	v.SetDefault("recommend.top_n", 5)
	v.SetDefault("recommend.news_per_stock", 3)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.request_timeout_sec", 30)

	v.SetDefault("fetch.requests_per_second", 2.0)
	v.SetDefault("fetch.burst", 2)
	v.SetDefault("fetch.timeout_sec", 30)
	v.SetDefault("fetch.breaker_failures", 5)
	v.SetDefault("fetch.constituents_url", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies")
	v.SetDefault("fetch.news_feed_url", "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.Recommend.TopN < 0 {
		return fmt.Errorf("recommend.top_n must be >= 0, got %d", c.Recommend.TopN)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	if c.Fetch.RequestsPerSecond <= 0 {
		return fmt.Errorf("fetch.requests_per_second must be > 0, got %v", c.Fetch.RequestsPerSecond)
	}
	if !strings.Contains(c.Fetch.NewsFeedURL, "%s") {
		return fmt.Errorf("fetch.news_feed_url must contain %%s for the symbol")
	}
	return nil
}

// Path resolves a data file name against the data directory.
func (d DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// WatchDebounce returns the reload debounce interval.
func (d DataConfig) WatchDebounce() time.Duration {
	if d.WatchDebounceMS <= 0 {
		return 0
	}
	return time.Duration(d.WatchDebounceMS) * time.Millisecond
}

// Addr returns the host:port the API server listens on.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// RequestTimeout returns the per-request handler timeout.
func (a APIConfig) RequestTimeout() time.Duration {
	return time.Duration(a.RequestTimeoutSec) * time.Second
}

// Timeout returns the HTTP client timeout for external sources.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
