package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sitecount/internal/fetcher"
)

const envPrefix = "SITECOUNT"

// Config holds all application configuration.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Analyze AnalyzeConfig `mapstructure:"analyze"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
}

// CrawlerConfig configures whole-site crawls.
// MaxPages and MaxDepth of zero mean unlimited.
type CrawlerConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxPages     int           `mapstructure:"max_pages"`
	MaxDepth     int           `mapstructure:"max_depth"`
	Retries      int           `mapstructure:"retries"`
	UserAgent    string        `mapstructure:"user_agent"`
	InsecureTLS  bool          `mapstructure:"insecure_tls"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// AnalyzeConfig configures the explicit URL list mode.
type AnalyzeConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LoggingConfig configures the logger. Format is "json" or "console".
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig selects the report rendering: "json", "csv" or "table".
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// Load reads configuration from defaults, an optional YAML file and
// SITECOUNT_* environment variables. An empty path searches the working
// directory and $HOME/.sitecount for sitecount.yaml; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sitecount")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.sitecount")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.concurrency", 5)
	v.SetDefault("crawler.timeout", "12s")
	v.SetDefault("crawler.max_pages", 1000)
	v.SetDefault("crawler.max_depth", 0)
	v.SetDefault("crawler.retries", 0)
	v.SetDefault("crawler.user_agent", fetcher.DefaultUserAgent)
	v.SetDefault("crawler.insecure_tls", true)
	v.SetDefault("crawler.max_body_bytes", 10<<20)

	v.SetDefault("analyze.concurrency", 5)
	v.SetDefault("analyze.timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("output.format", "json")
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	if c.Crawler.Concurrency <= 0 {
		errs = append(errs, errors.New("crawler.concurrency must be positive"))
	}
	if c.Crawler.Timeout <= 0 {
		errs = append(errs, errors.New("crawler.timeout must be positive"))
	}
	if c.Crawler.MaxPages < 0 {
		errs = append(errs, errors.New("crawler.max_pages must not be negative"))
	}
	if c.Crawler.MaxDepth < 0 {
		errs = append(errs, errors.New("crawler.max_depth must not be negative"))
	}
	if c.Crawler.Retries < 0 {
		errs = append(errs, errors.New("crawler.retries must not be negative"))
	}
	if c.Analyze.Concurrency <= 0 {
		errs = append(errs, errors.New("analyze.concurrency must be positive"))
	}
	if c.Analyze.Timeout <= 0 {
		errs = append(errs, errors.New("analyze.timeout must be positive"))
	}

	switch strings.ToLower(c.Output.Format) {
	case "json", "csv", "table":
	default:
		errs = append(errs, fmt.Errorf("output.format %q is not one of json, csv, table", c.Output.Format))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of json, console", c.Logging.Format))
	}

	return errors.Join(errs...)
}
