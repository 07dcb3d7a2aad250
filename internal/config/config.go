// Package config loads khobor-dash settings from defaults, an optional YAML
// file, a .env file and KHOBOR_* environment variables, in increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Adda-Baaj/khobor-dash/internal/domain"
	"github.com/Adda-Baaj/khobor-dash/pkg/providers"
)

const envPrefix = "KHOBOR"

// Config is the full application configuration.
type Config struct {
	Source         string         `mapstructure:"source"`
	Log            LogConfig      `mapstructure:"log"`
	Fixture        FixtureConfig  `mapstructure:"fixture"`
	Headline       HeadlineConfig `mapstructure:"headline"`
	Scrape         ScrapeConfig   `mapstructure:"scrape"`
	Proxy          ProxyConfig    `mapstructure:"proxy"`
	Keystore       KeystoreConfig `mapstructure:"keystore"`
	PublishersFile string         `mapstructure:"publishers_file"`
}

// LogConfig selects zap level and encoder.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FixtureConfig tunes the demo provider.
type FixtureConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

// HeadlineConfig configures the headline API provider.
type HeadlineConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	PageSize int           `mapstructure:"page_size"`
	Country  string        `mapstructure:"country"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ScrapeConfig configures the scrape provider.
type ScrapeConfig struct {
	Endpoint   string                `mapstructure:"endpoint"`
	APIKey     string                `mapstructure:"api_key"`
	Timeout    time.Duration         `mapstructure:"timeout"`
	MaxTargets int                   `mapstructure:"max_targets"`
	Targets    []domain.SourceTarget `mapstructure:"targets"`
}

// ProxyConfig configures the scrape proxy server.
type ProxyConfig struct {
	Addr        string        `mapstructure:"addr"`
	UpstreamURL string        `mapstructure:"upstream_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// KeystoreConfig locates the credential store.
type KeystoreConfig struct {
	Path string `mapstructure:"path"`
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit YAML path. When empty, ./khobor.yaml is used if present.
	ConfigFile string
	// EnvFile is loaded with godotenv before reading the environment. Missing files are ignored.
	EnvFile string
}

// Load builds a Config.
func Load(opts Options) (*Config, error) {
	envFile := strings.TrimSpace(opts.EnvFile)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := strings.TrimSpace(opts.ConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("khobor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", "fixture")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fixture.delay", "800ms")
	v.SetDefault("headline.base_url", "https://newsapi.org/v2")
	v.SetDefault("headline.api_key", "")
	v.SetDefault("headline.page_size", 20)
	v.SetDefault("headline.country", "us")
	v.SetDefault("headline.timeout", "15s")
	v.SetDefault("scrape.endpoint", "http://localhost:5000/scrape")
	v.SetDefault("scrape.api_key", "")
	v.SetDefault("scrape.timeout", "60s")
	v.SetDefault("scrape.max_targets", 4)
	v.SetDefault("proxy.addr", ":5000")
	v.SetDefault("proxy.upstream_url", "https://api.firecrawl.dev/v1/scrape")
	v.SetDefault("proxy.api_key", "")
	v.SetDefault("proxy.timeout", "60s")
	v.SetDefault("keystore.path", defaultKeystorePath())
	v.SetDefault("publishers_file", "")
}

func defaultKeystorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "khobor-keys.db"
	}
	return dir + string(os.PathSeparator) + "khobor" + string(os.PathSeparator) + "keys.db"
}

func (c *Config) sanitize() {
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Headline.BaseURL = strings.TrimSpace(c.Headline.BaseURL)
	c.Headline.APIKey = strings.TrimSpace(c.Headline.APIKey)
	c.Scrape.Endpoint = strings.TrimSpace(c.Scrape.Endpoint)
	c.Scrape.APIKey = strings.TrimSpace(c.Scrape.APIKey)
	c.Proxy.UpstreamURL = strings.TrimSpace(c.Proxy.UpstreamURL)
	c.Proxy.APIKey = strings.TrimSpace(c.Proxy.APIKey)
	c.Keystore.Path = strings.TrimSpace(c.Keystore.Path)
	c.PublishersFile = strings.TrimSpace(c.PublishersFile)

	for i := range c.Scrape.Targets {
		t := &c.Scrape.Targets[i]
		t.Name = strings.TrimSpace(t.Name)
		t.URL = strings.TrimSpace(t.URL)
		t.Category = strings.ToLower(strings.TrimSpace(t.Category))
	}
	if len(c.Scrape.Targets) == 0 {
		c.Scrape.Targets = append([]domain.SourceTarget(nil), providers.DefaultSourceTargets...)
	}
}

// Validate checks the fields needed to run.
func (c *Config) Validate() error {
	switch c.Source {
	case "fixture", "headline", "scrape":
	default:
		return fmt.Errorf("source %q not supported (expected fixture, headline or scrape)", c.Source)
	}
	if c.Fixture.Delay < 0 {
		return errors.New("fixture.delay must not be negative")
	}
	if err := validateURL("headline.base_url", c.Headline.BaseURL); err != nil {
		return err
	}
	if c.Headline.PageSize < 1 || c.Headline.PageSize > 100 {
		return fmt.Errorf("headline.page_size must be between 1 and 100, got %d", c.Headline.PageSize)
	}
	if err := validateURL("scrape.endpoint", c.Scrape.Endpoint); err != nil {
		return err
	}
	if c.Scrape.MaxTargets < 1 || c.Scrape.MaxTargets > 4 {
		return fmt.Errorf("scrape.max_targets must be between 1 and 4, got %d", c.Scrape.MaxTargets)
	}
	for i, t := range c.Scrape.Targets {
		if t.Name == "" || t.Category == "" {
			return fmt.Errorf("scrape.targets[%d]: name and category are required", i)
		}
		if err := validateURL(fmt.Sprintf("scrape.targets[%d].url", i), t.URL); err != nil {
			return err
		}
	}
	if err := validateURL("proxy.upstream_url", c.Proxy.UpstreamURL); err != nil {
		return err
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s is not a valid http(s) URL: %q", field, raw)
	}
	return nil
}
