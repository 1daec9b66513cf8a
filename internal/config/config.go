// Package config handles configuration loading for the pricefeed service.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Market  MarketConfig  `mapstructure:"market"  yaml:"market"`
	Alerts  AlertConfig   `mapstructure:"alerts"  yaml:"alerts"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	News    NewsConfig    `mapstructure:"news"    yaml:"news"`
	Admin   AdminConfig   `mapstructure:"admin"   yaml:"admin"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// ScrapeTarget holds the primary and backup spot-price pages for one metal.
type ScrapeTarget struct {
	Primary string `mapstructure:"primary" yaml:"primary"`
	Backup  string `mapstructure:"backup"  yaml:"backup"`
}

// MarketConfig holds the refresh engine's cadences and scrape settings.
// All intervals are in seconds.
type MarketConfig struct {
	TickInterval      int `mapstructure:"tick_interval"      yaml:"tick_interval"`      // snapshot cadence
	BatchInterval     int `mapstructure:"batch_interval"     yaml:"batch_interval"`     // exchange + quote provider
	RhodiumInterval   int `mapstructure:"rhodium_interval"   yaml:"rhodium_interval"`   // slow scrape cadence
	PalladiumInterval int `mapstructure:"palladium_interval" yaml:"palladium_interval"`
	PlatinumInterval  int `mapstructure:"platinum_interval"  yaml:"platinum_interval"`
	// Offsets stagger the palladium and platinum scrapes so no two
	// scrapes ever land on the same tick.
	PalladiumOffset int `mapstructure:"palladium_offset" yaml:"palladium_offset"`
	PlatinumOffset  int `mapstructure:"platinum_offset"  yaml:"platinum_offset"`

	BootstrapDelay int `mapstructure:"bootstrap_delay" yaml:"bootstrap_delay"` // between startup scrapes
	ScrapeTimeout  int `mapstructure:"scrape_timeout"  yaml:"scrape_timeout"`
	BatchTimeout   int `mapstructure:"batch_timeout"   yaml:"batch_timeout"`

	// NoisePct bounds the multiplicative noise applied to cached PGM
	// prices between real refreshes (percent, e.g. 0.05 = ±0.05%).
	NoisePct float64 `mapstructure:"noise_pct" yaml:"noise_pct"`

	// Hardcoded fallbacks used until a first successful fetch.
	FallbackPt      float64 `mapstructure:"fallback_pt"       yaml:"fallback_pt"`
	FallbackPd      float64 `mapstructure:"fallback_pd"       yaml:"fallback_pd"`
	FallbackRh      float64 `mapstructure:"fallback_rh"       yaml:"fallback_rh"`
	FallbackUSDRate float64 `mapstructure:"fallback_usd_rate" yaml:"fallback_usd_rate"`

	Rhodium   ScrapeTarget `mapstructure:"rhodium"   yaml:"rhodium"`
	Palladium ScrapeTarget `mapstructure:"palladium" yaml:"palladium"`
	Platinum  ScrapeTarget `mapstructure:"platinum"  yaml:"platinum"`

	UserAgents []string `mapstructure:"user_agents" yaml:"user_agents"`
}

// AlertConfig holds the price-move alert evaluator settings.
type AlertConfig struct {
	Interval     int     `mapstructure:"interval"      yaml:"interval"`      // seconds between checks
	ThresholdPct float64 `mapstructure:"threshold_pct" yaml:"threshold_pct"` // absolute percent move
	Cooldown     int     `mapstructure:"cooldown"      yaml:"cooldown"`      // seconds between alerts per metal
	WebhookURL   string  `mapstructure:"webhook_url"   yaml:"webhook_url"`   // push broadcast endpoint; empty = log only
}

// StorageConfig holds the SQLite settings.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// NewsConfig holds the market-news feed settings.
type NewsConfig struct {
	Feeds    []string `mapstructure:"feeds"     yaml:"feeds"`
	CacheTTL int      `mapstructure:"cache_ttl" yaml:"cache_ttl"` // seconds
}

// AdminConfig guards the config-mutation endpoints. Full user auth is an
// external collaborator; the token is the narrow stand-in.
type AdminConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.pricefeed/config.yaml (home directory)
//  3. /etc/pricefeed/config.yaml (system)
//
// Environment variables override config file values.
// Format: PRICEFEED_<SECTION>_<KEY>, e.g., PRICEFEED_ADMIN_TOKEN
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".pricefeed"))
	v.AddConfigPath("/etc/pricefeed")

	v.SetEnvPrefix("PRICEFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("PRICEFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Market engine defaults. Scrape cadences are deliberately much
	// slower than the snapshot tick: the spot pages are rate-limited
	// and fragile, while consumers expect sub-10-second freshness.
	v.SetDefault("market.tick_interval", 3)
	v.SetDefault("market.batch_interval", 30)
	v.SetDefault("market.rhodium_interval", 3600)
	v.SetDefault("market.palladium_interval", 600)
	v.SetDefault("market.platinum_interval", 600)
	v.SetDefault("market.palladium_offset", 120)
	v.SetDefault("market.platinum_offset", 300)
	v.SetDefault("market.bootstrap_delay", 2)
	v.SetDefault("market.scrape_timeout", 15)
	v.SetDefault("market.batch_timeout", 10)
	v.SetDefault("market.noise_pct", 0.05)
	v.SetDefault("market.fallback_pt", 960.0)
	v.SetDefault("market.fallback_pd", 1050.0)
	v.SetDefault("market.fallback_rh", 4750.0)
	v.SetDefault("market.fallback_usd_rate", 86.5)
	v.SetDefault("market.rhodium.primary", "https://www.kitco.com/charts/rhodium")
	v.SetDefault("market.rhodium.backup", "https://www.moneymetals.com/rhodium-price")
	v.SetDefault("market.palladium.primary", "https://www.kitco.com/charts/palladium")
	v.SetDefault("market.palladium.backup", "https://goldprice.org/palladium-price.html")
	v.SetDefault("market.platinum.primary", "https://www.kitco.com/charts/platinum")
	v.SetDefault("market.platinum.backup", "https://goldprice.org/platinum-price.html")
	v.SetDefault("market.user_agents", []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	})

	// Alert defaults: 10 minute checks, 2% trigger, 4 hour cooldown.
	v.SetDefault("alerts.interval", 600)
	v.SetDefault("alerts.threshold_pct", 2.0)
	v.SetDefault("alerts.cooldown", 14400)
	v.SetDefault("alerts.webhook_url", "")

	// Storage defaults
	v.SetDefault("storage.path", "./pricefeed.db")

	// News defaults
	v.SetDefault("news.feeds", []string{
		"https://www.kitco.com/rss/KitcoNews.xml",
		"https://www.mining.com/feed/",
	})
	v.SetDefault("news.cache_ttl", 600)

	// Admin defaults
	v.SetDefault("admin.token", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
