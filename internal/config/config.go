package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rewired-gh/bettips/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers"`
	Picks     PicksConfig     `mapstructure:"picks"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ProvidersConfig holds the sports-data provider settings
type ProvidersConfig struct {
	Default    string           `mapstructure:"default"`
	Sportmonks SportmonksConfig `mapstructure:"sportmonks"`
	TheOddsAPI TheOddsAPIConfig `mapstructure:"the_odds_api"`
}

// SportmonksConfig holds SportMonks API configuration
type SportmonksConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIToken          string        `mapstructure:"api_token"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelayBase    time.Duration `mapstructure:"retry_delay_base"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Include           string        `mapstructure:"include"`
	BookmakerID       string        `mapstructure:"bookmaker_id"`
}

// TheOddsAPIConfig holds The Odds API configuration
type TheOddsAPIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Regions           string        `mapstructure:"regions"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelayBase    time.Duration `mapstructure:"retry_delay_base"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// PicksConfig holds BTTS pick presentation settings
type PicksConfig struct {
	MinProbability          float64 `mapstructure:"min_probability"`
	AssistantMinProbability float64 `mapstructure:"assistant_min_probability"`
	Timezone                string  `mapstructure:"timezone"`
	KickoffLayout           string  `mapstructure:"kickoff_layout"`
	UseMockFallback         bool    `mapstructure:"use_mock_fallback"`
}

// RefreshConfig holds background refresh settings
type RefreshConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Sport    string        `mapstructure:"sport"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ProxyEnabled bool          `mapstructure:"proxy_enabled"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	AllowOrigin  string        `mapstructure:"allow_origin"`
}

// CacheConfig holds response cache settings
type CacheConfig struct {
	Backend  string        `mapstructure:"backend"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// BreakerConfig holds circuit breaker settings shared by the provider clients
type BreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envAliases are the unprefixed variable names accepted for credentials and the
// SportMonks base URL, in addition to the BETTIPS_ prefixed ones. The VITE_
// names let an existing dashboard .env be reused.
var envAliases = map[string][]string{
	"providers.sportmonks.api_token": {"SPORTMONKS_TOKEN", "VITE_SPORTMONKS_TOKEN"},
	"providers.sportmonks.base_url":  {"SPORTMONKS_BASE_URL", "VITE_API_BASE"},
	"providers.the_odds_api.api_key": {"THE_ODDS_API_KEY", "VITE_THE_ODDS_API_KEY"},
	"telegram.bot_token":             {"TELEGRAM_BOT_TOKEN"},
}

// LoadDotEnv loads variables from .env style files into the process
// environment. Missing files are ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from file and environment variables.
// An empty path runs on defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// BETTIPS_PICKS_MIN_PROBABILITY overrides picks.min_probability
	v.SetEnvPrefix("BETTIPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{"BETTIPS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Endpoints carry the sport segment, so a dashboard base ending in
	// /football is trimmed back to the API root.
	base := strings.TrimRight(cfg.Providers.Sportmonks.BaseURL, "/")
	cfg.Providers.Sportmonks.BaseURL = strings.TrimSuffix(base, "/football")

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("providers.default", string(models.ProviderSportmonks))

	v.SetDefault("providers.sportmonks.base_url", "https://api.sportmonks.com/v3")
	v.SetDefault("providers.sportmonks.api_token", "")
	v.SetDefault("providers.sportmonks.timeout", "30s")
	v.SetDefault("providers.sportmonks.max_retries", 1)
	v.SetDefault("providers.sportmonks.retry_delay_base", "1s")
	v.SetDefault("providers.sportmonks.requests_per_second", 2)
	v.SetDefault("providers.sportmonks.include", "league;scores;participants;state;periods")
	v.SetDefault("providers.sportmonks.bookmaker_id", "")

	v.SetDefault("providers.the_odds_api.base_url", "https://api.the-odds-api.com/v4")
	v.SetDefault("providers.the_odds_api.api_key", "")
	v.SetDefault("providers.the_odds_api.regions", "uk,eu")
	v.SetDefault("providers.the_odds_api.timeout", "30s")
	v.SetDefault("providers.the_odds_api.max_retries", 1)
	v.SetDefault("providers.the_odds_api.retry_delay_base", "1s")
	v.SetDefault("providers.the_odds_api.requests_per_second", 1)

	v.SetDefault("picks.min_probability", 0)
	v.SetDefault("picks.assistant_min_probability", 60)
	v.SetDefault("picks.timezone", "UTC")
	v.SetDefault("picks.kickoff_layout", "15:04")
	v.SetDefault("picks.use_mock_fallback", true)

	v.SetDefault("refresh.enabled", true)
	v.SetDefault("refresh.interval", "5m")
	v.SetDefault("refresh.sport", string(models.SportFootball))

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.proxy_enabled", true)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.allow_origin", "*")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.ttl", "1m")

	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", "1m")
	v.SetDefault("breaker.timeout", "30s")
	v.SetDefault("breaker.failure_ratio", 0.6)
	v.SetDefault("breaker.min_requests", 3)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("storage.db_path", "./data/bettips.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid.
// Missing API tokens are reported by MissingCredentials, not here.
func (c *Config) Validate() error {
	// Validate provider config
	if _, err := models.ParseProvider(c.Providers.Default); err != nil {
		return fmt.Errorf("providers.default: %w", err)
	}
	if c.Providers.Sportmonks.BaseURL == "" {
		return fmt.Errorf("providers.sportmonks.base_url is required")
	}
	if c.Providers.TheOddsAPI.BaseURL == "" {
		return fmt.Errorf("providers.the_odds_api.base_url is required")
	}
	if c.Providers.Sportmonks.Timeout <= 0 || c.Providers.TheOddsAPI.Timeout <= 0 {
		return fmt.Errorf("provider timeouts must be positive")
	}
	if c.Providers.Sportmonks.MaxRetries < 1 || c.Providers.TheOddsAPI.MaxRetries < 1 {
		return fmt.Errorf("provider max_retries must be at least 1")
	}
	if c.Providers.Sportmonks.RequestsPerSecond < 0 || c.Providers.TheOddsAPI.RequestsPerSecond < 0 {
		return fmt.Errorf("provider requests_per_second must not be negative")
	}

	// Validate picks config
	if c.Picks.MinProbability < 0 || c.Picks.MinProbability > 100 {
		return fmt.Errorf("picks.min_probability must be between 0 and 100")
	}
	if c.Picks.AssistantMinProbability < 0 || c.Picks.AssistantMinProbability > 100 {
		return fmt.Errorf("picks.assistant_min_probability must be between 0 and 100")
	}
	if _, err := time.LoadLocation(c.Picks.Timezone); err != nil {
		return fmt.Errorf("picks.timezone: %w", err)
	}

	// Validate refresh config
	if c.Refresh.Enabled {
		if c.Refresh.Interval < 10*time.Second {
			return fmt.Errorf("refresh.interval must be at least 10 seconds")
		}
		if _, err := models.ParseSport(c.Refresh.Sport); err != nil {
			return fmt.Errorf("refresh.sport: %w", err)
		}
	}

	// Validate server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	// Validate cache config
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be one of: memory, redis, none")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	// Validate breaker config
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("breaker.failure_ratio must be between 0 and 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// MissingCredentials lists the config keys of provider tokens that are empty.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Providers.Sportmonks.APIToken == "" {
		missing = append(missing, "providers.sportmonks.api_token")
	}
	if c.Providers.TheOddsAPI.APIKey == "" {
		missing = append(missing, "providers.the_odds_api.api_key")
	}
	return missing
}

// Location returns the timezone kickoff times are shown in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Picks.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
