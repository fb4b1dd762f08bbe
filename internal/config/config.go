package config

import (
	"fmt"
	"league-tracker/internal/constants"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	ProxyURL                string
	ProxyAPIKey             string
	ProxyRateLimitPerMinute int
	ProxyTimeout            time.Duration
	ProxyMaxRetries         int
	ProxyRetryDelay         time.Duration
	DiscordBotToken         string
	DBPath                  string
	ServerPort              string
	LogLevel                string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ProxyURL:        getEnv("PROXY_URL", ""),
		ProxyAPIKey:     getEnv("PROXY_API_KEY", ""),
		DiscordBotToken: getEnv("DISCORD_BOT_TOKEN", ""),
		DBPath:          getEnv("DB_PATH", "tracker.db"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.ProxyRateLimitPerMinute, err = getEnvInt("PROXY_RATE_LIMIT_PER_MINUTE", constants.DefaultRateLimitPerMinute); err != nil {
		return nil, err
	}
	if cfg.ProxyMaxRetries, err = getEnvInt("PROXY_MAX_RETRIES", constants.DefaultProxyMaxRetries); err != nil {
		return nil, err
	}
	if cfg.ProxyTimeout, err = getEnvDuration("PROXY_TIMEOUT", constants.ExternalAPITimeout); err != nil {
		return nil, err
	}
	if cfg.ProxyRetryDelay, err = getEnvDuration("PROXY_RETRY_DELAY", constants.DefaultProxyRetryDelay); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("proxy_url", cfg.ProxyURL).
		Int("proxy_rate_limit", cfg.ProxyRateLimitPerMinute).
		Dur("proxy_timeout", cfg.ProxyTimeout).
		Int("proxy_max_retries", cfg.ProxyMaxRetries).
		Dur("proxy_retry_delay", cfg.ProxyRetryDelay).
		Bool("discord_enabled", cfg.DiscordBotToken != "").
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ProxyURL == "" {
		return fmt.Errorf("PROXY_URL is required")
	}
	if c.ProxyAPIKey == "" {
		return fmt.Errorf("PROXY_API_KEY is required")
	}
	if c.ProxyRateLimitPerMinute <= 0 {
		return fmt.Errorf("PROXY_RATE_LIMIT_PER_MINUTE must be positive, got %d", c.ProxyRateLimitPerMinute)
	}
	if c.ProxyMaxRetries <= 0 {
		return fmt.Errorf("PROXY_MAX_RETRIES must be positive, got %d", c.ProxyMaxRetries)
	}
	if c.ProxyTimeout <= 0 {
		return fmt.Errorf("PROXY_TIMEOUT must be positive, got %s", c.ProxyTimeout)
	}
	if c.ProxyRetryDelay < 0 {
		return fmt.Errorf("PROXY_RETRY_DELAY must not be negative, got %s", c.ProxyRetryDelay)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

// accepts Go durations ("90s") or bare milliseconds ("1500")
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

var Module = fx.Provide(Load)
