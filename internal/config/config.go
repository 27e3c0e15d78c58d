package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string  `mapstructure:"PORT"`
	Env               string  `mapstructure:"ENV"`
	APIBaseURL        string  `mapstructure:"API_BASE_URL"`
	APITimeoutSec     int     `mapstructure:"API_TIMEOUT_SEC"`
	SessionSecret     string  `mapstructure:"SESSION_SECRET"`
	SessionTTLMin     int     `mapstructure:"SESSION_TTL_MIN"`
	DatabaseURL       string  `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32   `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32   `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	DefaultPageSize   int     `mapstructure:"DEFAULT_PAGE_SIZE"`
	NotifyPollSec     int     `mapstructure:"NOTIFY_POLL_SEC"`
	LoginRateRPS      float64 `mapstructure:"LOGIN_RATE_RPS"`
	LoginRateBurst    int     `mapstructure:"LOGIN_RATE_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("API_TIMEOUT_SEC", 0) // 0 = no timeout; callers still pass contexts
	v.SetDefault("SESSION_TTL_MIN", 720)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("NOTIFY_POLL_SEC", 30)
	v.SetDefault("LOGIN_RATE_RPS", 5)
	v.SetDefault("LOGIN_RATE_BURST", 10)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("API_BASE_URL")
	v.BindEnv("API_TIMEOUT_SEC")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("SESSION_TTL_MIN")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("DEFAULT_PAGE_SIZE")
	v.BindEnv("NOTIFY_POLL_SEC")
	v.BindEnv("LOGIN_RATE_RPS")
	v.BindEnv("LOGIN_RATE_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	if cfg.IsDev() && cfg.SessionSecret == "" {
		log.Println("WARNING: SESSION_SECRET not set; using an ephemeral key.")
		log.Println("WARNING: Sessions will not survive a restart. Do not run production this way.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the gateway is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// the session cookie signing key must be set, otherwise every restart would
// silently invalidate all sessions and an attacker-guessable key could be
// generated instead.
func (c *Config) Validate() error {
	if !c.IsDev() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required when ENV=%q", c.Env)
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 characters, got %d", len(c.SessionSecret))
	}
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize)
	}
	if c.SessionTTLMin <= 0 {
		return fmt.Errorf("SESSION_TTL_MIN must be positive, got %d", c.SessionTTLMin)
	}
	return nil
}
