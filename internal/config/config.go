// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. Values here are bootstrap
// defaults; operational settings live in the settings table and override
// these once seeded.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Panel    PanelConfig    `mapstructure:"panel"`
	Settings SettingsConfig `mapstructure:"settings"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig identifies the Telegram admin used to seed default settings.
type AdminConfig struct {
	TelegramID int64  `mapstructure:"telegram_id"`
	Username   string `mapstructure:"username"`
}

// PanelConfig holds the admin panel HTTP server configuration.
type PanelConfig struct {
	Listen       string        `mapstructure:"listen"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

// SettingsConfig holds the settings cache configuration.
type SettingsConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// ReminderConfig holds the renewal reminder sweep configuration.
type ReminderConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	CronSpec  string `mapstructure:"cron_spec"`
	DaysAhead int    `mapstructure:"days_ahead"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, DATABASE_HOST, PANEL_JWT_SECRET.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "hostingbot")
	v.SetDefault("database.name", "hostingbot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("panel.listen", ":8080")
	v.SetDefault("panel.session_ttl", "24h")
	v.SetDefault("panel.cookie_secure", false)

	v.SetDefault("settings.cache_ttl", "5m")

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.cron_spec", "0 9 * * *")
	v.SetDefault("reminder.days_ahead", 3)
}
