package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Order    OrderConfig    `yaml:"order"`
	Stand    StandConfig    `yaml:"stand"`
	Notify   NotifyConfig   `yaml:"notify"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Channel string `yaml:"channel"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type OrderConfig struct {
	TxTimeout        time.Duration `yaml:"txTimeout"`
	MaxRetryAttempts int           `yaml:"maxRetryAttempts"`
	AllowOversell    bool          `yaml:"allowOversell"`
}

type StandConfig struct {
	TimeZone       string   `yaml:"timeZone"`
	OptionalTokens []string `yaml:"optionalTokens"`
}

type NotifyConfig struct {
	ResyncSchedule   string `yaml:"resyncSchedule"`
	SubscriberBuffer int    `yaml:"subscriberBuffer"`
}

// Location returns the stand time zone, falling back to the host zone when
// the configured name is unknown.
func (s StandConfig) Location() *time.Location {
	if s.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 3000)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "30s")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "foodstand")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "foodstand")
	v.SetDefault("DB_PATH", "data/foodstand.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("REDIS_CHANNEL", "foodstand:events")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("ORDER_TX_TIMEOUT", "5s")
	v.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("ORDER_ALLOW_OVERSELL", false)
	v.SetDefault("STAND_TIME_ZONE", "Europe/Paris")
	v.SetDefault("STAND_OPTIONAL_TOKENS", "pain,baguette,bun")
	v.SetDefault("NOTIFY_RESYNC_SCHEDULE", "@every 1m")
	v.SetDefault("NOTIFY_SUBSCRIBER_BUFFER", 16)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load builds the configuration from defaults overridden by environment
// variables.
func Load() *Config {
	v := newViper()

	return &Config{
		Server: ServerConfig{
			Port:         v.GetInt("SERVER_PORT"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("DB_DRIVER"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			Path:            v.GetString("DB_PATH"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Enabled: v.GetBool("REDIS_ENABLED"),
			URL:     v.GetString("REDIS_URL"),
			Channel: v.GetString("REDIS_CHANNEL"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
		Order: OrderConfig{
			TxTimeout:        v.GetDuration("ORDER_TX_TIMEOUT"),
			MaxRetryAttempts: v.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
			AllowOversell:    v.GetBool("ORDER_ALLOW_OVERSELL"),
		},
		Stand: StandConfig{
			TimeZone:       v.GetString("STAND_TIME_ZONE"),
			OptionalTokens: splitList(v.GetString("STAND_OPTIONAL_TOKENS")),
		},
		Notify: NotifyConfig{
			ResyncSchedule:   v.GetString("NOTIFY_RESYNC_SCHEDULE"),
			SubscriberBuffer: v.GetInt("NOTIFY_SUBSCRIBER_BUFFER"),
		},
	}
}

// ApplyEnv overwrites cfg with every variable explicitly set in the
// environment, so env wins over a config file.
func ApplyEnv(cfg *Config) {
	env := Load()

	overrides := map[string]func(){
		"SERVER_PORT":              func() { cfg.Server.Port = env.Server.Port },
		"SERVER_READ_TIMEOUT":      func() { cfg.Server.ReadTimeout = env.Server.ReadTimeout },
		"SERVER_WRITE_TIMEOUT":     func() { cfg.Server.WriteTimeout = env.Server.WriteTimeout },
		"SERVER_IDLE_TIMEOUT":      func() { cfg.Server.IdleTimeout = env.Server.IdleTimeout },
		"DB_DRIVER":                func() { cfg.Database.Driver = env.Database.Driver },
		"DB_HOST":                  func() { cfg.Database.Host = env.Database.Host },
		"DB_PORT":                  func() { cfg.Database.Port = env.Database.Port },
		"DB_USER":                  func() { cfg.Database.User = env.Database.User },
		"DB_PASSWORD":              func() { cfg.Database.Password = env.Database.Password },
		"DB_NAME":                  func() { cfg.Database.Name = env.Database.Name },
		"DB_PATH":                  func() { cfg.Database.Path = env.Database.Path },
		"DB_MAX_OPEN_CONNS":        func() { cfg.Database.MaxOpenConns = env.Database.MaxOpenConns },
		"DB_MAX_IDLE_CONNS":        func() { cfg.Database.MaxIdleConns = env.Database.MaxIdleConns },
		"DB_CONN_MAX_LIFETIME":     func() { cfg.Database.ConnMaxLifetime = env.Database.ConnMaxLifetime },
		"REDIS_ENABLED":            func() { cfg.Redis.Enabled = env.Redis.Enabled },
		"REDIS_URL":                func() { cfg.Redis.URL = env.Redis.URL },
		"REDIS_CHANNEL":            func() { cfg.Redis.Channel = env.Redis.Channel },
		"LOG_LEVEL":                func() { cfg.Log.Level = env.Log.Level },
		"LOG_FILE":                 func() { cfg.Log.File = env.Log.File },
		"ORDER_TX_TIMEOUT":         func() { cfg.Order.TxTimeout = env.Order.TxTimeout },
		"ORDER_MAX_RETRY_ATTEMPTS": func() { cfg.Order.MaxRetryAttempts = env.Order.MaxRetryAttempts },
		"ORDER_ALLOW_OVERSELL":     func() { cfg.Order.AllowOversell = env.Order.AllowOversell },
		"STAND_TIME_ZONE":          func() { cfg.Stand.TimeZone = env.Stand.TimeZone },
		"STAND_OPTIONAL_TOKENS":    func() { cfg.Stand.OptionalTokens = env.Stand.OptionalTokens },
		"NOTIFY_RESYNC_SCHEDULE":   func() { cfg.Notify.ResyncSchedule = env.Notify.ResyncSchedule },
		"NOTIFY_SUBSCRIBER_BUFFER": func() { cfg.Notify.SubscriberBuffer = env.Notify.SubscriberBuffer },
	}

	for key, apply := range overrides {
		if _, ok := os.LookupEnv(key); ok {
			apply()
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
