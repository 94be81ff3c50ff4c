package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppName string `mapstructure:"APP_NAME"`
	Port    string `mapstructure:"PORT"`

	// Store selects the task backend: "firestore" or "memory".
	Store               string `mapstructure:"STORE"`
	CredentialsFile     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS_1"`
	FirestoreCollection string `mapstructure:"FIRESTORE_COLLECTION"`
	UsersCollection     string `mapstructure:"USERS_COLLECTION"`

	JWTSecret string `mapstructure:"JWT_SECRET_KEY"`

	// StatsCache is "memory", "redis" or "none".
	StatsCache    string        `mapstructure:"STATS_CACHE"`
	StatsCacheTTL time.Duration `mapstructure:"STATS_CACHE_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`

	SchedulerEnabled bool   `mapstructure:"SCHEDULER_ENABLED"`
	SchedulerHour    int    `mapstructure:"SCHEDULER_HOUR"`
	Timezone         string `mapstructure:"TIMEZONE"`
}

var defaults = map[string]any{
	"APP_ENV":                          "development",
	"APP_NAME":                         "cicstask",
	"PORT":                             "8080",
	"STORE":                            "firestore",
	"GOOGLE_APPLICATION_CREDENTIALS_1": "",
	"FIRESTORE_COLLECTION":             "Tasks",
	"USERS_COLLECTION":                 "Users",
	"JWT_SECRET_KEY":                   "",
	"STATS_CACHE":                      "memory",
	"STATS_CACHE_TTL":                  5 * time.Minute,
	"REDIS_ADDR":                       "127.0.0.1:6379",
	"REDIS_PASSWORD":                   "",
	"REDIS_DB":                         0,
	"SCHEDULER_ENABLED":                false,
	"SCHEDULER_HOUR":                   1,
	"TIMEZONE":                         "Asia/Bangkok",
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case "firestore":
		if c.CredentialsFile == "" {
			return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS_1 is not set")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is not set")
	}
	switch c.StatsCache {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unknown STATS_CACHE %q", c.StatsCache)
	}
	if c.SchedulerHour < 0 || c.SchedulerHour > 23 {
		return fmt.Errorf("SCHEDULER_HOUR must be 0-23, got %d", c.SchedulerHour)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return nil
}

// Location is the zone in which "today" is decided.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
