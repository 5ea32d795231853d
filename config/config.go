package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Telegram TelegramConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bot      BotConfig
	Log      LogConfig
}

type TelegramConfig struct {
	Token         string
	Debug         bool
	UpdateTimeout int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the gorm/postgres connection string.
func (d DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" port=" + d.Port +
		" sslmode=" + d.SSLMode +
		" TimeZone=UTC"
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	StateTTL time.Duration
}

type BotConfig struct {
	AdminIDs   []int64
	PageSize   int
	Workers    int
	RateLimit  int
	RateWindow time.Duration
}

type LogConfig struct {
	Env   string
	Level string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Telegram: TelegramConfig{
			Token:         getEnv("BOT_TOKEN", ""),
			Debug:         getEnv("BOT_DEBUG", "") == "true",
			UpdateTimeout: getEnvAsInt("BOT_UPDATE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "shopbot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			StateTTL: time.Duration(getEnvAsInt("REDIS_STATE_TTL_SECONDS", 3600)) * time.Second,
		},
		Bot: BotConfig{
			AdminIDs:   getEnvAsInt64Slice("ADMIN_IDS"),
			PageSize:   getEnvAsInt("CATALOG_PAGE_SIZE", 5),
			Workers:    getEnvAsInt("UPDATE_WORKERS", 8),
			RateLimit:  getEnvAsInt("RATE_LIMIT", 20),
			RateWindow: time.Duration(getEnvAsInt("RATE_WINDOW_SECONDS", 10)) * time.Second,
		},
		Log: LogConfig{
			Env:   getEnv("ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return ConfigError{Field: "BOT_TOKEN", Reason: "must not be empty"}
	}
	if cfg.Database.Host == "" {
		return ConfigError{Field: "DB_HOST", Reason: "must not be empty"}
	}
	if cfg.Bot.Workers < 1 {
		return ConfigError{Field: "UPDATE_WORKERS", Reason: "must be at least 1"}
	}
	if cfg.Bot.PageSize < 1 {
		return ConfigError{Field: "CATALOG_PAGE_SIZE", Reason: "must be at least 1"}
	}
	return nil
}

type ConfigError struct {
	Field  string
	Reason string
}

func (e ConfigError) Error() string {
	return "config error: field " + e.Field + " " + e.Reason
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64Slice(key string) []int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
