package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 从环境变量读取
type Config struct {
	DBDriver   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string
	SQLitePath string

	RedisAddr string
	RedisPwd  string

	WebOrigin string
	Port      string

	SessionTTL         time.Duration
	AdminUsernames     []string
	LoginRatePerMinute int
	LogLevel           slog.Level
	OTLPEndpoint       string
}

// LoadEnv 读取 .env（不存在时忽略）
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

func Load() Config {
	get := func(k, def string) string {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			return def
		}
		return v
	}

	ttl := 24 * time.Hour
	if n, err := strconv.Atoi(get("SESSION_TTL_SECONDS", "86400")); err == nil && n > 0 {
		ttl = time.Duration(n) * time.Second
	}
	rate := 10
	if n, err := strconv.Atoi(get("LOGIN_RATE_PER_MINUTE", "10")); err == nil && n > 0 {
		rate = n
	}

	var admins []string
	for _, s := range strings.Split(os.Getenv("ADMIN_USERNAMES"), ",") {
		if t := strings.TrimSpace(s); t != "" {
			admins = append(admins, strings.ToLower(t))
		}
	}

	return Config{
		DBDriver:   strings.ToLower(get("DB_DRIVER", "postgres")),
		DBHost:     get("DB_HOST", "127.0.0.1"),
		DBUser:     get("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     get("DB_NAME", "library"),
		DBPort:     get("DB_PORT", "5432"),
		DBSSLMode:  get("DB_SSLMODE", "disable"),
		SQLitePath: get("SQLITE_PATH", "library.db"),

		RedisAddr: get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:  os.Getenv("REDIS_PASSWORD"),

		WebOrigin: get("WEB_ORIGIN", "http://localhost:3000"),
		Port:      get("PORT", "3001"),

		SessionTTL:         ttl,
		AdminUsernames:     admins,
		LoginRatePerMinute: rate,
		LogLevel:           parseLevel(get("LOG_LEVEL", "info")),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// IsAdminName 判断用户名是否在 ADMIN_USERNAMES 中
func (c Config) IsAdminName(username string) bool {
	name := strings.ToLower(strings.TrimSpace(username))
	for _, a := range c.AdminUsernames {
		if a == name {
			return true
		}
	}
	return false
}

// SecureCookies is true when the web origin is served over https.
func (c Config) SecureCookies() bool { return strings.HasPrefix(c.WebOrigin, "https://") }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
