package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	MenuCSVURL       string
	WhatsAppNumber   string
	StoreName        string
	OrdersWebhookURL string
	ChatDomain       string

	HTTPPort    string
	GRPCPort    string
	CORSOrigins []string

	StoreBackend string
	SQLitePath   string
	RedisAddr    string
	MySQLDSN     string

	CatalogTTL     time.Duration
	SessionIdleTTL time.Duration
	Location       *time.Location
	ArchiveWorkers int
	ArchiveQueue   int

	Strict bool
}

// Load reads an optional .env file and then the environment. Malformed
// numeric values fall back to their defaults with a warning.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		MenuCSVURL:       strings.TrimSpace(getEnv("MENU_CSV_URL", "")),
		WhatsAppNumber:   strings.TrimSpace(getEnv("WHATSAPP_NUMBER", "")),
		StoreName:        getEnv("STORE_NAME", "Sakthi Kitchen"),
		OrdersWebhookURL: strings.TrimSpace(getEnv("ORDERS_WEBHOOK_URL", "")),
		ChatDomain:       getEnv("CHAT_DOMAIN", "wa.me"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		GRPCPort:         getEnv("GRPC_PORT", "50051"),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "")),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		SQLitePath:       getEnv("SQLITE_PATH", "./meal-order.db"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		MySQLDSN:         getEnv("MYSQL_DSN", ""),
		CatalogTTL:       getDuration("CATALOG_TTL", time.Hour),
		SessionIdleTTL:   getDuration("SESSION_IDLE_TTL", 24*time.Hour),
		ArchiveWorkers:   getInt("ARCHIVE_WORKERS", 4),
		ArchiveQueue:     getInt("ARCHIVE_QUEUE", 1000),
		Strict:           getEnv("STRICT_CONFIG", "false") == "true",
	}

	tz := getEnv("TIMEZONE", "Asia/Kolkata")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("Invalid TIMEZONE, using local time", "TIMEZONE", tz, "error", err)
		loc = time.Local
	}
	cfg.Location = loc

	return cfg, nil
}

// Validate reports missing deployment values. Outside strict mode the
// problems are only logged and the affected features degrade.
func (c *Config) Validate() error {
	var problems []string
	if c.MenuCSVURL == "" {
		problems = append(problems, "MENU_CSV_URL is not set; the menu will be empty")
	}
	if c.WhatsAppNumber == "" {
		problems = append(problems, "WHATSAPP_NUMBER is not set; chat links will not reach the store")
	}
	if c.OrdersWebhookURL == "" {
		problems = append(problems, "ORDERS_WEBHOOK_URL is not set; orders will not be recorded remotely")
	}
	if c.StoreBackend != BackendSQLite && c.StoreBackend != BackendRedis {
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendRedis, c.StoreBackend)
	}
	if c.MySQLDSN != "" && (c.ArchiveQueue < 1 || c.ArchiveWorkers < 1) {
		return fmt.Errorf("ARCHIVE_QUEUE and ARCHIVE_WORKERS must be at least 1 when MYSQL_DSN is set, got %d and %d",
			c.ArchiveQueue, c.ArchiveWorkers)
	}

	if len(problems) == 0 {
		return nil
	}
	if c.Strict {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	for _, p := range problems {
		slog.Warn(p)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		slog.Warn("Invalid integer environment variable, using default", key, raw, "default", defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		slog.Warn("Invalid duration environment variable, using default", key, raw, "default", defaultValue)
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
