package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Groww credentials
	GrowwAPIKey     string
	GrowwAPISecret  string
	GrowwTOTPSecret string // optional, switches token fetch to TOTP flow
	GrowwTokenURL   string
	GrowwBaseURL    string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string

	// Alerting. Telegram wins when both are configured.
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string

	// Scan behavior
	ScanInterval       time.Duration
	TopStocks          int
	BuyerControlMethod string
	MinScore           float64
}

// Load reads configuration from environment variables with sensible defaults.
// Missing credentials abort startup.
func Load() *Config {
	return &Config{
		GrowwAPIKey:     mustEnv("GROWW_API_KEY"),
		GrowwAPISecret:  mustEnv("GROWW_API_SECRET"),
		GrowwTOTPSecret: getEnv("GROWW_TOTP_SECRET", ""),
		GrowwTokenURL:   getEnv("GROWW_TOKEN_URL", ""),
		GrowwBaseURL:    getEnv("GROWW_BASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/scanner.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		ScanInterval:       getDuration("SCAN_INTERVAL", time.Minute),
		TopStocks:          getInt("TOP_STOCKS", 10),
		BuyerControlMethod: getEnv("BUYER_CONTROL_METHOD", "hybrid"),
		MinScore:           getFloat("MIN_SCORE", 80),
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
