package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the service.
type Config struct {
	AppPort        string
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      string
	TelegramToken  string
	LogLevel       string
	LogFormat      string
	Location       *time.Location

	ReminderCheckInterval time.Duration
	ReminderCheckSecret   string
	ReminderTimes         []int

	Redis RedisConfig
	SMTP  SMTPConfig
}

// RedisConfig is optional; an empty Addr keeps locking in-process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SMTPConfig seeds the mail settings row on first start.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	UseTLS   bool
	Timeout  time.Duration
}

// Load reads configuration from an optional .env file and environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppPort:        getEnv("APP_PORT", "8080"),
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:    getEnv("DATABASE_URL", "data/smart_todo.db"),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),

		ReminderCheckInterval: parseSeconds(os.Getenv("REMINDER_CHECK_INTERVAL_SECONDS"), time.Minute),
		ReminderCheckSecret:   strings.TrimSpace(os.Getenv("REMINDER_CHECK_SECRET")),

		Redis: RedisConfig{
			Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       parseInt(os.Getenv("REDIS_DB"), 0),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     parseInt(os.Getenv("SMTP_PORT"), 587),
			Username: strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
			Password: os.Getenv("SMTP_PASSWORD"),
			Sender:   getEnv("SMTP_SENDER", "noreply@smarttodo.com"),
			UseTLS:   getEnv("SMTP_TLS", "true") == "true",
			Timeout:  parseSeconds(os.Getenv("SMTP_TIMEOUT_SECONDS"), 10*time.Second),
		},
	}

	times, err := ParseReminderTimes(getEnv("REMINDER_TIMES", "30,5"))
	if err != nil {
		return cfg, err
	}
	cfg.ReminderTimes = times

	loc, err := loadLocation(os.Getenv("TIMEZONE"))
	if err != nil {
		return cfg, err
	}
	cfg.Location = loc

	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		return cfg, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.ReminderCheckSecret == "" {
		return cfg, fmt.Errorf("REMINDER_CHECK_SECRET is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// ParseReminderTimes parses a comma separated list of positive minute offsets.
func ParseReminderTimes(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid reminder time %q", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("REMINDER_TIMES must list at least one offset")
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}

func parseSeconds(raw string, def time.Duration) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}
