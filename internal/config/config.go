package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	Organization OrganizationConfig
	Store        StoreConfig
	Cron         CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// OrganizationConfig describes the organization the attendance data belongs to
type OrganizationConfig struct {
	Timezone      string
	ExpectedStart string // HH:MM, empty when shifts are not scheduled
	GracePeriod   time.Duration
	WindowDays    int
	FullDayHours  decimal.Decimal
}

// StoreConfig selects where raw attendance documents are read from
type StoreConfig struct {
	Type       string
	SQLitePath string
	CacheTTL   time.Duration
}

type CronConfig struct {
	AuditInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance-insights"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Organization configuration
	graceMinutes, err := strconv.Atoi(getEnv("ORG_GRACE_MINUTES", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORG_GRACE_MINUTES: %w", err)
	}
	windowDays, err := strconv.Atoi(getEnv("ATTENDANCE_WINDOW_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_WINDOW_DAYS: %w", err)
	}
	fullDayHours, err := decimal.NewFromString(getEnv("FULL_DAY_HOURS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid FULL_DAY_HOURS: %w", err)
	}

	config.Organization = OrganizationConfig{
		Timezone:      getEnv("ORG_TIMEZONE", "UTC"),
		ExpectedStart: getEnv("ORG_EXPECTED_START", ""),
		GracePeriod:   time.Duration(graceMinutes) * time.Minute,
		WindowDays:    windowDays,
		FullDayHours:  fullDayHours,
	}

	// Store configuration
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	config.Store = StoreConfig{
		Type:       strings.ToLower(getEnv("STORE_TYPE", StorePostgres)),
		SQLitePath: getEnv("SQLITE_PATH", "./data/attendance.db"),
		CacheTTL:   cacheTTL,
	}

	// Cron configuration
	auditInterval, err := time.ParseDuration(getEnv("AUDIT_INTERVAL", "6h"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIT_INTERVAL: %w", err)
	}
	config.Cron = CronConfig{AuditInterval: auditInterval}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Type {
	case StorePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_TYPE must be one of: postgres, sqlite, memory")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}

	if _, err := timezone.NewResolver(c.Organization.Timezone); err != nil {
		return fmt.Errorf("invalid ORG_TIMEZONE: %w", err)
	}
	if c.Organization.ExpectedStart != "" {
		if _, err := timezone.ParseWallClock(c.Organization.ExpectedStart); err != nil {
			return fmt.Errorf("invalid ORG_EXPECTED_START: %w", err)
		}
	}
	if c.Organization.GracePeriod < 0 {
		return fmt.Errorf("ORG_GRACE_MINUTES must not be negative")
	}
	if c.Organization.WindowDays < 1 || c.Organization.WindowDays > 366 {
		return fmt.Errorf("ATTENDANCE_WINDOW_DAYS must be between 1 and 366")
	}
	if !c.Organization.FullDayHours.IsPositive() {
		return fmt.Errorf("FULL_DAY_HOURS must be positive")
	}

	return nil
}

// ExpectedStart returns the parsed organization start time, or nil when unset.
func (c *Config) ExpectedStart() *timezone.WallClock {
	if c.Organization.ExpectedStart == "" {
		return nil
	}
	clock, err := timezone.ParseWallClock(c.Organization.ExpectedStart)
	if err != nil {
		return nil
	}
	return &clock
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
