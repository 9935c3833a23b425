// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DevSessionSecret is used when SESSION_SECRET is not set outside production.
// It provides no security and must never sign production sessions.
const DevSessionSecret = "ybs-dev-only-session-secret-do-not-use-in-production"

// minProductionSecretLength is the shortest SESSION_SECRET accepted in production
const minProductionSecretLength = 32

// Config holds all configuration for the application
type Config struct {
	Environment string
	Database    DatabaseConfig
	Server      ServerConfig
	Logging     LoggingConfig
	CORS        CORSConfig
	Session     SessionConfig
	Bootstrap   BootstrapConfig
	RateLimit   RateLimitConfig
	BcryptCost  int
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// SessionConfig holds session token settings
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	// UsingDevSecret is true when the development fallback secret is in use
	UsingDevSecret bool
}

// BootstrapConfig holds the credentials used to seed the first admin
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// RateLimitConfig holds login throttling and global API throttling settings
type RateLimitConfig struct {
	LoginMaxAttempts  int
	LoginWindow       time.Duration
	SweepSchedule     string
	APIRequestsPerMin int
}

// IsProduction reports whether the deployment is marked as production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	if env == "" {
		env = EnvDevelopment
	}
	if env != EnvDevelopment && env != EnvProduction {
		return nil, fmt.Errorf("invalid APP_ENV %q: must be %s or %s", env, EnvDevelopment, EnvProduction)
	}
	cfg.Environment = env

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPort, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// Session configuration
	if err := loadSession(cfg); err != nil {
		return nil, err
	}

	// Bootstrap admin (optional, only used when no users exist)
	cfg.Bootstrap.AdminEmail = strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	cfg.Bootstrap.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.Bootstrap.AdminName = strings.TrimSpace(os.Getenv("ADMIN_NAME"))
	if cfg.Bootstrap.AdminName == "" {
		cfg.Bootstrap.AdminName = "Administrator"
	}

	// Rate limit configuration
	if cfg.RateLimit.LoginMaxAttempts, err = envInt("LOGIN_RATE_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimit.LoginMaxAttempts < 1 {
		return nil, fmt.Errorf("LOGIN_RATE_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.RateLimit.LoginWindow, err = envDuration("LOGIN_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	cfg.RateLimit.SweepSchedule = os.Getenv("RATE_LIMIT_SWEEP_SCHEDULE")
	if cfg.RateLimit.SweepSchedule == "" {
		cfg.RateLimit.SweepSchedule = "@every 1m"
	}
	if cfg.RateLimit.APIRequestsPerMin, err = envInt("API_RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}

	if cfg.BcryptCost, err = envInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSession reads the signing secret and token lifetime.
// Production deployments must configure a strong secret; elsewhere a fixed
// development secret is used when none is set.
func loadSession(cfg *Config) error {
	secret := os.Getenv("SESSION_SECRET")
	switch {
	case secret == "" && cfg.IsProduction():
		return fmt.Errorf("SESSION_SECRET is required in production")
	case secret == "":
		cfg.Session.Secret = DevSessionSecret
		cfg.Session.UsingDevSecret = true
	case cfg.IsProduction() && len(secret) < minProductionSecretLength:
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in production", minProductionSecretLength)
	default:
		cfg.Session.Secret = secret
	}

	ttl, err := envDuration("SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	cfg.Session.TTL = ttl

	return nil
}

// parseOrigins parses comma-separated origins, defaulting to allow all
func parseOrigins(raw string) []string {
	if raw == "" {
		// Default to allow all origins if not specified (for development)
		return []string{"*"}
	}

	origins := strings.Split(raw, ",")
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed = append(allowed, origin)
		}
	}
	// If no valid origins found, default to allow all
	if len(allowed) == 0 {
		return []string{"*"}
	}
	return allowed
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
