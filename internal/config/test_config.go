package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadTestConfig reads TEST_DB_* variables for database-backed tests.
// When any of them is missing the returned Config has no database settings,
// and HasDatabase reports false so callers can skip.
func LoadTestConfig() (*Config, error) {
	// Optional, from the module root and from a package directory
	_ = godotenv.Load("./../../.env")
	_ = godotenv.Load()

	cfg := &Config{Environment: EnvDevelopment}

	required := map[string]*string{
		"TEST_DB_HOST":     &cfg.Database.Host,
		"TEST_DB_USER":     &cfg.Database.User,
		"TEST_DB_PASSWORD": &cfg.Database.Password,
		"TEST_DB_NAME":     &cfg.Database.DBName,
	}
	for key, dst := range required {
		v := os.Getenv(key)
		if v == "" {
			return &Config{Environment: EnvDevelopment}, nil
		}
		*dst = v
	}

	dbPortStr := os.Getenv("TEST_DB_PORT")
	if dbPortStr == "" {
		return &Config{Environment: EnvDevelopment}, nil
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	return cfg, nil
}

// HasDatabase reports whether database settings are present
func (c *Config) HasDatabase() bool {
	return c.Database.Host != "" && c.Database.Port != 0 && c.Database.DBName != ""
}
