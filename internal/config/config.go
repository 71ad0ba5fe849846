// Package config reads runtime settings from the environment, after an
// optional .env file has been loaded.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. Anyone who knows it can
// mint tokens, so main logs a warning whenever it is active.
const DefaultJWTSecret = "your-secret-key"

// Config holds runtime settings for the API process.
type Config struct {
	HTTPPort   string
	Production bool
	LogLevel   string

	JWTSecret  string
	TokenTTL   time.Duration
	InviteCode string
	BcryptCost int

	DBDriver    string
	DatabaseURL string

	RecordStore     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	CORSOrigins []string
}

// UsingDefaultSecret reports whether tokens are signed with the built-in key.
func (c *Config) UsingDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPPort = "3000"
	c.LogLevel = "info"
	c.JWTSecret = DefaultJWTSecret
	c.TokenTTL = 24 * time.Hour
	c.InviteCode = "Linyuye2025"
	c.BcryptCost = 10
	c.DBDriver = "sqlite"
	c.DatabaseURL = "auth.db"
	c.RecordStore = "mongo"
	c.MongoURI = "mongodb://localhost:27017"
	c.MongoDatabase = "psychology_analysis"
	c.MongoCollection = "analysis_records"
}

// Load applies defaults, then .env, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("HTTP_PORT", &c.HTTPPort)
	str("LOG_LEVEL", &c.LogLevel)
	str("JWT_SECRET", &c.JWTSecret)
	str("INVITE_CODE", &c.InviteCode)
	str("DB_DRIVER", &c.DBDriver)
	str("DATABASE_URL", &c.DatabaseURL)
	str("RECORD_STORE", &c.RecordStore)
	str("MONGO_URI", &c.MongoURI)
	str("MONGO_DB", &c.MongoDatabase)
	str("MONGO_COLLECTION", &c.MongoCollection)

	c.Production = getenv("APP_ENV") == "production"

	if s := getenv("JWT_EXPIRES_IN"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("JWT_EXPIRES_IN: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("JWT_EXPIRES_IN: must be positive, got %s", d)
		}
		c.TokenTTL = d
	}
	if s := getenv("BCRYPT_COST"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		c.BcryptCost = n
	}
	if s := getenv("CORS_ORIGINS"); s != "" {
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}

	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DBDriver)
	}
	switch c.RecordStore {
	case "mongo", "memory":
	default:
		return fmt.Errorf("RECORD_STORE: unsupported store %q", c.RecordStore)
	}
	return nil
}
