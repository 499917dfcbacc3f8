// Package config loads runtime settings from .env and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverNone     = "none"

	defaultCORSOrigins = "http://localhost:3000"
	minJWTSecretLength = 32
)

type Config struct {
	Env         string
	Port        string
	CORSOrigins string
	LogLevel    string

	JWTSecret string
	JWTTTL    time.Duration

	StoreDriver string
	Database    DatabaseConfig
	NATSURL     string

	RateLimit     RateLimit
	AuthRateLimit RateLimit
}

type RateLimit struct {
	MaxRequests int
	Window      time.Duration
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxIdleConns int
	MaxOpenConns int
	Debug        bool
}

// DSN prefers DATABASE_URL and falls back to the individual DB_* keys.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env (if present) and the process environment. The returned
// bool reports whether a .env file was found.
func Load() (*Config, bool) {
	found := godotenv.Load() == nil
	return FromViper(newViper()), found
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("CORS_ORIGINS", defaultCORSOrigins)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_TTL", "72h")
	v.SetDefault("STORE_DRIVER", DriverPostgres)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "teamup")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)

	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_MS", 900000)
	v.SetDefault("AUTH_RATE_LIMIT_MAX", 5)
	v.SetDefault("AUTH_RATE_LIMIT_WINDOW_MS", 300000)
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Env:         v.GetString("APP_ENV"),
		Port:        v.GetString("PORT"),
		CORSOrigins: v.GetString("CORS_ORIGINS"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		JWTTTL:      v.GetDuration("JWT_TTL"),
		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		NATSURL:     v.GetString("NATS_URL"),
		Database: DatabaseConfig{
			URL:          v.GetString("DATABASE_URL"),
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			Debug:        v.GetBool("DB_DEBUG"),
		},
		RateLimit: RateLimit{
			MaxRequests: v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
			Window:      time.Duration(v.GetInt("RATE_LIMIT_WINDOW_MS")) * time.Millisecond,
		},
		AuthRateLimit: RateLimit{
			MaxRequests: v.GetInt("AUTH_RATE_LIMIT_MAX"),
			Window:      time.Duration(v.GetInt("AUTH_RATE_LIMIT_WINDOW_MS")) * time.Millisecond,
		},
	}
}

// Validate checks the settings the server cannot start without. Warnings
// are returned separately and do not fail validation.
func (c *Config) Validate() (warnings []string, err error) {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}

	switch c.StoreDriver {
	case DriverPostgres, DriverMemory, DriverNone:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_REQUESTS and RATE_LIMIT_WINDOW_MS must be positive"))
	}
	if c.AuthRateLimit.MaxRequests <= 0 || c.AuthRateLimit.Window <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_MAX and AUTH_RATE_LIMIT_WINDOW_MS must be positive"))
	}

	if c.IsProduction() && c.CORSOrigins == defaultCORSOrigins {
		warnings = append(warnings, "CORS_ORIGINS is not set; using the localhost default in production")
	}
	if c.StoreDriver == DriverNone {
		warnings = append(warnings, "STORE_DRIVER=none: every store operation is a no-op")
	}

	return warnings, errors.Join(errs...)
}
