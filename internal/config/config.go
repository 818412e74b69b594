// Package config provides hierarchical configuration loading for the CRM service.
// Precedence: defaults < YAML file < .env file < environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// Config holds all runtime configuration for the CRM backend.
type Config struct {
	Server   Server   `yaml:"server"`
	Postgres Postgres `yaml:"postgres"`
	Auth     Auth     `yaml:"auth"`
	Logging  Logging  `yaml:"logging"`
	Rate     Rate     `yaml:"rate"`
	OTel     OTel     `yaml:"otel"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port            string        `yaml:"port"`
	BasePath        string        `yaml:"base_path"`    // prefix for API routes (default: "/api")
	CORSOrigins     []string      `yaml:"cors_origins"` // "*" reflects the request origin
	BodyLimit       int64         `yaml:"body_limit"`   // max JSON body size in bytes
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	DebugRoutes     bool          `yaml:"debug_routes"`
	TrustProxy      bool          `yaml:"trust_proxy"` // take client IP from X-Forwarded-For / X-Real-IP
}

// Postgres holds PostgreSQL connection configuration. When DSN is empty it is
// assembled from the discrete host/port/user/password/database fields.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// Auth holds token signing and password hashing configuration.
type Auth struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
	BcryptCost  int           `yaml:"bcrypt_cost"`
	Issuer      string        `yaml:"issuer"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Rate holds the limiter applied to the public auth endpoints.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// OTel holds OpenTelemetry exporter configuration. An empty endpoint disables export.
type OTel struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:            "5000",
			BasePath:        "/api",
			CORSOrigins:     []string{"*"},
			BodyLimit:       1 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Postgres: Postgres{
			Host:            "localhost",
			Port:            "5432",
			User:            "crm",
			Password:        "crm_dev",
			Database:        "crm",
			SSLMode:         "disable",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		Auth: Auth{
			TokenExpiry: 7 * 24 * time.Hour,
			BcryptCost:  10,
			Issuer:      "crm-backend",
		},
		Logging: Logging{
			Level:   "info",
			Service: "crm-backend",
		},
		Rate: Rate{
			RequestsPerSecond: 5,
			Burst:             20,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		OTel: OTel{
			Insecure:    true,
			ServiceName: "crm-backend",
		},
	}
}

// ConnString returns the configured DSN, or one built from the discrete fields.
func (p Postgres) ConnString() string {
	if p.DSN != "" {
		return p.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, p.Port),
		Path:   "/" + p.Database,
	}
	if p.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(p.SSLMode)
	}
	return u.String()
}

// RequireSecret reports an error when no token signing secret is configured.
// Serving without one is a fatal startup condition.
func (c *Config) RequireSecret() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (set JWT_SECRET)")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s Server) Addr() string {
	return fmt.Sprintf(":%s", s.Port)
}
