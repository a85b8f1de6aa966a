package postgres

import (
	"fmt"
	"time"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	// Host is the database server hostname.
	Host string
	// Port is the database server port.
	Port int
	// Database is the database name.
	Database string
	// User is the database user.
	User string
	// Password is the database password.
	Password string
	// SSLMode controls TLS negotiation (disable, require, verify-ca, verify-full).
	SSLMode string
	// Schema is the schema records are stored in.
	Schema string
	// PoolSize is the maximum number of pooled connections.
	PoolSize int
	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration
	// DSN, when set, is used verbatim and overrides the individual
	// connection fields.
	DSN string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           5432,
		Database:       "bulwark",
		User:           "postgres",
		SSLMode:        "disable",
		Schema:         "public",
		PoolSize:       10,
		ConnectTimeout: 10 * time.Second,
	}
}

// ConnectionString renders the configuration as a pgx connection string.
func (c Config) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	s := fmt.Sprintf("host=%s port=%d dbname=%s user=%s sslmode=%s pool_max_conns=%d",
		c.Host, c.Port, c.Database, c.User, c.SSLMode, c.PoolSize)
	if c.Password != "" {
		s += fmt.Sprintf(" password=%s", c.Password)
	}
	return s
}

// Option configures a postgres Config.
type Option func(*Config)

// WithHost sets the database host.
func WithHost(host string) Option {
	return func(c *Config) { c.Host = host }
}

// WithPort sets the database port.
func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

// WithDatabase sets the database name.
func WithDatabase(name string) Option {
	return func(c *Config) { c.Database = name }
}

// WithCredentials sets the database user and password.
func WithCredentials(user, password string) Option {
	return func(c *Config) {
		c.User = user
		c.Password = password
	}
}

// WithSSLMode sets the TLS negotiation mode.
func WithSSLMode(mode string) Option {
	return func(c *Config) { c.SSLMode = mode }
}

// WithSchema sets the schema records are stored in.
func WithSchema(schema string) Option {
	return func(c *Config) { c.Schema = schema }
}

// WithPoolSize sets the maximum number of pooled connections.
func WithPoolSize(size int) Option {
	return func(c *Config) { c.PoolSize = size }
}

// WithDSN sets a verbatim connection string, overriding the individual
// connection fields.
func WithDSN(dsn string) Option {
	return func(c *Config) { c.DSN = dsn }
}
