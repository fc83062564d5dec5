package database

import (
	"fmt"
	"strings"
)

const (
	// DriverPostgres selects github.com/lib/pq.
	DriverPostgres = "postgres"
	// DriverPGX selects the database/sql adapter of github.com/jackc/pgx/v5.
	DriverPGX = "pgx"
)

// Config holds database connection settings shared across bots.
type Config struct {
	URL            string `yaml:"url" envconfig:"DATABASE_URL"`
	Driver         string `yaml:"driver" envconfig:"DB_DRIVER"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// WaitSeconds bounds how long startup waits for the server to accept connections.
	WaitSeconds int `yaml:"wait_seconds" envconfig:"DB_WAIT_SECONDS"`
}

// Normalize validates the connection settings and fills defaults.
func (c *Config) Normalize() error {
	c.URL = strings.TrimSpace(c.URL)
	if c.URL == "" {
		return fmt.Errorf("database url is required (DATABASE_URL)")
	}
	switch d := strings.ToLower(strings.TrimSpace(c.Driver)); d {
	case "", DriverPostgres:
		c.Driver = DriverPostgres
	case DriverPGX:
		c.Driver = DriverPGX
	default:
		return fmt.Errorf("invalid database driver %q; allowed: postgres, pgx", c.Driver)
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
	}
	if c.WaitSeconds <= 0 {
		c.WaitSeconds = 30
	}
	return nil
}
