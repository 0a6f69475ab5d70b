// Package config defines the connection settings of a named database.
package config

import (
	"fmt"

	"github.com/tigerroll/buildmeta/pkg/batch/support/util/configbinder"
)

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Type     string     `yaml:"type"`             // Database type. Only "postgres" is registered.
	Host     string     `yaml:"host"`             // Database host address.
	Port     int        `yaml:"port"`             // Database port number.
	Database string     `yaml:"database"`         // Database name.
	User     string     `yaml:"user"`             // Database user.
	Password string     `yaml:"password"`         // Database password.
	Schema   string     `yaml:"schema,omitempty"` // search_path, when not "public".
	Sslmode  string     `yaml:"sslmode"`          // SSL mode for the connection.
	Pool     PoolConfig `yaml:"pool"`             // Connection pool settings.
}

// Decode converts a raw section of the "database" configuration map into a DatabaseConfig.
func Decode(name string, raw map[string]interface{}) (DatabaseConfig, error) {
	var cfg DatabaseConfig
	section, ok := raw[name]
	if !ok {
		return cfg, fmt.Errorf("database configuration '%s' not found", name)
	}
	if err := configbinder.Bind(section, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}
	if cfg.Sslmode == "" {
		cfg.Sslmode = "disable"
	}
	return cfg, nil
}
