// Package postgres registers the PostgreSQL dialector and provides its DBProvider.
package postgres

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tigerroll/buildmeta/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/buildmeta/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/buildmeta/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/buildmeta/pkg/batch/core/config"
)

const dbType = "postgres"

func init() {
	gormadapter.RegisterDialector(dbType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Host == "" || cfg.Database == "" {
			return nil, fmt.Errorf("postgres connection requires host and database")
		}
		return postgres.Open(ConnectionString(cfg)), nil
	})
}

// PostgresDBProvider implements database.DBProvider for PostgreSQL connections.
type PostgresDBProvider struct {
	*gormadapter.BaseProvider
}

// ConnectionString generates the key/value DSN expected by gorm.io/driver/postgres.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("dbname=%s", c.Database),
		fmt.Sprintf("sslmode=%s", c.Sslmode),
	}
	if c.Port == 0 {
		parts[1] = "port=5432"
	}
	if c.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", c.User))
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}
	if c.Schema != "" {
		parts = append(parts, fmt.Sprintf("search_path=%s", c.Schema))
	}
	return strings.Join(parts, " ")
}

// NewProvider creates the PostgreSQL provider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return &PostgresDBProvider{BaseProvider: gormadapter.NewBaseProvider(cfg, dbType)}
}
