package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dbconfig "github.com/tigerroll/buildmeta/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/buildmeta/pkg/batch/adapter/database/gorm"
)

func TestConnectionString(t *testing.T) {
	dsn := ConnectionString(dbconfig.DatabaseConfig{
		Host: "db", Database: "ci", User: "gitlab", Password: "secret", Sslmode: "require", Schema: "ci_schema",
	})
	assert.Equal(t, "host=db port=5432 dbname=ci sslmode=require user=gitlab password=secret search_path=ci_schema", dsn)
}

func TestDialectorRegistered(t *testing.T) {
	factory, err := gormadapter.GetDialectorFactory("postgres")
	assert.NoError(t, err)

	_, err = factory(dbconfig.DatabaseConfig{Type: "postgres"})
	assert.Error(t, err, "host and database are required")

	d, err := factory(dbconfig.DatabaseConfig{Type: "postgres", Host: "db", Database: "ci"})
	assert.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}
