package configbinder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pool struct {
	MaxOpenConns int           `yaml:"max_open_conns"`
	Lifetime     time.Duration `yaml:"lifetime"`
}

type target struct {
	Type string `yaml:"type"`
	Port int    `yaml:"port"`
	Pool pool   `yaml:"pool"`
}

func TestBind_WeaklyTyped(t *testing.T) {
	var got target
	err := Bind(map[string]interface{}{
		"type": "postgres",
		"port": "5432",
		"pool": map[string]interface{}{"max_open_conns": "8", "lifetime": "90s"},
	}, &got)

	require.NoError(t, err)
	assert.Equal(t, "postgres", got.Type)
	assert.Equal(t, 5432, got.Port)
	assert.Equal(t, 8, got.Pool.MaxOpenConns)
	assert.Equal(t, 90*time.Second, got.Pool.Lifetime)
}

func TestBind_Error(t *testing.T) {
	var got target
	err := Bind(map[string]interface{}{"port": "not-a-number"}, &got)
	assert.ErrorContains(t, err, "target")
}
