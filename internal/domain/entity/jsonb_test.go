package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONB_ScanAndValue(t *testing.T) {
	var j JSONB
	require.NoError(t, j.Scan([]byte(`{"a":1}`)))
	v, err := j.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, v)

	require.NoError(t, j.Scan(nil))
	assert.True(t, j.IsNull())
	v, err = j.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, j.Scan(42))
}

func TestJSONB_Emptiness(t *testing.T) {
	assert.True(t, JSONB(nil).IsEmpty())
	assert.True(t, JSONB("null").IsNull())
	assert.True(t, JSONB(" [] ").IsEmpty())
	assert.True(t, JSONB("{}").IsEmpty())
	assert.False(t, JSONB(`[{"key":"A"}]`).IsEmpty())
}

func TestJSONB_DecodeKeepsNumbers(t *testing.T) {
	v, err := JSONB(`{"timeout": 3600, "ratio": 0.10}`).Decode()
	require.NoError(t, err)

	m := v.(map[string]interface{})
	assert.Equal(t, json.Number("3600"), m["timeout"])
	assert.Equal(t, json.Number("0.10"), m["ratio"])

	_, err = JSONB(`{"broken"`).Decode()
	assert.Error(t, err)
}
