package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionConfig_CanonicalSortsKeys(t *testing.T) {
	a := DefinitionConfig{
		ConfigKeyYamlVariables: []interface{}{map[string]interface{}{"value": "1", "key": "A"}},
		ConfigKeyOptions:       map[string]interface{}{"script": []interface{}{"make <all>"}, "image": "ruby"},
	}
	b := DefinitionConfig{
		ConfigKeyOptions:       map[string]interface{}{"image": "ruby", "script": []interface{}{"make <all>"}},
		ConfigKeyYamlVariables: []interface{}{map[string]interface{}{"key": "A", "value": "1"}},
	}

	ca, err := a.Canonical()
	require.NoError(t, err)
	cb, err := b.Canonical()
	require.NoError(t, err)

	assert.Equal(t, `{"options":{"image":"ruby","script":["make <all>"]},"yaml_variables":[{"key":"A","value":"1"}]}`, string(ca))
	assert.Equal(t, ca, cb)
}

func TestDefinitionConfig_ChecksumDistinguishesContent(t *testing.T) {
	base := DefinitionConfig{ConfigKeyOptions: map[string]interface{}{"interruptible": true}}
	tagged := DefinitionConfig{
		ConfigKeyOptions: map[string]interface{}{"interruptible": true},
		ConfigKeyTagList: []string{"docker"},
	}

	s1, err := base.Checksum()
	require.NoError(t, err)
	s2, err := tagged.Checksum()
	require.NoError(t, err)

	assert.Len(t, s1, 64)
	assert.NotEqual(t, s1, s2)
}

func TestDefinitionConfig_NumbersVerbatim(t *testing.T) {
	c := DefinitionConfig{ConfigKeyOptions: map[string]interface{}{"timeout": json.Number("3600.0")}}
	data, err := c.Canonical()
	require.NoError(t, err)
	assert.Equal(t, `{"options":{"timeout":3600.0}}`, string(data))
}

func TestDefinitionConfig_Interruptible(t *testing.T) {
	assert.True(t, DefinitionConfig{ConfigKeyInterruptible: true}.Interruptible())
	assert.False(t, DefinitionConfig{}.Interruptible())
}
