package step

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLegacy_SymbolKeys(t *testing.T) {
	text := "---\n:image: ruby:3.2\n:script:\n- echo hello\n:when: :manual\n:retry: 2\n"

	v, err := decodeLegacy(text)

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"image":  "ruby:3.2",
		"script": []interface{}{"echo hello"},
		"when":   "manual",
		"retry":  json.Number("2"),
	}, v)
}

func TestDecodeLegacy_IgnoresRubyTags(t *testing.T) {
	text := "--- !ruby/hash:ActiveSupport::HashWithIndifferentAccess\nimage: alpine\nartifacts: !ruby/hash:ActiveSupport::HashWithIndifferentAccess\n  paths:\n  - out/\n"

	v, err := decodeLegacy(text)

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"image":     "alpine",
		"artifacts": map[string]interface{}{"paths": []interface{}{"out/"}},
	}, v)
}

func TestDecodeLegacy_QuotedColonIsKept(t *testing.T) {
	v, err := decodeLegacy("---\n:command: \":not_a_symbol\"\n")

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"command": ":not_a_symbol"}, v)
}

func TestDecodeLegacy_EmptyAndInvalid(t *testing.T) {
	v, err := decodeLegacy("   \n")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = decodeLegacy("key: [unterminated")
	assert.Error(t, err)
}

func TestNormalizeVariables(t *testing.T) {
	v, err := decodeLegacy("---\n- :key: BUILD_NUMBER\n  :value: 42\n  :public: true\n- :key: :SYMBOL\n  :value: ~\n")
	require.NoError(t, err)

	assert.Equal(t, []interface{}{
		map[string]interface{}{"key": "BUILD_NUMBER", "value": "42", "public": true},
		map[string]interface{}{"key": "SYMBOL", "value": ""},
	}, normalizeVariables(v))
}

func TestNormalizeVariables_KeepsNumberText(t *testing.T) {
	v, err := decodeLegacy("---\n- :key: VERSION\n  :value: 1.0\n- :key: MASK\n  :value: 0x1F\n- :key: RATIO\n  :value: -2.50\n")
	require.NoError(t, err)

	assert.Equal(t, []interface{}{
		map[string]interface{}{"key": "VERSION", "value": "1.0"},
		map[string]interface{}{"key": "MASK", "value": "31"},
		map[string]interface{}{"key": "RATIO", "value": "-2.50"},
	}, normalizeVariables(v))
}

func TestDecodeLegacy_NumbersKeepSourceText(t *testing.T) {
	v, err := decodeLegacy("---\n:timeout: 3600\n:ratio: 1.50\n")
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"timeout": json.Number("3600"),
		"ratio":   json.Number("1.50"),
	}, v)
}

func TestNormalizeVariables_NotAList(t *testing.T) {
	assert.Nil(t, normalizeVariables(map[string]interface{}{"key": "x"}))
	assert.Nil(t, normalizeVariables(nil))
}
