package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keys of a definition config.
const (
	ConfigKeyOptions       = "options"
	ConfigKeyYamlVariables = "yaml_variables"
	ConfigKeyIDTokens      = "id_tokens"
	ConfigKeySecrets       = "secrets"
	ConfigKeyInterruptible = "interruptible"
	ConfigKeyTagList       = "tag_list"
	ConfigKeyRunSteps      = "run_steps"
)

// DefinitionConfig is the content of a job definition. Values are plain JSON trees:
// maps keyed by string, slices, strings, bools, json.Number and nil.
type DefinitionConfig map[string]interface{}

// Canonical serializes the config as JSON with object keys sorted at every depth and
// HTML characters left unescaped. Equal content always yields equal bytes.
func (c DefinitionConfig) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]interface{}(c)); err != nil {
		return nil, fmt.Errorf("failed to serialize definition config: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Checksum returns the hex SHA-256 of the canonical serialization.
func (c DefinitionConfig) Checksum() (string, error) {
	data, err := c.Canonical()
	if err != nil {
		return "", err
	}
	return ChecksumOf(data), nil
}

// ChecksumOf returns the hex SHA-256 of data.
func ChecksumOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Interruptible returns the interruptible flag of the config, false when absent.
func (c DefinitionConfig) Interruptible() bool {
	v, ok := c[ConfigKeyInterruptible].(bool)
	return ok && v
}
