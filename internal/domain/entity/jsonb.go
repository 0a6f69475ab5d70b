package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB holds the raw text of a json/jsonb column. A nil JSONB is SQL NULL.
type JSONB []byte

// Value implements driver.Valuer.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner.
func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0:0], v...)
	case string:
		*j = JSONB(v)
	default:
		return fmt.Errorf("unsupported Scan type for JSONB: %T", value)
	}
	return nil
}

// IsNull reports whether the column is SQL NULL or holds a JSON null.
func (j JSONB) IsNull() bool {
	trimmed := bytes.TrimSpace(j)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// IsEmpty reports whether the value is null, an empty array or an empty object.
func (j JSONB) IsEmpty() bool {
	if j.IsNull() {
		return true
	}
	trimmed := bytes.TrimSpace(j)
	return bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("{}"))
}

// Decode unmarshals the value into a generic tree. Numbers are kept as json.Number so
// re-encoding reproduces them verbatim.
func (j JSONB) Decode() (interface{}, error) {
	if j.IsNull() {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(j))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode JSONB: %w", err)
	}
	return v, nil
}

// MarshalJSON emits the raw value, or null.
func (j JSONB) MarshalJSON() ([]byte, error) {
	if j.IsNull() {
		return []byte("null"), nil
	}
	return j, nil
}
