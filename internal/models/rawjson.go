package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RawJSON holds an opaque JSON payload backed by a nullable JSONB column.
// Empty values round-trip as SQL NULL and JSON null.
type RawJSON []byte

// Value returns the raw bytes, or NULL when empty.
func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return []byte(r), nil
}

// Scan accepts NULL, []byte, and string payloads.
func (r *RawJSON) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RawJSON(v)
	default:
		return fmt.Errorf("unsupported type %T for RawJSON", value)
	}
	return nil
}

// MarshalJSON emits the payload verbatim, or null when empty.
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON stores the payload verbatim.
func (r *RawJSON) UnmarshalJSON(data []byte) error {
	if r == nil {
		return fmt.Errorf("RawJSON: UnmarshalJSON on nil pointer")
	}
	*r = append((*r)[:0], data...)
	return nil
}

var _ json.Marshaler = RawJSON{}
