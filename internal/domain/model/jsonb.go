package model

import (
	"database/sql/driver"
	"encoding/json"
)

// JSONB represents a JSONB database type
type JSONB map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		*j = make(JSONB)
		return nil
	}
}

// Merge copies every key from other into j, overwriting existing keys.
func (j *JSONB) Merge(other map[string]interface{}) {
	if len(other) == 0 {
		return
	}
	if *j == nil {
		*j = make(JSONB, len(other))
	}
	for k, v := range other {
		(*j)[k] = v
	}
}
