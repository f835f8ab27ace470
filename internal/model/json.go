package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON is a raw JSON document stored in a JSON column. An empty value is
// written as SQL NULL and serialized as null.
type JSON []byte

// Scan implements sql.Scanner.
func (j *JSON) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSON(v)
	default:
		return errors.New("model.JSON: unsupported column type")
	}
	return nil
}

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*j = nil
		return nil
	}
	*j = append((*j)[:0], b...)
	return nil
}

// EmptyObject is stored when a JSON field is omitted on create.
var EmptyObject = JSON("{}")

// OrEmpty returns j, or an empty JSON object when j is unset.
func (j JSON) OrEmpty() JSON {
	if len(j) == 0 {
		return EmptyObject
	}
	return j
}

var _ json.Marshaler = JSON(nil)
