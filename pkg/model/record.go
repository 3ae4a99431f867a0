package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one search result as returned by the backend, a decoded JSON object.
type Record map[string]interface{}

// GetID returns the record's numeric id.
func (r Record) GetID() (int64, bool) {
	return IDOf(r["id"])
}

// GetString returns the string value stored under key, or "" when the key is
// missing or not a string.
func (r Record) GetString(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// IDOf normalises a JSON-decoded foreign key into an int64.
// A nested object carrying an "id" (expanded relation) is accepted too.
func IDOf(v interface{}) (int64, bool) {
	switch id := v.(type) {
	case int64:
		return id, true
	case int:
		return int64(id), true
	case int32:
		return int64(id), true
	case float64:
		if id != float64(int64(id)) {
			return 0, false
		}
		return int64(id), true
	case json.Number:
		n, err := id.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		return n, err == nil
	case map[string]interface{}:
		return IDOf(id["id"])
	case Record:
		return IDOf(id["id"])
	}
	return 0, false
}
