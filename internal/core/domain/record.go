package domain

import (
	"errors"
	"fmt"
	"time"
)

// Record is one server-managed entity instance, kept as the raw JSON mapping.
// The backend owns the schema; the client only ever needs the identifier and
// a handful of display fields, so an opaque map beats a struct per entity.
type Record map[string]any

// Identity resolves the record's unique identifier. Entities are not
// consistent about the field name ("id" vs "_id"), so we try the descriptor's
// preferred field first and then both observed spellings.
func (r Record) Identity(idField string) (string, bool) {
	for _, field := range []string{idField, "id", "_id"} {
		if field == "" {
			continue
		}
		if v, ok := r[field]; ok && v != nil {
			return fmt.Sprintf("%v", v), true
		}
	}
	return "", false
}

// ID keeps the simple accessor for callers that don't carry a descriptor.
func (r Record) ID() (string, bool) {
	return r.Identity("")
}

func (r Record) SetID(idField, id string) {
	if idField == "" {
		idField = "id"
	}
	r[idField] = id
}

// String returns the named field as a string, or "" when absent.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Bool returns the named field as a bool, defaulting to false.
func (r Record) Bool(field string) bool {
	b, _ := r[field].(bool)
	return b
}

// Strings returns the named field as a string slice. JSON decoding hands us
// []any, so each entry is stringified individually.
func (r Record) Strings(field string) []string {
	switch v := r[field].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return nil
	}
}

// Timestamp parses an ISO-8601 field such as createdAt. The value is only
// used for display formatting, so a zero time on parse failure is fine.
func (r Record) Timestamp(field string) time.Time {
	s, ok := r[field].(string)
	if !ok {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func NewFromMap(data map[string]any) (Record, error) {
	if data == nil {
		return nil, errors.New("cannot create record from nil data")
	}

	return Record(data), nil
}

// Validate rejects records that cannot round-trip to the backend.
func (r Record) Validate() error {
	if len(r) == 0 {
		return errors.New("record has no fields")
	}
	return nil
}
