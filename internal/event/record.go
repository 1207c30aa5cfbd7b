// Package event provides the record type flowing through the pipeline.
// Records are nested JSON-style maps addressed by field references:
// a bare name like "message" targets a top-level key, a bracketed path
// like "[@metadata][age]" targets a nested one. The "@metadata" subtree
// is internal and stripped when the record is serialized for output.
package event

import (
	"encoding/json"
	"strings"
	"time"
)

// TimestampField holds the event's ingest/origin time.
const TimestampField = "@timestamp"

// metadataField is the subtree excluded from serialized output.
const metadataField = "@metadata"

// Record is a single pipeline event.
type Record struct {
	data map[string]any
}

// New creates a record around the given fields. A nil map is allowed.
func New(data map[string]any) *Record {
	if data == nil {
		data = make(map[string]any)
	}
	return &Record{data: data}
}

// ParseFieldRef breaks a field reference into its key sequence.
// "[a][b]" becomes ["a","b"]; a bare name is a single top-level key.
func ParseFieldRef(ref string) []string {
	if !strings.HasPrefix(ref, "[") {
		return []string{ref}
	}
	trimmed := strings.TrimPrefix(strings.TrimSuffix(ref, "]"), "[")
	return strings.Split(trimmed, "][")
}

// Get returns the value at ref, reporting absence instead of failing.
func (r *Record) Get(ref string) (any, bool) {
	keys := ParseFieldRef(ref)

	cursor := any(r.data)
	for _, key := range keys {
		obj, ok := cursor.(map[string]any)
		if !ok {
			return nil, false
		}
		cursor, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cursor, true
}

// Set writes value at ref, creating intermediate objects as needed.
// A non-object intermediate value is replaced by an object.
func (r *Record) Set(ref string, value any) {
	keys := ParseFieldRef(ref)

	cursor := r.data
	for _, key := range keys[:len(keys)-1] {
		next, ok := cursor[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cursor[key] = next
		}
		cursor = next
	}
	cursor[keys[len(keys)-1]] = value
}

// Timestamp reads the event timestamp. RFC3339 strings, epoch-second
// numbers, and time.Time values are accepted.
func (r *Record) Timestamp() (time.Time, bool) {
	raw, ok := r.data[TimestampField]
	if !ok {
		return time.Time{}, false
	}

	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t, true
		}
		return time.Time{}, false
	case float64:
		sec := int64(v)
		nsec := int64((v - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), true
	default:
		return time.Time{}, false
	}
}

// SetTimestamp stores t as the event timestamp.
func (r *Record) SetTimestamp(t time.Time) {
	r.data[TimestampField] = t.UTC().Format(time.RFC3339Nano)
}

// MarshalJSON serializes the record without its @metadata subtree.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.data))
	for k, v := range r.data {
		if k == metadataField {
			continue
		}
		out[k] = v
	}
	return json.Marshal(out)
}
