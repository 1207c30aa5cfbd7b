package limit

import (
	"encoding/json"
	"errors"
	"fmt"

	"agegate/internal/jsonpath"
)

// Decode errors
var (
	ErrNoValueAtPath = errors.New("no value at configured path")
	ErrNotNumeric    = errors.New("value at path is not a JSON number")
	ErrNonPositive   = errors.New("non-positive value rejected")
)

// Decode parses body as JSON, extracts the value at keys, and validates it
// is a strictly positive JSON number. On any failure it returns the fallback
// together with the reason; the returned limit is always usable.
func Decode(body []byte, keys []string, fallback float64) (float64, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fallback, fmt.Errorf("parsing response body: %w", err)
	}

	raw, found := jsonpath.Extract(doc, keys)
	if !found {
		return fallback, ErrNoValueAtPath
	}

	// encoding/json decodes every JSON number as float64. Numeric strings
	// stay strings and are rejected here.
	value, ok := raw.(float64)
	if !ok {
		return fallback, fmt.Errorf("%w: got %T", ErrNotNumeric, raw)
	}

	if value <= 0 {
		return fallback, fmt.Errorf("%w: %v", ErrNonPositive, value)
	}

	return value, nil
}
