// Package jsonpath walks dot-delimited key paths through parsed JSON
// documents. Traversal never fails: an absent key or a non-object value
// before the path is exhausted is reported as not found.
package jsonpath

import "strings"

// Split breaks a dot-delimited path into its ordered key sequence.
// Empty segments produced by leading, trailing or doubled dots are dropped.
func Split(path string) []string {
	parts := strings.Split(path, ".")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// Extract resolves keys against doc, one nested object at a time.
// The second return is false when any intermediate value is not a JSON
// object or lacks the next key.
func Extract(doc any, keys []string) (any, bool) {
	if len(keys) == 0 {
		return nil, false
	}

	cursor := doc
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
