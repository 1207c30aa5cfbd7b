package jsonpath

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []string
	}{
		{"single key", "limit", []string{"limit"}},
		{"nested path", "a.b.c", []string{"a", "b", "c"}},
		{"default limit path", "persistent.cluster.metadata.logstash.filter.age.limit_secs",
			[]string{"persistent", "cluster", "metadata", "logstash", "filter", "age", "limit_secs"}},
		{"leading dot", ".a.b", []string{"a", "b"}},
		{"trailing dot", "a.b.", []string{"a", "b"}},
		{"doubled dot", "a..b", []string{"a", "b"}},
		{"empty path", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.path)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		keys      []string
		want      any
		wantFound bool
	}{
		{"nested number", `{"a":{"b":5}}`, []string{"a", "b"}, float64(5), true},
		{"missing leaf", `{"a":{}}`, []string{"a", "b"}, nil, false},
		{"non-object before path exhausted", `{"a":5}`, []string{"a", "b"}, nil, false},
		{"top-level key", `{"limit":42.5}`, []string{"limit"}, float64(42.5), true},
		{"missing top-level key", `{"other":1}`, []string{"limit"}, nil, false},
		{"array at intermediate key", `{"a":[1,2,3]}`, []string{"a", "b"}, nil, false},
		{"null at intermediate key", `{"a":null}`, []string{"a", "b"}, nil, false},
		{"string leaf", `{"a":{"b":"10"}}`, []string{"a", "b"}, "10", true},
		{"bool leaf", `{"a":{"b":true}}`, []string{"a", "b"}, true, true},
		{"deep nesting", `{"a":{"b":{"c":{"d":7}}}}`, []string{"a", "b", "c", "d"}, float64(7), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc any
			if err := json.Unmarshal([]byte(tt.doc), &doc); err != nil {
				t.Fatalf("bad test document: %v", err)
			}

			got, found := Extract(doc, tt.keys)
			if found != tt.wantFound {
				t.Fatalf("Extract() found = %v, want %v", found, tt.wantFound)
			}
			if found && got != tt.want {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractEmptyKeys(t *testing.T) {
	doc := map[string]any{"a": 1}
	if _, found := Extract(doc, nil); found {
		t.Error("Extract with no keys should report not found")
	}
}

func TestExtractNonObjectDocument(t *testing.T) {
	for _, doc := range []any{float64(3), "text", true, nil, []any{1, 2}} {
		if _, found := Extract(doc, []string{"a"}); found {
			t.Errorf("Extract over %T document should report not found", doc)
		}
	}
}
