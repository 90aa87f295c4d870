package pgx

import (
	"encoding/json"
	"reflect"
	"testing"

	"folio/pkg/store"
)

func TestMarshalDocSanitizesStrings(t *testing.T) {
	doc := store.Doc{
		"description":     "hel\x00lo",
		"associatedUsers": []string{"user\x00-1"},
		"nested": map[string]any{
			"title": string([]byte{'a', 0xff, 'b'}),
		},
		"count":  3,
		"active": true,
	}

	raw, err := marshalDoc(doc)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	decoded := map[string]any{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("expected valid json, got %v", err)
	}
	if decoded["description"] != "hello" {
		t.Fatalf("expected hello, got %q", decoded["description"])
	}
	users, ok := decoded["associatedUsers"].([]any)
	if !ok || len(users) != 1 || users[0] != "user-1" {
		t.Fatalf("unexpected associatedUsers: %v", decoded["associatedUsers"])
	}
	nested, ok := decoded["nested"].(map[string]any)
	if !ok || nested["title"] != "ab" {
		t.Fatalf("unexpected nested doc: %v", decoded["nested"])
	}
	if decoded["active"] != true {
		t.Fatalf("expected active true, got %v", decoded["active"])
	}
}

func TestSanitizeValuePassthrough(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{
			name: "plain string",
			in:   "fine",
			want: "fine",
		},
		{
			name: "number",
			in:   float64(42),
			want: float64(42),
		},
		{
			name: "bool",
			in:   false,
			want: false,
		},
		{
			name: "nil",
			in:   nil,
			want: nil,
		},
		{
			name: "slice of any",
			in:   []any{"a\x00", float64(1)},
			want: []any{"a", float64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeValue(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDocString(t *testing.T) {
	doc := store.Doc{"name": "persons", "count": 3}
	if got := docString(doc, "name"); got != "persons" {
		t.Fatalf("expected persons, got %q", got)
	}
	if got := docString(doc, "count"); got != "" {
		t.Fatalf("expected empty string for non-string field, got %q", got)
	}
	if got := docString(doc, "missing"); got != "" {
		t.Fatalf("expected empty string for missing field, got %q", got)
	}
}
