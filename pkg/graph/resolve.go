package graph

import (
	"folio/internal/config"
	"strings"
)

type prefixEntry struct {
	prefix   string
	typeName string
}

// TypeResolver decides which entity type a value belongs to. Columns in
// the dynamic set (or carrying a dynamic suffix) infer the type from the
// value's identifier prefix; everything else falls back to the static
// column mapping, which may miss.
type TypeResolver struct {
	staticMap      map[string]string
	prefixes       []prefixEntry
	dynamicColumns map[string]struct{}
	suffixes       []string
}

// NewTypeResolver builds a resolver from the recipe. Prefixes are
// matched case-insensitively in configuration order, first entry wins.
func NewTypeResolver(recipe *config.Recipe) *TypeResolver {
	dynamic := make(map[string]struct{}, len(recipe.DynamicColumns))
	for _, column := range recipe.DynamicColumns {
		dynamic[column] = struct{}{}
	}

	prefixes := make([]prefixEntry, 0, len(recipe.Prefixes))
	for _, entry := range recipe.Prefixes {
		prefixes = append(prefixes, prefixEntry{
			prefix:   strings.ToLower(entry.Prefix),
			typeName: entry.Type,
		})
	}

	return &TypeResolver{
		staticMap:      recipe.Mapping,
		prefixes:       prefixes,
		dynamicColumns: dynamic,
		suffixes:       recipe.DynamicSuffixes,
	}
}

// Resolve returns the entity type for a value seen in a column. The
// second return is false when the value is not classifiable; callers
// skip such values.
func (r *TypeResolver) Resolve(column, value string) (string, bool) {
	if r.isDynamic(column) {
		lower := strings.ToLower(value)
		for _, entry := range r.prefixes {
			if strings.HasPrefix(lower, entry.prefix) {
				return entry.typeName, true
			}
		}
	}

	typeName, ok := r.staticMap[column]
	if !ok || typeName == "" {
		return "", false
	}
	return typeName, true
}

func (r *TypeResolver) isDynamic(column string) bool {
	if _, ok := r.dynamicColumns[column]; ok {
		return true
	}
	for _, suffix := range r.suffixes {
		if strings.HasSuffix(column, suffix) {
			return true
		}
	}
	return false
}
