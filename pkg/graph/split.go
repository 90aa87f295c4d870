package graph

import (
	"fmt"
	"sort"
	"strings"
)

const prefixGapCutset = " \t\n\r\f\v"

// Splitter turns raw cells into deduplicated sets of atomic values. The
// identifier-prefix table decides which elements are identifier-like and
// therefore protected from naive delimiter splitting.
type Splitter struct {
	prefixes []string
}

// NewSplitter builds a splitter over the given prefix table. Prefixes are
// matched case-sensitively, longest first, so m_vol_ is never shadowed
// by m_.
func NewSplitter(prefixes []string) *Splitter {
	sorted := make([]string, len(prefixes))
	copy(sorted, prefixes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	return &Splitter{prefixes: sorted}
}

// Split coerces a cell into a list, stringifies every element, and
// splits on the delimiter. Identifier-like elements split only where the
// delimiter is followed (after optional whitespace) by another known
// prefix; ordinary text splits everywhere. Pieces are trimmed, folded
// when requested, deduplicated, and empties dropped. An empty delimiter
// means no splitting.
func (s *Splitter) Split(field any, delimiter string, fold bool) []string {
	items := coerceList(field)
	if len(items) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	collect := func(piece string) {
		piece = strings.TrimSpace(piece)
		if fold {
			piece = strings.ToLower(piece)
		}
		if piece == "" {
			return
		}
		if _, ok := seen[piece]; ok {
			return
		}
		seen[piece] = struct{}{}
		out = append(out, piece)
	}

	for _, item := range items {
		clean := strings.TrimSpace(item)
		if clean == "" {
			continue
		}

		if delimiter == "" {
			collect(clean)
			continue
		}

		var parts []string
		if s.hasKnownPrefix(clean) {
			parts = s.splitProtected(clean, delimiter)
		} else {
			parts = strings.Split(clean, delimiter)
		}
		for _, part := range parts {
			collect(part)
		}
	}
	return out
}

// splitProtected splits an identifier-like value on the delimiter only
// where another known prefix follows, so identifiers whose payload
// contains the delimiter stay whole.
func (s *Splitter) splitProtected(value, delimiter string) []string {
	var parts []string
	start := 0
	i := 0
	for i+len(delimiter) <= len(value) {
		if value[i:i+len(delimiter)] != delimiter {
			i++
			continue
		}
		rest := strings.TrimLeft(value[i+len(delimiter):], prefixGapCutset)
		if !s.hasKnownPrefix(rest) {
			i++
			continue
		}
		parts = append(parts, value[start:i])
		start = i + len(delimiter)
		i = start
	}
	return append(parts, value[start:])
}

func (s *Splitter) hasKnownPrefix(value string) bool {
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

func coerceList(field any) []string {
	switch v := field.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, stringifyCell(item))
		}
		return items
	case string:
		return []string{v}
	default:
		return []string{stringifyCell(v)}
	}
}

func stringifyCell(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
