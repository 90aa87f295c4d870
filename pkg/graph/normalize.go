package graph

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var cellWhitespace = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")

// Normalize canonicalizes a raw cell value into a stable string key.
// Numbers equal to their integer truncation stringify without a trailing
// .0; text that parses fully as a number is canonicalized the same way,
// recovering numbers stored as text. Every non-absent result is NFC
// composed and trimmed, so precomposed and combining-mark spellings of
// the same name produce one key.
//
// The second return is false when the value is null, empty, or
// normalizes to nothing. Normalize is idempotent over its own output.
func Normalize(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return normalizeText(v)
	case bool:
		if v {
			return finalizeValue("1")
		}
		return finalizeValue("0")
	case int:
		return finalizeValue(strconv.FormatInt(int64(v), 10))
	case int32:
		return finalizeValue(strconv.FormatInt(int64(v), 10))
	case int64:
		return finalizeValue(strconv.FormatInt(v, 10))
	case float32:
		return normalizeFloat(float64(v))
	case float64:
		return normalizeFloat(v)
	default:
		return normalizeText(fmt.Sprint(v))
	}
}

func normalizeText(s string) (string, bool) {
	if s == "" {
		return "", false
	}

	cleaned := cellWhitespace.Replace(s)
	trimmed := strings.TrimSpace(cleaned)

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return finalizeValue(formatNumber(f))
	}
	return finalizeValue(cleaned)
}

func normalizeFloat(f float64) (string, bool) {
	// Spreadsheet parsers surface empty numeric cells as NaN.
	if math.IsNaN(f) {
		return "", false
	}
	if math.IsInf(f, 0) {
		return finalizeValue(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return finalizeValue(formatNumber(f))
}

func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func finalizeValue(s string) (string, bool) {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return "", false
	}
	return s, true
}
