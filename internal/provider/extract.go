package provider

import (
	"strconv"
	"strings"
)

// CoerceCell converts a cell's text into the value stored in a stat map.
//
// Text containing a decimal point becomes a float64 if it parses; otherwise
// an int if it parses; otherwise the original string is kept. Parsing
// failures never surface as errors.
func CoerceCell(text string) interface{} {
	if strings.Contains(text, ".") {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
		return text
	}
	if n, err := strconv.Atoi(text); err == nil {
		return n
	}
	return text
}

// ExtractValue returns the numeric value of a stat. Strings and other
// non-numeric values are not extractable (ok=false), even when they look
// like numbers: coercion already happened at normalization time.
func ExtractValue(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
