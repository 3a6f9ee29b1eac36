package harvest

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Sanitizer normalizes a raw extracted value into a typed value.
// A nil raw value means the source was absent.
type Sanitizer func(raw any) any

// integerRe matches the first run of digits and commas holding at least one digit.
var integerRe = regexp.MustCompile(`[\d,]*\d[\d,]*`)

// SanitizeString trims surrounding whitespace from a string. It returns nil
// when the value has no word character, so "   " and "--" are both absent.
// Nil and non-string values pass through unchanged.
func SanitizeString(raw any) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	if !strings.ContainsFunc(s, isWordRune) {
		return nil
	}
	return strings.TrimSpace(s)
}

// SanitizeInteger parses the first run of digits in a string, ignoring
// thousands separators: "1,234 views" becomes 1234. A string without digits
// yields 0, not nil. Nil and non-string values pass through unchanged.
func SanitizeInteger(raw any) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}

	match := integerRe.FindString(s)
	if match == "" {
		return 0
	}

	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		// Out of range for int.
		return 0
	}
	return n
}

// SanitizeKind sanitizes raw according to kind. Kinds without a dedicated
// sanitizer return raw unchanged.
func SanitizeKind(raw any, kind Kind) any {
	switch kind {
	case KindInteger:
		return SanitizeInteger(raw)
	case KindString:
		return SanitizeString(raw)
	default:
		return raw
	}
}

// Identity returns raw unchanged.
func Identity(raw any) any {
	return raw
}

// IsPresent reports whether v carries a usable value. Nil, an empty
// sequence and an empty record are absent; everything else, including the
// empty string and zero, is present.
func IsPresent(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case []any:
		return len(v) > 0
	case Record:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
