package catalog

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	nonPriceChars = regexp.MustCompile(`[^\d.]`)
	leadingInt    = regexp.MustCompile(`\d+`)
)

// ParsePrice extracts a rounded integer price from a raw price string.
// Returns ok=false for empty values and for the sentinel.
func ParsePrice(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == SentinelPrice {
		return 0, false
	}
	clean := nonPriceChars.ReplaceAllString(raw, "")
	if clean == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return int(f + 0.5), true
}

// LeadingNumber extracts the first run of digits from a spec value,
// e.g. "625Wh" -> 625, "160mm travel" -> 160.
func LeadingNumber(raw string) (int, bool) {
	m := leadingInt.FindString(raw)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// normalizeSpecKey folds a spec key for lookup: lower case, spaces and
// underscores collapsed to single underscores, trimmed.
func normalizeSpecKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return r == ' ' || r == '_' || r == '\t'
	}), "_")
	return key
}

// Decamelize turns a stored key into a display label when no translation
// exists: "rear_der" -> "Rear Der", "forkLength" -> "Fork Length".
func Decamelize(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteByte(' ')
		case r >= 'A' && r <= 'Z' && i > 0:
			b.WriteByte(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	words := strings.Fields(b.String())
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// FormatPrice renders a price for display: thousands separated with commas,
// the sentinel passed through verbatim, unparsable values returned as the
// sentinel (matching the site's historical behavior).
func FormatPrice(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == SentinelPrice {
		return SentinelPrice
	}
	n, ok := ParsePrice(raw)
	if !ok {
		return SentinelPrice
	}
	return groupThousands(n)
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}
