package coerce

import (
	"strings"
	"unicode"
)

// SnakeCase converts a camelCase provider key to a snake_case column name.
// An underscore is inserted before every upper-case letter, the result is
// lower-cased and leading underscores are removed, so applying it twice
// gives the same result as applying it once.
func SnakeCase(key string) string {
	var sb strings.Builder
	sb.Grow(len(key) + 4)
	for _, r := range key {
		if unicode.IsUpper(r) {
			sb.WriteByte('_')
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return strings.TrimLeft(sb.String(), "_")
}
