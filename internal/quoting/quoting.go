// Package quoting provides shared SQL literal quoting utilities.
package quoting

import "strings"

// Literal renders s as a standard SQL string literal: wrapped in single
// quotes with internal single quotes doubled. Backslashes are left alone.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// MySQLLiteral renders s as a MySQL string literal. MySQL treats backslash
// as an escape character by default, so backslashes are doubled as well.
func MySQLLiteral(s string) string {
	return "'" + EscapeString(s) + "'"
}

// EscapeString escapes a string literal for SQL by doubling single quotes
// and escaping backslashes (for MySQL compatibility).
//
// SECURITY: MySQL with non-default character sets (GBK, SJIS) may have
// multi-byte sequences where a trailing byte coincides with backslash or
// quote. Connections should use utf8mb4.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", "''")
}

// Unliteral reverses Literal. ok is false when s is not a single quoted
// literal or contains an undoubled quote.
func Unliteral(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\'' {
			if i+1 >= len(body) || body[i+1] != '\'' {
				return "", false
			}
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String(), true
}
