package extract

import "strings"

// CleanText collapses runs of whitespace (including full-width spaces and
// newlines from pretty-printed markup) into single spaces.
func CleanText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '　'
	})
	return strings.Join(fields, " ")
}
