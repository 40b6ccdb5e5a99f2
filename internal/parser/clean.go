package parser

import "strings"

// CleanText collapses every run of whitespace into a single space and trims
// both ends.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
