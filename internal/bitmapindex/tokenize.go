package bitmapindex

import "strings"

// delimiters is the tokenization delimiter class from spec.md §4.3.
const delimiters = " _:;!@#$%^&*(){}[],.?`\\/\"'"

func isDelimiter(r rune) bool {
	return strings.ContainsRune(delimiters, r)
}

// Tokenize splits s on the tag-text delimiter class, dropping empty tokens.
func Tokenize(s string) []string {
	return strings.FieldsFunc(s, isDelimiter)
}

// TokenizeQuery splits a raw query term string on spaces only, per the
// search()-specific tokenization rule in spec.md §4.3 step 1.
func TokenizeQuery(s string) []string {
	return strings.Fields(s)
}
