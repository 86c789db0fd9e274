package entities

import "strings"

// NormalizeName is the identity key for people and topics: trimmed,
// inner whitespace collapsed, lower-cased. Aliases are not merged.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// DisplayName collapses whitespace but keeps the original casing
func DisplayName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
