package search

import "strings"

// normalizeKeyword trims the keyword and folds it to lower case.
// An empty result disables the keyword filter.
func normalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// containsKeyword reports whether any field contains the normalized keyword.
func containsKeyword(keyword string, fields ...string) bool {
	for _, field := range fields {
		if field != "" && strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	return false
}
