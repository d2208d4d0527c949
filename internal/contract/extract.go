package contract

import "strings"

// Extract returns the span from the first '{' to the last '}' inclusive.
// Braces are not balanced: several objects or stray braces in prose can yield
// a merged span, and the parser is the validity gate for that.
func Extract(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
