package utils

import (
	"strings"
)

// ParseBool converts a string to a boolean (supports multiple formats).
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "enabled":
		return true
	}
	return false
}

// TrimQuotes removes surrounding quotes from a string.
func TrimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// QuoteValue wraps v in double quotes when it contains characters that the
// env-file parser would otherwise split or drop (spaces, '#', quotes).
func QuoteValue(v string) string {
	if v == "" || !strings.ContainsAny(v, " \t#'\"") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

// FindInlineCommentIndex returns the index of a # that starts an inline comment.
// A # inside quotes or escaped with a backslash is ignored.
func FindInlineCommentIndex(line string) int {
	var quote byte
	escaped := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '#':
			return i
		}
	}
	return -1
}

// FindClosingQuoteIndex returns the index of the closing quote in s,
// honoring backslash escapes. Assumes s[0] is the opening quote.
func FindClosingQuoteIndex(s string, quote byte) int {
	escaped := false
	for i := 1; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == quote:
			return i
		}
	}
	return -1
}

// SplitKeyValue splits a "key=value" line into key and value.
// Supports inline comments too: KEY="value" # comment
func SplitKeyValue(line string) (string, string, bool) {
	key, valuePart, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	valuePart = strings.TrimSpace(valuePart)

	if valuePart != "" && (valuePart[0] == '"' || valuePart[0] == '\'') {
		if end := FindClosingQuoteIndex(valuePart, valuePart[0]); end >= 0 {
			inner := valuePart[1:end]
			if valuePart[0] == '"' {
				inner = strings.ReplaceAll(inner, `\"`, `"`)
			}
			return key, inner, true
		}
	} else if idx := FindInlineCommentIndex(valuePart); idx >= 0 {
		valuePart = strings.TrimSpace(valuePart[:idx])
	}

	return key, TrimQuotes(valuePart), true
}

// SetEnvValue sets or updates a KEY=VALUE line in an env-file body,
// preserving indentation and trailing comments. Missing keys are appended.
func SetEnvValue(body, key, value string) string {
	lines := strings.Split(body, "\n")
	replaced := false
	for i, line := range lines {
		if IsComment(line) {
			continue
		}
		name, _, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || strings.TrimSpace(name) != key {
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		newLine := indent + key + "=" + value
		if idx := FindInlineCommentIndex(line); idx >= 0 {
			before := line[:idx]
			spacing := before[len(strings.TrimRight(before, " \t")):]
			if spacing == "" {
				spacing = " "
			}
			newLine += spacing + line[idx:]
		}
		lines[i] = newLine
		replaced = true
	}
	if !replaced {
		if n := len(lines); n > 0 && lines[n-1] == "" {
			lines[n-1] = key + "=" + value
			lines = append(lines, "")
		} else {
			lines = append(lines, key+"="+value)
		}
	}
	return strings.Join(lines, "\n")
}

// IsComment checks whether a line is blank or a comment (starts with #).
func IsComment(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}
