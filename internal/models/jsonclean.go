package models

import (
	"errors"
	"regexp"
	"strings"
)

var (
	jsonObjectPattern   = regexp.MustCompile(`(?s)\{.*\}`)
	lineCommentPattern  = regexp.MustCompile(`(?m)(^|[^:])//[^\n]*`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// CleanJSONText prepares raw LLM output for JSON decoding: it isolates the
// outermost object (dropping markdown fences and prose), strips // and
// /* */ comments (a "//" directly after ":" is left alone so URLs survive)
// and removes trailing commas before closing braces and brackets.
func CleanJSONText(raw, errorLabel string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errors.New(errorLabel)
	}
	cleaned := strings.TrimSpace(raw)
	if m := jsonObjectPattern.FindString(cleaned); m != "" {
		cleaned = m
	}
	cleaned = lineCommentPattern.ReplaceAllString(cleaned, "$1")
	cleaned = blockCommentPattern.ReplaceAllString(cleaned, "")
	cleaned = trailingCommaPattern.ReplaceAllString(cleaned, "$1")
	return cleaned, nil
}
