package llm

import (
	"regexp"
	"strings"
)

var (
	jsonObjectPattern  = regexp.MustCompile(`(?s)\{.*\}`)
	codeFencePattern   = regexp.MustCompile("```(?:json|JSON)?")
	trailingComma      = regexp.MustCompile(`,\s*([}\]])`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
	controlCharPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F-\x9F\x{2028}\x{2029}]`)
)

// ExtractJSONObject returns the span from the first '{' to the last '}' in raw.
func ExtractJSONObject(raw string) (string, bool) {
	m := jsonObjectPattern.FindString(raw)
	if m == "" {
		return "", false
	}
	return m, true
}

// StripCodeFences removes markdown code fence markers.
func StripCodeFences(s string) string {
	return strings.TrimSpace(codeFencePattern.ReplaceAllString(s, ""))
}

// CleanJSON repairs a narrow class of formatting defects in model-produced JSON:
// trailing commas before a closing bracket, whitespace runs, and control characters.
// Collapsing whitespace also turns raw newlines inside string values into spaces,
// which keeps them decodable.
func CleanJSON(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = controlCharPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
