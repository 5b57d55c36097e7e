package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/oncopipe/drug-detective/internal/common"
)

var (
	reFence         = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	reUnquotedKey   = regexp.MustCompile(`([{,]\s*)([A-Za-z0-9_]+)\s*:`)
	reTrailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// RepairJSON turns the model's raw text into a parseable JSON object, or fails.
// Attempts, in order: the text as-is, markdown-fenced blocks, the first-`{` to
// last-`}` substring, then common repairs (quote style, unquoted keys, trailing
// commas) and finally closing truncated strings/braces. A failure here means
// the file is skipped and logged, never retried.
func RepairJSON(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", common.ErrParse)
	}

	if b, ok := parseObject(raw); ok {
		return b, nil
	}

	for _, m := range reFence.FindAllStringSubmatch(raw, -1) {
		if b, ok := parseObject(m[1]); ok {
			return b, nil
		}
	}

	candidate := braceSlice(raw)
	if b, ok := parseObject(candidate); ok {
		return b, nil
	}

	cleaned := cleanJSONText(candidate)
	if b, ok := parseObject(cleaned); ok {
		return b, nil
	}

	if b, ok := parseObject(closeTruncated(cleaned)); ok {
		return b, nil
	}
	if b, ok := parseObject(closeTruncated(candidate)); ok {
		return b, nil
	}

	return nil, fmt.Errorf("%w: unparseable after repair", common.ErrParse)
}

// parseObject reports whether s decodes to a JSON object.
func parseObject(s string) ([]byte, bool) {
	s = strings.TrimSpace(s)
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	return []byte(s), true
}

// braceSlice returns the substring from the first '{' through the last '}',
// or the input unchanged when no such pair exists.
func braceSlice(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// cleanJSONText fixes the formatting mistakes models make most often:
// single-quoted strings, unquoted keys, trailing commas.
func cleanJSONText(s string) string {
	s = strings.ReplaceAll(s, "'", `"`)
	s = reUnquotedKey.ReplaceAllString(s, `$1"$2":`)
	s = reTrailingComma.ReplaceAllString(s, `$1`)
	return s
}

// closeTruncated closes an unterminated string and any unclosed braces or
// brackets, matching nesting order. Used for responses cut off mid-object.
func closeTruncated(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	out := s
	if inString {
		out += `"`
	}
	out = strings.TrimRight(out, " \t\r\n")
	out = strings.TrimSuffix(out, ",")
	for i := len(stack) - 1; i >= 0; i-- {
		out += string(stack[i])
	}
	return out
}
