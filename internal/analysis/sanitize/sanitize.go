// Package sanitize turns raw language-model output into plain text.
//
// The pipeline stages run in a fixed order because the later ones (whitespace
// collapsing, JSON unwrapping) only behave once the earlier decoding steps have
// normalised the text.
package sanitize

import (
	"bytes"
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

var (
	thinkPattern     = regexp.MustCompile(`(?s)<think>.*?</think>`)
	unicodeEscape    = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)
	escapedNewline   = regexp.MustCompile(`\\n`)
	escapedChar      = regexp.MustCompile(`\\(["\\/bfnrt])`)
	headerMarks      = regexp.MustCompile(`#{1,6}\s*`)
	boldPattern      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern    = regexp.MustCompile(`\*([^*]+)\*`)
	fencedCode       = regexp.MustCompile("(?s)```.*?```")
	inlineCode       = regexp.MustCompile("`([^`]+)`")
	linkPattern      = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	whitespaceRun    = regexp.MustCompile(`[\s\v\p{Z}\x{85}\x{feff}]+`)
	horizontalSpaces = regexp.MustCompile(`[\t\f\v\r \p{Zs}\x{feff}]+`)
)

var escapeReplacements = map[string]string{
	`"`: `"`,
	`\`: `\`,
	`/`: `/`,
	"b": "\b",
	"f": "\f",
	"n": "\n",
	"r": "\r",
	"t": "\t",
}

// Clean runs the full pipeline and returns single-spaced, trimmed text.
// It never panics; unusable input yields "".
func Clean(input any) string {
	text, ok := toText(input)
	if !ok {
		return ""
	}
	return settle(text, cleanPass)
}

func cleanPass(text string) string {
	text = decode(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	return unwrapJSON(strings.TrimSpace(text))
}

// CleanStructured runs the same pipeline as Clean but keeps line breaks, only
// collapsing whitespace within each line. Heading-based extraction needs the
// line structure that Clean flattens away.
func CleanStructured(input any) string {
	text, ok := toText(input)
	if !ok {
		return ""
	}
	return settle(text, structuredPass)
}

func structuredPass(text string) string {
	text = decode(text)

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(horizontalSpaces.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return unwrapJSON(strings.Join(kept, "\n"))
}

// settle reapplies pass until the text stops changing, so nested encodings
// such as "&amp;amp;" decode fully in one call.
func settle(text string, pass func(string) string) string {
	limit := len(text) + 2
	for i := 0; i < limit; i++ {
		next := pass(text)
		if next == text {
			return text
		}
		text = next
	}
	return text
}

// decode applies stages one to six: think blocks, entities, unicode escapes,
// backslash escapes, blank lines and markdown.
func decode(text string) string {
	text = thinkPattern.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = html.UnescapeString(decodeUnicodeEscapes(text))
	text = escapedNewline.ReplaceAllString(text, "\n")
	text = escapedChar.ReplaceAllStringFunc(text, func(m string) string {
		return escapeReplacements[m[1:]]
	})
	text = dropBlankLines(text)
	return stripMarkdown(text)
}

func toText(input any) (string, bool) {
	switch v := input.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case []byte:
		return string(v), len(v) > 0
	case json.RawMessage:
		return objectText(v)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "", false
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return "", false
	}
	return objectText(raw)
}

// objectText unwraps a "response" string field, otherwise keeps the JSON text.
func objectText(raw []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil {
		if resp, ok := fields["response"]; ok {
			var s string
			if json.Unmarshal(resp, &s) == nil {
				return s, s != ""
			}
		}
	}
	return trimmed, true
}

func decodeUnicodeEscapes(text string) string {
	matches := unicodeEscape.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for i := 0; i < len(matches); i++ {
		m := matches[i]
		b.WriteString(text[last:m[0]])
		r := hexRune(text[m[2]:m[3]])

		// A high surrogate directly followed by a low surrogate escape forms one rune.
		if utf16.IsSurrogate(r) && i+1 < len(matches) && matches[i+1][0] == m[1] {
			next := hexRune(text[matches[i+1][2]:matches[i+1][3]])
			if pair := utf16.DecodeRune(r, next); pair != unicode.ReplacementChar {
				b.WriteRune(pair)
				last = matches[i+1][1]
				i++
				continue
			}
		}
		b.WriteRune(r)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func hexRune(hex string) rune {
	v, err := strconv.ParseUint(hex, 16, 16)
	if err != nil {
		return unicode.ReplacementChar
	}
	return rune(v)
}

func dropBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// stripMarkdown removes fenced blocks before inline code so that a fence is
// never half-consumed as an inline span.
func stripMarkdown(text string) string {
	text = headerMarks.ReplaceAllString(text, "")
	text = boldPattern.ReplaceAllString(text, "${1}")
	text = italicPattern.ReplaceAllString(text, "${1}")
	text = fencedCode.ReplaceAllString(text, "")
	text = inlineCode.ReplaceAllString(text, "${1}")
	return linkPattern.ReplaceAllString(text, "${1}")
}

// unwrapJSON replaces a whole-text JSON object or array with its payload.
// Anything that does not parse is returned unchanged.
func unwrapJSON(text string) string {
	if text == "" || (text[0] != '{' && text[0] != '[') {
		return text
	}

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return text
	}

	if obj, ok := parsed.(map[string]any); ok {
		for _, key := range []string{"response", "text", "content"} {
			if s, ok := truthyString(obj[key]); ok {
				return s
			}
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(text)); err != nil {
		return text
	}
	return compact.String()
}

func truthyString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		if !val {
			return "", false
		}
	case float64:
		if val == 0 {
			return "", false
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(raw), true
}
