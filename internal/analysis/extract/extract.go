// Package extract pulls named sections out of loosely structured model output.
package extract

import (
	"regexp"
	"strings"
)

// Extractor reads named fields from cleaned model output. Missing fields come
// back empty, never as errors.
type Extractor interface {
	Section(text, name string) string
	List(text, name string) []string
}

// Headings extracts fields that follow "<name>:" headings. Names are matched
// case-sensitively and every call searches independently, so duplicate or
// nested occurrences are not reconciled.
type Headings struct{}

var _ Extractor = Headings{}

// listBoundary marks the start of the next single-word heading line.
// A bullet such as "Note: ..." also matches; the heading vocabulary depends
// on the prompt, so this is left as is.
var (
	listBoundary = regexp.MustCompile(`\n\w+:`)
	bulletPrefix = regexp.MustCompile(`^[\s*-]+`)
)

// Section returns the first non-blank line after the "<name>:" heading.
func (Headings) Section(text, name string) string {
	return Section(text, name)
}

// List returns the bullet lines between the "<name>:" heading and the next
// heading line or the end of text.
func (Headings) List(text, name string) []string {
	return List(text, name)
}

// Section is the package-level form of Headings.Section.
func Section(text, name string) string {
	if name == "" {
		return ""
	}
	pattern := regexp.MustCompile(regexp.QuoteMeta(name) + `:\s*([^\n]+)`)
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// List is the package-level form of Headings.List.
func List(text, name string) []string {
	if name == "" {
		return nil
	}
	heading := name + ":"
	idx := strings.Index(text, heading)
	if idx < 0 {
		return nil
	}

	body := strings.TrimLeft(text[idx+len(heading):], " \t\r\n\f\v")
	if loc := listBoundary.FindStringIndex(body); loc != nil {
		body = body[:loc[0]]
	}

	var items []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
