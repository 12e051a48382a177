package ai

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zhouzirui/storycraft/backend/internal/analysis/extract"
	"github.com/zhouzirui/storycraft/backend/internal/analysis/sanitize"
	"github.com/zhouzirui/storycraft/backend/internal/model/story"
)

const maxTitleWords = 7

var (
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	titleQuotes   = regexp.MustCompile(`["'.]`)
	titleMarkdown = regexp.MustCompile("[*_#`]")
)

// ParseAnalysis maps cleaned, line-preserving model text onto the result fields.
func ParseAnalysis(text string, ex extract.Extractor) *story.AnalysisResult {
	return &story.AnalysisResult{
		EmotionalTone:  orDefault(ex.Section(text, "Emotional Tone"), story.DefaultEmotionalTone),
		KeyThemes:      orDefault(ex.Section(text, "Key Themes"), story.DefaultKeyThemes),
		Readability:    orDefault(ex.Section(text, "Readability"), story.DefaultReadability),
		SentimentScore: ParseScore(ex.Section(text, "Sentiment Score")),
		EmotionalArc:   ex.Section(text, "Emotional Arc"),
		KeyElements:    ex.List(text, "Key Elements"),
		Suggestions:    ex.List(text, "Suggestions"),
		KeyThemesList:  ex.List(text, "Key Themes"),
		CoreMoment:     ex.Section(text, "Core Moment"),
		Structure:      ex.Section(text, "Structure"),
		Transformation: ex.Section(text, "Transformation"),
	}
}

// ParseScore reads the leading number of s ("8.5/10" gives 8.5). Text without
// a leading number scores the default. Values are not clamped.
func ParseScore(s string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return story.DefaultSentimentScore
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return story.DefaultSentimentScore
	}
	return v
}

// CleanTitle turns raw model output into a title of at most seven
// title-cased words with no trailing punctuation.
func CleanTitle(raw any) string {
	title := sanitize.Clean(raw)
	title = titleQuotes.ReplaceAllString(title, "")
	title = titleMarkdown.ReplaceAllString(title, "")
	title = strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))

	words := make([]string, 0, maxTitleWords)
	for _, w := range strings.Split(title, " ") {
		if w == "" {
			continue
		}
		words = append(words, titleCase(w))
		if len(words) == maxTitleWords {
			break
		}
	}

	title = strings.TrimRightFunc(strings.Join(words, " "), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	if title == "" {
		return story.DefaultTitle
	}
	return title
}

func titleCase(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	return string(unicode.ToUpper(first)) + strings.ToLower(word[size:])
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
