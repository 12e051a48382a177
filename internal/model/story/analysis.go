package story

// AnalysisResult is the typed result of a story analysis. The first four
// fields are always set; the rest are older fields kept for existing clients.
type AnalysisResult struct {
	EmotionalTone  string  `json:"emotional_tone"`
	KeyThemes      string  `json:"key_themes"`
	Readability    string  `json:"readability"`
	SentimentScore float64 `json:"sentiment_score"`

	EmotionalArc   string   `json:"emotionalArc,omitempty"`
	KeyElements    []string `json:"keyElements,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
	KeyThemesList  []string `json:"keyThemes,omitempty"`
	CoreMoment     string   `json:"coreMoment,omitempty"`
	Structure      string   `json:"structure,omitempty"`
	Transformation string   `json:"transformation,omitempty"`
}

// Fallbacks for sections the model did not produce.
const (
	DefaultEmotionalTone  = "Neutral"
	DefaultKeyThemes      = "No key themes identified"
	DefaultReadability    = "Standard"
	DefaultSentimentScore = 5.0
	DefaultTitle          = "Untitled Story"
)

// EnhanceResult wraps an enhanced story body.
type EnhanceResult struct {
	EnhancedContent string `json:"enhancedContent"`
}

// TitleResult wraps a generated title.
type TitleResult struct {
	Title string `json:"title"`
}
