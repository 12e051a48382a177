package ai

import "github.com/zhouzirui/storycraft/backend/internal/model/story"

// canned results used when mock mode is on, or as the development fallback

func mockAnalysis() *story.AnalysisResult {
	return &story.AnalysisResult{
		EmotionalTone:  "The story has a generally positive and uplifting emotional tone with moments of tension and resolution.",
		KeyThemes:      "Themes of personal growth, overcoming challenges, and self-discovery are present throughout the narrative.",
		Readability:    "The story is well-written with good sentence structure and vocabulary, suitable for a general audience.",
		SentimentScore: 8,
		EmotionalArc:   "The story has a positive emotional arc with a clear beginning, middle, and end.",
		KeyElements: []string{
			"Clear protagonist with defined goals",
			"Challenges that create tension",
			"Satisfying resolution",
		},
		Suggestions: []string{
			"Add more sensory details to enhance immersion",
			"Consider varying sentence structure for better flow",
			"Expand on the emotional journey of the main character",
		},
	}
}

func mockEnhance() *story.EnhanceResult {
	return &story.EnhanceResult{
		EnhancedContent: "This is an enhanced version of your story with improved flow and added details.",
	}
}

const mockTitle = "A Compelling Story Title"
