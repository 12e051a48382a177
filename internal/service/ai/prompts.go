package ai

import "fmt"

// Sampling temperatures per operation.
const (
	analyzeTemperature = 0.7
	enhanceTemperature = 0.8
	titleTemperature   = 0.7
)

const analysisInstructions = `Analyze this story and provide key insights about its structure, themes, and emotional impact.
Focus on identifying the core message, emotional arc, and key elements that make the story compelling.
Return your analysis in a structured format with clear sections. Do not include any thinking process or analysis in the response.`

const enhanceInstructions = `Enhance this story to make it more engaging and vivid while preserving its original meaning and style.
Focus on adding sensory details, improving flow, and strengthening emotional impact.
Return ONLY the enhanced story with NO additional commentary, thinking, or analysis.
Do not include any tags like <think> or any other markdown. Just return the enhanced story text.`

const titleInstructions = `Generate a concise, engaging title (1-7 words) for this story.
Return ONLY the title with NO additional text, formatting, or analysis.
Do not use quotes, periods, or any other punctuation.`

// AnalysisPrompt builds the analysis prompt for content.
func AnalysisPrompt(content string) string {
	return fmt.Sprintf("%s\n\n%s", analysisInstructions, content)
}

// EnhancePrompt builds the enhancement prompt for content.
func EnhancePrompt(content string) string {
	return fmt.Sprintf("%s\n\n%s", enhanceInstructions, content)
}

// TitlePrompt builds the title prompt for content.
func TitlePrompt(content string) string {
	return fmt.Sprintf("%s\n\n%s", titleInstructions, content)
}
