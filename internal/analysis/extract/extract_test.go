package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const analysisText = "Emotional Tone:\nUplifting\nKey Themes:\n- Growth\n- Loss\n"

func TestSectionFirstLineAfterHeading(t *testing.T) {
	assert.Equal(t, "Uplifting", Section(analysisText, "Emotional Tone"))
	assert.Equal(t, "- Growth", Section(analysisText, "Key Themes"))
}

func TestSectionSameLineValue(t *testing.T) {
	assert.Equal(t, "8.5 out of 10", Section("Sentiment Score:   8.5 out of 10  \nNext: x", "Sentiment Score"))
}

func TestSectionMissing(t *testing.T) {
	assert.Equal(t, "", Section(analysisText, "Readability"))
	assert.Equal(t, "", Section("Readability:", "Readability"))
	assert.Equal(t, "", Section(analysisText, ""))
}

func TestSectionIsCaseSensitive(t *testing.T) {
	assert.Equal(t, "", Section(analysisText, "emotional tone"))
}

func TestSectionQuotesName(t *testing.T) {
	text := "Score (0-10):\n7\nScore 0-10:\n3"
	assert.Equal(t, "7", Section(text, "Score (0-10)"))
}

func TestListBetweenHeadings(t *testing.T) {
	assert.Equal(t, []string{"Growth", "Loss"}, List(analysisText, "Key Themes"))

	text := "Key Elements:\n- Clear protagonist\n* Rising tension\n\n  -  Satisfying end\nSuggestions:\n- Add detail"
	assert.Equal(t, []string{"Clear protagonist", "Rising tension", "Satisfying end"}, List(text, "Key Elements"))
	assert.Equal(t, []string{"Add detail"}, List(text, "Suggestions"))
}

func TestListMissing(t *testing.T) {
	assert.Empty(t, List(analysisText, "Suggestions"))
	assert.Empty(t, List("Suggestions:\n\n- \n*", "Suggestions"))
}

// A bullet that itself looks like a single-word heading ends the list early.
func TestListStopsAtWordColonLine(t *testing.T) {
	text := "Suggestions:\n- Tighten the opening\nNote: keep the ending\n- Vary sentences"
	assert.Equal(t, []string{"Tighten the opening"}, List(text, "Suggestions"))
}

func TestListMultiWordHeadingDoesNotTerminate(t *testing.T) {
	text := "Key Themes:\n- Growth\nEmotional Tone:\nCalm"
	assert.Equal(t, []string{"Growth", "Emotional Tone:", "Calm"}, List(text, "Key Themes"))
}

func TestHeadingsImplementsExtractor(t *testing.T) {
	var ex Extractor = Headings{}
	assert.Equal(t, "Uplifting", ex.Section(analysisText, "Emotional Tone"))
	assert.Equal(t, []string{"Growth", "Loss"}, ex.List(analysisText, "Key Themes"))
}
