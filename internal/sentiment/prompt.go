package sentiment

import (
	"fmt"
	"unicode/utf8"
)

// SystemPrompt is sent as the system instruction on every call.
const SystemPrompt = `You are a sentiment analysis expert. Your task is to analyze text and extract emotional sentiment along with key topics.

You must always return a valid JSON response in the exact format specified. Do not include any additional text or explanation outside the JSON structure.`

// userPromptTemplate has exactly one slot, the analyzed text.
const userPromptTemplate = `Analyze the sentiment and extract keywords from the following text:

"%s"

Return your analysis as a JSON object with this exact structure:
{
  "sentiment": {
    "score": <float between 0 and 1, where 0 is most negative and 1 is most positive>,
    "type": "<one of: positive, negative, neutral>",
    "intensity": "<one of: weak, moderate, strong>"
  },
  "keywords": [<array of 3-7 most important words or short phrases from the text>]
}

Guidelines:
- Score: 0.0-0.33 = negative, 0.34-0.66 = neutral, 0.67-1.0 = positive
- Intensity: Based on how strongly the emotion is expressed
- Keywords: Extract the most meaningful terms, avoid common words
- Return ONLY the JSON object, no other text`

// UserPrompt fills the user template.
func UserPrompt(text string) string {
	return fmt.Sprintf(userPromptTemplate, text)
}

// Truncate cuts text to maxLen characters and appends "..." when it was
// longer.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	return string([]rune(text)[:maxLen]) + "..."
}
