package llm

import (
	"fmt"

	"github.com/ppiankov/newsverify/internal/model"
	"github.com/ppiankov/newsverify/internal/validate"
)

// VerificationSystemPrompt frames every verification request
const VerificationSystemPrompt = "You are an expert in fact checking and source credibility analysis. " +
	"Give objective assessments, cite sources when possible, and state your level of confidence. " +
	"Be concise but precise in your evaluations."

// Prompt is a system+user message pair
type Prompt struct {
	System string
	User   string
}

// URLPrompt asks for an assessment of a scraped article. Only the first
// 1000 characters of the body are sent.
func URLPrompt(c *model.ExtractedContent) Prompt {
	user := fmt.Sprintf(`Analyze this news article and provide a structured assessment:

Domain: %s
Title: %s
Content: %s...

Please evaluate:
1. Source credibility (0-10)
2. Accuracy of the main claims
3. Signs of disinformation or fake news
4. Final recommendation
5. Confidence level in this analysis (%%)

Be concise and direct.`,
		validate.Sanitize(c.Domain, validate.MaxURLLength),
		validate.Sanitize(c.Title, 300),
		validate.Sanitize(c.Body, validate.URLPromptChars),
	)

	return Prompt{System: VerificationSystemPrompt, User: user}
}

// TextPrompt asks for an assessment of free text. Only the first 1500
// characters are sent.
func TextPrompt(text string) Prompt {
	user := fmt.Sprintf(`Analyze this news text:

Text: %s...

Please evaluate:
1. Accuracy of the main claims
2. Quality and coherence of the information
3. Signs of disinformation or fake news
4. Final recommendation
5. Confidence level in this analysis (%%)

Be concise and direct.`,
		validate.Sanitize(text, validate.TextPromptChars),
	)

	return Prompt{System: VerificationSystemPrompt, User: user}
}
