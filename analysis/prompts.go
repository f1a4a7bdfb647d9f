package analysis

import (
	"fmt"
	"strings"

	"github.com/syllascan/syllascan/document"
)

// analysisSystemPrompt seeds improvement recommendations for a newly
// analyzed syllabus.
const analysisSystemPrompt = `You are an academic reviewer analyzing a course syllabus.

Review the syllabus for structural completeness, assessment clarity,
workload realism and policy coverage. Produce concrete, actionable
recommendations; skip praise and generic advice.

You MUST output a single JSON array:

` + "```json" + `
[
  {
    "category": "structure|assessment|workload|policy|content",
    "title": "short imperative title",
    "description": "what to change and why",
    "suggestedText": "optional replacement prose",
    "priority": "low|medium|high|critical"
  }
]
` + "```"

// maxPromptChars bounds the syllabus text included in an analysis prompt.
const maxPromptChars = 8000

// BuildAnalysisPrompt frames a syllabus and its similarity findings for
// recommendation seeding. High-similarity findings are surfaced so the
// reviewer can recommend differentiation where overlap is a concern.
func BuildAnalysisPrompt(doc *document.Document, result SimilarityResult) string {
	var b strings.Builder

	if result.RiskLevel != RiskNone {
		fmt.Fprintf(&b, "Originality check: %s risk, highest overlap %d%% across %d matched documents.\n",
			result.RiskLevel, result.Overall, len(result.Matches))
		b.WriteString("Where overlap is high, recommend how to differentiate the syllabus.\n\n")
	}

	b.WriteString("## Syllabus\n\n")
	text := doc.Text
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars] + "\n[... truncated ...]"
	}
	b.WriteString(text)

	return b.String()
}
