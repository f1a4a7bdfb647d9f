package revision

import (
	"fmt"
	"strings"

	"github.com/syllascan/syllascan/document"
)

// revisionSystemPrompt is the system prompt for the drafting collaborator.
const revisionSystemPrompt = `You are an academic editor revising a course syllabus.

You receive the full syllabus text and a set of instructor-approved change
requests. Apply every change request in one coherent revision: preserve the
document's voice and structure, integrate the changes so they read naturally
together, and never drop content that no change request touches.

You MUST output a single JSON object:

` + "```json" + `
{
  "editedText": "the complete revised syllabus text",
  "changes": [
    {
      "recommendation": "title of the change request applied",
      "location": "where in the document it was applied",
      "action": "what was done",
      "preview": "a short excerpt of the revised passage"
    }
  ]
}
` + "```" + `

"editedText" is required and must contain the entire revised document, not a
fragment or a summary. "changes" is optional but strongly encouraged.`

// BuildRevisionPrompt describes the original text and every accepted
// recommendation in one consolidated request. Batching preserves
// cross-recommendation context and bounds latency and cost.
func BuildRevisionPrompt(original string, accepted []document.Recommendation) string {
	var b strings.Builder

	b.WriteString("## Approved change requests\n\n")
	for i, rec := range accepted {
		fmt.Fprintf(&b, "%d. [%s] %s (%s priority)\n", i+1, rec.Category, rec.Title, rec.Priority)
		fmt.Fprintf(&b, "   %s\n", rec.Description)
		if rec.SuggestedText != "" {
			fmt.Fprintf(&b, "   Suggested text: %s\n", rec.SuggestedText)
		}
	}

	b.WriteString("\n## Syllabus\n\n")
	b.WriteString(original)

	return b.String()
}

// commentReplySystemPrompt guides contextual replies to instructor comments.
const commentReplySystemPrompt = `You are an academic advisor discussing a proposed syllabus change
with the instructor who owns the course. The instructor has commented on one
of your recommendations. Reply conversationally and concretely: address the
comment, explain the reasoning behind the recommendation, and offer an
adjusted approach if the comment reveals a real constraint. Plain text, no
JSON, at most two short paragraphs.`

// BuildCommentReplyPrompt frames an instructor comment for a reply.
func BuildCommentReplyPrompt(docText string, rec document.Recommendation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Recommendation: [%s] %s\n%s\n\n", rec.Category, rec.Title, rec.Description)
	fmt.Fprintf(&b, "Instructor comment: %s\n\n", rec.InstructorComment)
	b.WriteString("Syllabus for context:\n\n")
	b.WriteString(clipText(docText, 6000))

	return b.String()
}

// challengeQuestionSystemPrompt opens a challenge dialogue.
const challengeQuestionSystemPrompt = `You are reviewing a course syllabus for practical viability.
Pose ONE pointed question to the instructor that challenges the weakest
aspect of the syllabus as written: workload realism, assessment alignment,
schedule feasibility, or prerequisite fit. One or two sentences, plain text.`

// challengeReplySystemPrompt continues a challenge dialogue.
const challengeReplySystemPrompt = `You are in an ongoing dialogue with an instructor about their
syllabus. Respond to their latest answer: acknowledge what it resolves, then
press on what remains unconvincing or raise the next most important concern.
Plain text, at most two short paragraphs.`

// BuildChallengeReplyPrompt frames the dialogue history plus the new
// instructor response.
func BuildChallengeReplyPrompt(docText string, challenge *document.ChallengeState, instructorResponse string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Opening question: %s\n\n", challenge.InitialQuestion)
	for i, round := range challenge.Discussion {
		fmt.Fprintf(&b, "Round %d instructor: %s\n", i+1, round.InstructorResponse)
		fmt.Fprintf(&b, "Round %d reviewer: %s\n\n", i+1, round.AIResponse)
	}
	fmt.Fprintf(&b, "Latest instructor response: %s\n\n", instructorResponse)
	b.WriteString("Syllabus for context:\n\n")
	b.WriteString(clipText(docText, 6000))

	return b.String()
}

// distillSystemPrompt extracts supplementary recommendations from a
// challenge discussion.
const distillSystemPrompt = `You distill concrete syllabus improvements from a review dialogue.

Given the discussion so far, produce 1 to 3 actionable recommendations that
follow from points the instructor has conceded or left unresolved.

You MUST output a single JSON array:

` + "```json" + `
[
  {
    "title": "short imperative title",
    "description": "what to change and why",
    "suggestedText": "optional replacement prose",
    "priority": "low|medium|high|critical"
  }
]
` + "```"

// BuildDistillPrompt frames the discussion for distillation.
func BuildDistillPrompt(challenge *document.ChallengeState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Opening question: %s\n\n", challenge.InitialQuestion)
	for i, round := range challenge.Discussion {
		fmt.Fprintf(&b, "Round %d instructor: %s\n", i+1, round.InstructorResponse)
		fmt.Fprintf(&b, "Round %d reviewer: %s\n\n", i+1, round.AIResponse)
	}

	return b.String()
}

// summarizeSystemPrompt turns the tail of a dialogue into compact
// recommendations at finalize time.
const summarizeSystemPrompt = `You summarize the outcome of a syllabus review dialogue.

Given the reviewer's final remarks, produce at most 6 compact
recommendations covering every improvement still worth making.

You MUST output a single JSON array:

` + "```json" + `
[
  {
    "title": "short imperative title",
    "description": "what to change and why",
    "priority": "low|medium|high|critical"
  }
]
` + "```"

// BuildSummarizePrompt frames the last AI replies for summarization.
func BuildSummarizePrompt(replies []string) string {
	var b strings.Builder

	b.WriteString("Reviewer remarks, oldest first:\n\n")
	for i, reply := range replies {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, reply)
	}

	return b.String()
}

// clipText bounds prompt context so one oversized syllabus cannot blow the
// context budget.
func clipText(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "\n[... truncated ...]"
}
