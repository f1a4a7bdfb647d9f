package revision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/syllascan/syllascan/document"
	"github.com/syllascan/syllascan/llm"
)

// ChangeDescriptor records one applied change in the drafting reply.
type ChangeDescriptor struct {
	Recommendation string `json:"recommendation"`
	Location       string `json:"location"`
	Action         string `json:"action"`
	Preview        string `json:"preview"`
}

// revisionReply is the structured reply expected from the drafting
// collaborator.
type revisionReply struct {
	EditedText string             `json:"editedText"`
	Changes    []ChangeDescriptor `json:"changes"`
}

// parseRevisionReply validates the drafting collaborator's reply. The reply
// must parse as a single JSON object with a non-empty editedText; anything
// else is a revision failure. Missing optional changes default to an empty
// list, the only safe local recovery.
func parseRevisionReply(content string) (*revisionReply, error) {
	raw := llm.ExtractJSON(content)
	if raw == "" {
		return nil, newSerializationError(fmt.Errorf("no JSON object in response"))
	}

	var reply revisionReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, newSerializationError(err)
	}

	if strings.TrimSpace(reply.EditedText) == "" {
		return nil, newRevisionError("reply missing editedText", nil)
	}

	if reply.Changes == nil {
		reply.Changes = []ChangeDescriptor{}
	}

	return &reply, nil
}

// recommendationItem is one entry in a recommendations reply. Entries with
// missing fields are dropped or defaulted rather than rejected wholesale.
type recommendationItem struct {
	Category      string `json:"category"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	SuggestedText string `json:"suggestedText"`
	Priority      string `json:"priority"`
}

// ParseRecommendations extracts recommendation entries from an LLM reply.
// Accepts either a bare JSON array or an object with a "recommendations"
// field. Entries without a title are dropped; missing categories and
// priorities get safe defaults. maxItems bounds the result, 0 means no cap.
func ParseRecommendations(content, defaultCategory string, maxItems int) ([]document.Recommendation, error) {
	items, err := extractItems(content)
	if err != nil {
		return nil, err
	}

	var recs []document.Recommendation
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}

		category := item.Category
		if category == "" {
			category = defaultCategory
		}

		rec := document.NewRecommendation(category, item.Title, item.Description, document.Priority(item.Priority))
		rec.SuggestedText = item.SuggestedText
		recs = append(recs, rec)

		if maxItems > 0 && len(recs) == maxItems {
			break
		}
	}

	return recs, nil
}

func extractItems(content string) ([]recommendationItem, error) {
	if raw := llm.ExtractJSONArray(content); raw != "" {
		var items []recommendationItem
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			return items, nil
		}
	}

	raw := llm.ExtractJSON(content)
	if raw == "" {
		return nil, newSerializationError(fmt.Errorf("no JSON in response"))
	}

	var wrapper struct {
		Recommendations []recommendationItem `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		return nil, newSerializationError(err)
	}

	return wrapper.Recommendations, nil
}
