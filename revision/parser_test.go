package revision

import (
	"testing"

	"github.com/syllascan/syllascan/document"
)

func TestParseRevisionReply(t *testing.T) {
	reply, err := parseRevisionReply("Here is the revision:\n```json\n{\n  \"editedText\": \"Revised syllabus body.\",\n  \"changes\": [{\"recommendation\": \"Add schedule\", \"location\": \"top\", \"action\": \"inserted\", \"preview\": \"Week 1 ...\"}]\n}\n```")
	if err != nil {
		t.Fatalf("parseRevisionReply: %v", err)
	}
	if reply.EditedText != "Revised syllabus body." {
		t.Errorf("editedText = %q", reply.EditedText)
	}
	if len(reply.Changes) != 1 || reply.Changes[0].Recommendation != "Add schedule" {
		t.Errorf("changes = %+v", reply.Changes)
	}
}

func TestParseRevisionReplyBareObject(t *testing.T) {
	reply, err := parseRevisionReply(`{"editedText": "Body."}`)
	if err != nil {
		t.Fatalf("parseRevisionReply: %v", err)
	}
	if reply.EditedText != "Body." {
		t.Errorf("editedText = %q", reply.EditedText)
	}
	if reply.Changes == nil || len(reply.Changes) != 0 {
		t.Errorf("missing changes should default to an empty list, got %#v", reply.Changes)
	}
}

func TestParseRevisionReplyFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no JSON at all", "I rewrote the syllabus as you asked."},
		{"malformed JSON", `{"editedText": "unterminated`},
		{"missing editedText", `{"changes": []}`},
		{"blank editedText", `{"editedText": "   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRevisionReply(tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsRevisionFailed(err) {
				t.Errorf("expected a revision failure, got %v", err)
			}
		})
	}
}

func TestParseRecommendationsArray(t *testing.T) {
	content := "```json\n[\n  {\"category\": \"assessment\", \"title\": \"Weight the final\", \"description\": \"State percentages.\", \"priority\": \"high\"},\n  {\"title\": \"Untitled category\", \"description\": \"No category given.\"},\n  {\"description\": \"No title, dropped.\"}\n]\n```"

	recs, err := ParseRecommendations(content, "practicality", 0)
	if err != nil {
		t.Fatalf("ParseRecommendations: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("recommendations = %d, want 2", len(recs))
	}

	if recs[0].Category != "assessment" || recs[0].Priority != document.PriorityHigh {
		t.Errorf("first rec = %+v", recs[0])
	}
	if recs[1].Category != "practicality" {
		t.Errorf("default category = %q, want practicality", recs[1].Category)
	}
	if recs[1].Priority != document.PriorityMedium {
		t.Errorf("default priority = %s, want medium", recs[1].Priority)
	}
	for _, rec := range recs {
		if rec.Status != document.RecommendationPending {
			t.Errorf("status = %s, want pending", rec.Status)
		}
	}
}

func TestParseRecommendationsWrapperObject(t *testing.T) {
	content := `{"recommendations": [{"title": "Add office hours", "description": "None listed."}]}`

	recs, err := ParseRecommendations(content, "content", 0)
	if err != nil {
		t.Fatalf("ParseRecommendations: %v", err)
	}
	if len(recs) != 1 || recs[0].Title != "Add office hours" {
		t.Errorf("recs = %+v", recs)
	}
}

func TestParseRecommendationsCap(t *testing.T) {
	content := `[{"title": "a"}, {"title": "b"}, {"title": "c"}, {"title": "d"}]`

	recs, err := ParseRecommendations(content, "practicality", 3)
	if err != nil {
		t.Fatalf("ParseRecommendations: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("recommendations = %d, want capped at 3", len(recs))
	}
}

func TestParseRecommendationsNoJSON(t *testing.T) {
	_, err := ParseRecommendations("no structured content here", "content", 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRevisionFailed(err) {
		t.Errorf("expected a revision failure, got %v", err)
	}
}
