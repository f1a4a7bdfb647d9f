package revision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllascan/syllascan/document"
)

func challengeDoc(t *testing.T, store document.Store) *document.Document {
	t.Helper()
	doc := document.NewDocument("CS101", "students complete weekly assignments quizzes and final projects")
	doc.Status = document.StatusAnalyzed
	require.NoError(t, store.Create(context.Background(), doc))
	return doc
}

func TestChallengeOpen(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	stub := &scriptedCompleter{responses: []string{"How will students complete three projects in a ten-week term?"}}
	manager := NewChallengeManager(store, stub, nil)

	doc := challengeDoc(t, store)

	challenge, err := manager.Open(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.ChallengePending, challenge.Status)
	assert.NotEmpty(t, challenge.InitialQuestion)
	assert.Empty(t, challenge.Discussion)

	// A second open on the same document is rejected.
	_, err = manager.Open(ctx, doc.ID)
	require.ErrorIs(t, err, document.ErrInvalidTransition)
}

func TestChallengeFirstRespondNoDistillation(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	stub := &scriptedCompleter{responses: []string{
		"Opening question?",
		"That addresses pacing, but what about grading turnaround?",
	}}
	manager := NewChallengeManager(store, stub, nil)

	doc := challengeDoc(t, store)
	_, err := manager.Open(ctx, doc.ID)
	require.NoError(t, err)

	challenge, err := manager.Respond(ctx, doc.ID, "We stagger project deadlines across the term.")
	require.NoError(t, err)
	assert.Equal(t, document.ChallengeInProgress, challenge.Status)
	require.Len(t, challenge.Discussion, 1)
	assert.Equal(t, "We stagger project deadlines across the term.", challenge.Discussion[0].InstructorResponse)
	assert.NotEmpty(t, challenge.Discussion[0].AIResponse)

	// Open + one reply: no distillation call on the first exchange.
	assert.Equal(t, 2, stub.calls)

	stored, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Recommendations)
}

func TestChallengeSecondRespondDistills(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	stub := &scriptedCompleter{responses: []string{
		"Opening question?",
		"First reply.",
		"Second reply.",
		`[{"title": "Stagger deadlines formally", "description": "Put the rotation in the syllabus."},
		  {"title": "State grading turnaround", "description": "Commit to a feedback window."}]`,
	}}
	manager := NewChallengeManager(store, stub, nil)

	doc := challengeDoc(t, store)
	_, err := manager.Open(ctx, doc.ID)
	require.NoError(t, err)
	_, err = manager.Respond(ctx, doc.ID, "First answer.")
	require.NoError(t, err)
	_, err = manager.Respond(ctx, doc.ID, "Second answer.")
	require.NoError(t, err)

	stored, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, stored.Recommendations, 2)
	for _, rec := range stored.Recommendations {
		assert.Equal(t, "practicality", rec.Category)
		assert.Equal(t, document.RecommendationPending, rec.Status)
	}
	require.NotNil(t, stored.Challenge)
	assert.Len(t, stored.Challenge.Discussion, 2)
}

func TestChallengeRespondValidation(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	manager := NewChallengeManager(store, &scriptedCompleter{}, nil)

	doc := challengeDoc(t, store)

	// No challenge open yet.
	_, err := manager.Respond(ctx, doc.ID, "answer")
	require.ErrorIs(t, err, document.ErrNotFound)

	_, err = manager.Open(ctx, doc.ID)
	require.NoError(t, err)

	// Empty instructor response.
	_, err = manager.Respond(ctx, doc.ID, "")
	require.ErrorIs(t, err, document.ErrInvalidInput)
}

func TestChallengeRespondAfterCompleted(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	stub := &scriptedCompleter{responses: []string{"Opening question?"}}
	manager := NewChallengeManager(store, stub, nil)

	doc := challengeDoc(t, store)
	_, err := manager.Open(ctx, doc.ID)
	require.NoError(t, err)
	_, err = manager.Finalize(ctx, doc.ID)
	require.NoError(t, err)

	_, err = manager.Respond(ctx, doc.ID, "Too late.")
	require.ErrorIs(t, err, document.ErrInvalidTransition)
}

func TestChallengeFinalizeSummarizes(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	stub := &scriptedCompleter{responses: []string{
		"Opening question?",
		"First reply.",
		`[{"title": "Add a feedback policy", "description": "Grading turnaround is unstated."},
		  {"title": "Publish the project rotation", "description": "Deadline staggering is informal."}]`,
	}}
	manager := NewChallengeManager(store, stub, nil)

	doc := challengeDoc(t, store)
	_, err := manager.Open(ctx, doc.ID)
	require.NoError(t, err)
	_, err = manager.Respond(ctx, doc.ID, "First answer.")
	require.NoError(t, err)

	challenge, err := manager.Finalize(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.ChallengeCompleted, challenge.Status)

	stored, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, stored.Recommendations, 2)
	assert.Equal(t, document.ChallengeCompleted, stored.Challenge.Status)
}

func TestChallengeFinalizeKeepsExistingRecommendations(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	stub := &scriptedCompleter{responses: []string{"Opening question?"}}
	manager := NewChallengeManager(store, stub, nil)

	doc := challengeDoc(t, store)
	doc.Recommendations = append(doc.Recommendations,
		document.NewRecommendation("structure", "Existing", "Already here.", document.PriorityLow))
	require.NoError(t, store.Put(ctx, doc))

	_, err := manager.Open(ctx, doc.ID)
	require.NoError(t, err)

	_, err = manager.Finalize(ctx, doc.ID)
	require.NoError(t, err)

	// Only the open call: no summarization when recommendations exist.
	assert.Equal(t, 1, stub.calls)

	stored, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Recommendations, 1)
}
