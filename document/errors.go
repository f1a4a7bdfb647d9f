package document

import "errors"

// Error taxonomy for the engine. These sentinels are surfaced to callers as
// rejected operations and are never retried automatically.
var (
	// ErrNotFound is returned when a document does not exist in the store.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidInput is returned for malformed or missing required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned for an illegal status change.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNoAcceptedRecommendations is returned when orchestration is
	// attempted with nothing to apply.
	ErrNoAcceptedRecommendations = errors.New("no accepted recommendations")

	// ErrAlreadyInProgress is returned when a revision is requested while
	// another is still in flight for the same document.
	ErrAlreadyInProgress = errors.New("revision already in progress")
)
