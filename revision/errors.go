package revision

import (
	"errors"
	"fmt"
)

// RevisionError reports that the drafting collaborator returned an unusable
// response. The document is surfaced to the caller for marking status=error
// with the truncated reason; manual retry is required, the engine never
// retries a bad draft automatically.
type RevisionError struct {
	Reason string
	err    error
}

func (e *RevisionError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("revision failed: %s: %v", e.Reason, e.err)
	}
	return fmt.Sprintf("revision failed: %s", e.Reason)
}

func (e *RevisionError) Unwrap() error { return e.err }

// newRevisionError creates a RevisionError with an optional cause.
func newRevisionError(reason string, err error) error {
	return &RevisionError{Reason: reason, err: err}
}

// newSerializationError marks a response that could not be parsed as
// structured data. Treated as a subtype of revision failure: there is no
// partial-credit parsing.
func newSerializationError(err error) error {
	return &RevisionError{Reason: "response is not valid structured data", err: err}
}

// IsRevisionFailed reports whether err is a revision failure.
func IsRevisionFailed(err error) bool {
	var re *RevisionError
	return errors.As(err, &re)
}
