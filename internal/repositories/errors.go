package repositories

import "errors"

var (
	// ErrNotFound reports a missing row.
	ErrNotFound = errors.New("not found")

	// ErrConflict reports a compare-and-set whose expected status no longer
	// matched the stored row.
	ErrConflict = errors.New("status conflict")

	// ErrDuplicateName reports a unique-name violation on campaign creation.
	ErrDuplicateName = errors.New("duplicate campaign name")
)

// TicketStatusFields are the columns written alongside a status transition.
// A nil FailureReason clears the stored reason; ExternalID is set-once and
// never overwrites an existing id.
type TicketStatusFields struct {
	ExternalID    *string
	FailureReason *string
}
