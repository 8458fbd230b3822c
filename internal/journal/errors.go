package journal

import (
	"errors"
	"fmt"
)

// Sentinels for the ingest error taxonomy. Handlers map them to HTTP
// statuses at the boundary; nothing below the transport layer knows about
// status codes.
var (
	// ErrValidation marks missing or malformed request fields. No store
	// access happens once it is raised.
	ErrValidation = errors.New("invalid request")
	// ErrNotFound marks a close/execute event for a ticket the ledger has
	// never seen.
	ErrNotFound = errors.New("ticket not found")
	// ErrDuplicate marks a create for an already-recorded ticket. The
	// chosen policy is idempotent success: callers report it as benign and
	// nothing is rewritten.
	ErrDuplicate = errors.New("ticket already recorded")
)

func invalidf(format string, v ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, v...))
}
