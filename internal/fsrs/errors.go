package fsrs

import "errors"

// Sentinel errors for scheduler preconditions and configuration.
// Check with errors.Is.
var (
	ErrNoCard         = errors.New("fsrs: no card supplied")
	ErrTimeReversal   = errors.New("fsrs: review time precedes the card's last review")
	ErrBadRetention   = errors.New("fsrs: request retention must be in (0,1)")
	ErrBadMaxInterval = errors.New("fsrs: maximum interval must be at least 1 day")
)
