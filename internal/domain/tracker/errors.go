package tracker

import "errors"

var (
	// ErrNoSender indicates a roster without a transport to subscribe on.
	ErrNoSender = errors.New("roster has no transport sender")

	// ErrLookupFailed indicates the enrichment lookup could not complete.
	ErrLookupFailed = errors.New("identity lookup failed")
)
