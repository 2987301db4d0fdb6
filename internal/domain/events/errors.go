package events

import "errors"

var (
	// ErrMalformedMessage indicates a payload that is not a valid wire envelope.
	ErrMalformedMessage = errors.New("malformed feed message")

	// ErrBusClosed indicates a publish after the bus was shut down.
	ErrBusClosed = errors.New("event bus closed")
)
