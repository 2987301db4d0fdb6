package feed

import "errors"

var (
	// ErrNotConnected indicates a send before Connect succeeded.
	ErrNotConnected = errors.New("feed not connected")

	// ErrAlreadyConnected indicates a second Connect on a live client.
	ErrAlreadyConnected = errors.New("feed already connected")

	// ErrConnectFailed indicates a channel failed to dial.
	ErrConnectFailed = errors.New("feed connect failed")

	// ErrSendBufferFull indicates outbound backpressure.
	ErrSendBufferFull = errors.New("feed send buffer full")
)
