package service

import "errors"

var (
	// ErrNotStarted is returned when the service pipeline is not running.
	ErrNotStarted = errors.New("service not started")

	// ErrFeedNotConnected is returned when a session cannot start because
	// the push stream is down.
	ErrFeedNotConnected = errors.New("feed not connected")

	// ErrSessionActive is returned when a session is already running.
	ErrSessionActive = errors.New("session already active")

	// ErrNoSession is returned when no session is running.
	ErrNoSession = errors.New("no active session")
)
