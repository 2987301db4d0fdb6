package testevents

import "time"

// Config holds configuration for the feed simulator
type Config struct {
	Addr       string        // Listen address for the simulated push stream
	Characters int           // Number of simulated characters
	Rate       int           // Frames emitted per second
	Seed       int64         // RNG seed; 0 derives one from the clock
	Duration   time.Duration // How long to run; 0 runs until cancelled
	LogFile    string        // Log file for simulator output
	Verbose    bool          // Enable verbose logging
}

// Stats holds simulator statistics
type Stats struct {
	FramesEmitted int
	Deaths        int
	Revives       int
	Logins        int
	Connections   int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
