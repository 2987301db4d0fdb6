package testevents

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/opstrack/opstrack/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "sim_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the feed simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Opstrack Feed Simulator
=======================

A local stand-in for the push event stream. Point the tracker's feed_url
at this process to exercise the full pipeline without live game traffic.

Usage:
  go run cmd/test-events/main.go [options]

Options:
  -addr string
        Listen address for the simulated stream (default ":9443")
  -characters int
        Number of simulated characters (default 12)
  -rate int
        Frames emitted per second (default 20)
  -seed int
        RNG seed; the same seed reproduces the same stream (default: clock)
  -duration duration
        How long to run; 0 runs until interrupted (default 0)
  -log string
        Log file for simulator output (default: sim_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run the simulator with default settings
  go run cmd/test-events/main.go

  # A short reproducible burst
  go run cmd/test-events/main.go -seed 7 -rate 50 -duration 30s

  # Point the tracker at it
  OPSTRACK_FEED_URL=ws://localhost:9443/streaming go run cmd/main.go
`)
}
