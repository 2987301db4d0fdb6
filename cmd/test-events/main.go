package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/opstrack/opstrack/internal/testevents"
)

// Default configuration constants.
const (
	defaultAddr       = ":9443"
	defaultCharacters = 12
	defaultRate       = 20
)

func main() {
	var (
		addr       = flag.String("addr", defaultAddr, "Listen address for the simulated stream")
		characters = flag.Int("characters", defaultCharacters, "Number of simulated characters")
		rate       = flag.Int("rate", defaultRate, "Frames emitted per second")
		seed       = flag.Int64("seed", 0, "RNG seed; the same seed reproduces the same stream")
		duration   = flag.Duration("duration", 0, "How long to run; 0 runs until interrupted")
		logFile    = flag.String("log", "", "Log file for simulator output (default: sim_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	// Setup logging
	if err := testevents.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Stop on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create simulator configuration
	config := &testevents.Config{
		Addr:       *addr,
		Characters: *characters,
		Rate:       *rate,
		Seed:       *seed,
		Duration:   *duration,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the simulator
	if err := testevents.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulator failed: " + err.Error() + "\n")
		return
	}
}
