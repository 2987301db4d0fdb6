package testevents

import (
	"context"
	"strings"
	"time"

	"github.com/opstrack/opstrack/pkg/logger"
)

// Run starts the simulated push stream and emits frames at the
// configured rate until the context or duration ends.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	log := logger.Get()
	log.Info(ctx, "starting feed simulator",
		logger.String("addr", config.Addr),
		logger.Int("characters", config.Characters),
		logger.Int("rate", config.Rate),
		logger.Int64("seed", config.Seed),
		logger.String("duration", config.Duration.String()))

	gen := NewGenerator(config.Seed, config.Characters)
	log.Info(ctx, "simulated cast",
		logger.String("characters", strings.Join(gen.CharacterIDs(), ",")))

	server := NewServer(config.Addr)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()
	defer server.Close()

	if config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Duration)
		defer cancel()
	}

	interval := time.Second / time.Duration(max(config.Rate, 1))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			stats.EndTime = time.Now()
			stats.Duration = stats.EndTime.Sub(stats.StartTime)
			log.Info(context.Background(), "feed simulator stopped",
				logger.Int("framesEmitted", stats.FramesEmitted),
				logger.Int("deaths", stats.Deaths),
				logger.Int("revives", stats.Revives),
				logger.Int("logins", stats.Logins),
				logger.String("duration", stats.Duration.String()))
			return nil
		case err := <-serverErr:
			return err
		case <-ticker.C:
			if server.ConnectionCount() == 0 {
				continue
			}
			server.Broadcast(gen.Next(stats))
			stats.FramesEmitted++
		}
	}
}
