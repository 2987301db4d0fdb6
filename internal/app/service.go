// Package service composes the feed transport, ingestion pipeline, and
// report generation into the running tracker, and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opstrack/opstrack/internal/adapters/feed"
	"github.com/opstrack/opstrack/internal/adapters/http/api"
	"github.com/opstrack/opstrack/internal/adapters/ingest"
	"github.com/opstrack/opstrack/internal/adapters/lookup"
	"github.com/opstrack/opstrack/internal/domain/dedupe"
	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/report"
	"github.com/opstrack/opstrack/internal/domain/tracker"
	"github.com/opstrack/opstrack/pkg/logger"
	"github.com/opstrack/opstrack/pkg/metrics"
)

// Feed is the transport surface the service drives. The websocket client
// satisfies it; tests substitute a scripted implementation.
type Feed interface {
	Connect(ctx context.Context) error
	Connected() bool
	Send(v any) error
	Close() error
}

// Service implements the API dependencies for the tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	feed       Feed
	queue      ingest.Queue
	deduper    dedupe.Deduper
	dispatcher *ingest.Dispatcher
	bus        *events.Bus
	store      *tracker.Store
	roster     *tracker.Roster
	routers    *tracker.RouterTracker
	captures   *tracker.CaptureLog
	resolver   lookup.Resolver
	generator  *report.Generator

	// Configuration
	feedURL            string
	serviceID          string
	worldID            string
	queueSize          int
	dedupeWindow       int
	batchSize          int
	reviveWindowMS     int64
	trendBucketSeconds int
	minKills           int

	// State
	started      bool
	sessionID    string
	sessionStart int64
	sessionStop  int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFeedURL sets the push stream endpoint.
func WithFeedURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.feedURL = url
		}
	}
}

// WithServiceID sets the census service ID sent on connect.
func WithServiceID(id string) Option {
	return func(s *Service) {
		s.serviceID = id
	}
}

// WithWorldID sets the world scope for subscriptions.
func WithWorldID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.worldID = id
		}
	}
}

// WithQueueSize sets the maximum size of the ingest queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeWindow sets the size of the duplicate frame window.
func WithDedupeWindow(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeWindow = size
		}
	}
}

// WithBatchSize sets the identity count per subscription request.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithReviveWindowSeconds sets the death-to-revive matching window.
func WithReviveWindowSeconds(seconds int) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.reviveWindowMS = int64(seconds) * 1000
		}
	}
}

// WithTrendBucketSeconds sets the trend series window width.
func WithTrendBucketSeconds(seconds int) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.trendBucketSeconds = seconds
		}
	}
}

// WithMinKills sets the sample floor for gated ratios.
func WithMinKills(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minKills = n
		}
	}
}

// WithFeed sets a custom feed transport for the service.
func WithFeed(f Feed) Option {
	return func(s *Service) {
		if f != nil {
			s.feed = f
		}
	}
}

// WithResolver sets a custom metadata resolver for the service.
func WithResolver(r lookup.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		feedURL:            "wss://push.planetside2.com/streaming",
		worldID:            "17",
		queueSize:          100_000,
		dedupeWindow:       dedupe.DefaultWindowSize,
		batchSize:          tracker.DefaultBatchSize,
		reviveWindowMS:     40_000,
		trendBucketSeconds: 60,
		minKills:           25,
		logger:             nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the pipeline and connects the feed. A connect failure
// is not fatal; the stream can come up later and session start rechecks it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting tracker service...")

	s.store = tracker.NewStore()
	s.routers = tracker.NewRouterTracker()
	s.captures = tracker.NewCaptureLog()
	s.bus = events.NewBus()
	s.deduper = dedupe.NewWindowDeduper(
		dedupe.WithWindowSize(s.dedupeWindow),
	)
	s.queue = ingest.NewInMemoryQueue(
		ingest.WithCapacity(s.queueSize),
	)
	s.dispatcher = ingest.NewDispatcher(
		ingest.WithQueue(s.queue),
		ingest.WithDeduper(s.deduper),
		ingest.WithBus(s.bus),
		ingest.WithStore(s.store),
		ingest.WithRouters(s.routers),
		ingest.WithCaptures(s.captures),
	)
	if s.resolver == nil {
		s.resolver = lookup.NewStaticResolver()
	}
	if s.feed == nil {
		s.feed = feed.NewClient(
			feed.WithURL(s.feedURL),
			feed.WithServiceID(s.serviceID),
			feed.WithHandler(s.OnMessage),
		)
	}
	s.roster = tracker.NewRoster(s.store,
		tracker.WithSender(s.feed),
		tracker.WithResolver(s.resolver),
		tracker.WithBatchSize(s.batchSize),
		tracker.WithWorldID(s.worldID),
	)
	s.generator = report.NewGenerator(s.store,
		report.WithResolver(s.resolver),
		report.WithRouters(s.routers),
		report.WithCaptures(s.captures),
		report.WithMinKills(s.minKills),
		report.WithTrendBucketSeconds(s.trendBucketSeconds),
		report.WithReviveWindow(s.reviveWindowMS),
	)

	s.dispatcher.Start(ctx)

	if err := s.feed.Connect(ctx); err != nil {
		s.logger.Warn(ctx, "feed not connected at startup",
			logger.String("url", s.feedURL),
			logger.Error(err),
		)
	}

	s.started = true
	s.logger.Info(ctx, "tracker service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeWindow", s.dedupeWindow),
		logger.Bool("connected", s.feed.Connected()),
	)

	return nil
}

// Stop gracefully shuts down the service. The feed closes first so no new
// frames arrive, then the dispatcher drains what is already queued.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping tracker service...")

	if s.feed != nil {
		if err := s.feed.Close(); err != nil {
			s.logger.Warn(context.Background(), "feed close failed", logger.Error(err))
		}
	}
	if s.dispatcher != nil {
		s.dispatcher.Stop()
	}

	s.started = false
	s.logger.Info(context.Background(), "tracker service stopped")
}

// OnMessage enqueues one inbound feed frame for dispatch. Frames that do
// not fit the queue are dropped with an error count rather than blocking
// the reader.
func (s *Service) OnMessage(channel string, payload []byte) {
	if !s.queue.Enqueue(context.Background(), ingest.RawMessage{Channel: channel, Payload: payload}) {
		metrics.RecordQueueEnqueueError()
	}
}

// StartSession begins a tracking session. The feed must be connected; one
// reconnect attempt is made before giving up. Identities already online
// get their join time stamped from the session start.
func (s *Service) StartSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if s.sessionID != "" && s.sessionStop == 0 {
		return ErrSessionActive
	}
	if !s.feed.Connected() {
		if err := s.feed.Connect(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrFeedNotConnected, err)
		}
	}

	s.sessionID = uuid.NewString()
	s.sessionStart = time.Now().UnixMilli()
	s.sessionStop = 0
	s.store.StampJoinTimes(s.sessionStart)

	s.logger.Info(ctx, "session started",
		logger.String("sessionID", s.sessionID),
		logger.Int("tracked", s.store.Len()),
	)
	return nil
}

// StopSession stamps the session end and finalizes tracked state. Reports
// stay available after stop.
func (s *Service) StopSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionID == "" || s.sessionStop != 0 {
		return ErrNoSession
	}

	s.sessionStop = time.Now().UnixMilli()
	s.store.Finalize()

	s.logger.Info(ctx, "session stopped",
		logger.String("sessionID", s.sessionID),
		logger.Int64("durationMs", s.sessionStop-s.sessionStart),
	)
	return nil
}

// AddPlayers subscribes identities to the roster.
func (s *Service) AddPlayers(ctx context.Context, ids []string) (tracker.SubscriptionResult, error) {
	s.mu.RLock()
	roster := s.roster
	s.mu.RUnlock()

	if roster == nil {
		return tracker.SubscriptionResult{}, ErrNotStarted
	}
	res, err := roster.Subscribe(ctx, ids)
	if err != nil {
		return res, err
	}
	metrics.UpdateTrackedPlayers(s.store.Len())
	return res, nil
}

// PersonalReport builds the report for one identity.
func (s *Service) PersonalReport(ctx context.Context, characterID string) (*report.PersonalReport, error) {
	s.mu.RLock()
	gen := s.generator
	s.mu.RUnlock()

	if gen == nil {
		return nil, ErrNotStarted
	}
	return gen.Personal(ctx, characterID)
}

// SessionReport builds the full session report. A still-running session
// is reported up to the current moment.
func (s *Service) SessionReport(ctx context.Context) (*report.SessionReport, error) {
	s.mu.RLock()
	gen := s.generator
	startedAt := s.sessionStart
	stoppedAt := s.sessionStop
	s.mu.RUnlock()

	if gen == nil {
		return nil, ErrNotStarted
	}
	if stoppedAt == 0 {
		stoppedAt = time.Now().UnixMilli()
	}
	return gen.Session(ctx, startedAt, stoppedAt)
}

// Status reports the current service state.
func (s *Service) Status(ctx context.Context) api.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := api.Status{}
	if !s.started {
		return st
	}

	st.Connected = s.feed.Connected()
	st.Tracking = s.sessionID != "" && s.sessionStop == 0
	st.SessionID = s.sessionID
	st.TrackedPlayers = s.store.Len()
	st.OnlinePlayers = s.store.Online()

	metrics.UpdateTrackedPlayers(st.TrackedPlayers)
	metrics.UpdateOnlinePlayers(st.OnlinePlayers)
	metrics.UpdateQueueSize(s.queue.Len(ctx))
	return st
}

// Bus exposes the event bus for in-process subscribers.
func (s *Service) Bus() *events.Bus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bus
}
