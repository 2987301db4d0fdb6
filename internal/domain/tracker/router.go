package tracker

import (
	"context"
	"sync"

	"github.com/opstrack/opstrack/pkg/logger"
	"github.com/opstrack/opstrack/pkg/metrics"
)

// TrackedRouter records the lifecycle of one deployed router: pulled,
// first spawn through it, repeated spawn activity, and destruction. An
// instance never destroyed by session end is abandoned, which is normal.
type TrackedRouter struct {
	ID      string // provider device ID, empty until first activity
	OwnerID string
	PulledAt int64

	// FirstSpawn and Destroyed are epoch ms, zero while unset.
	FirstSpawn int64
	Destroyed  int64

	// Count is the number of spawn ticks, the first one included.
	Count int
}

// RouterTracker tracks router instances keyed by owner and device ID. At
// most one placement per owner awaits its first activity; a newer pull
// from the same owner supersedes the pending one.
type RouterTracker struct {
	mu      sync.Mutex
	routers []*TrackedRouter
	pending map[string]*TrackedRouter // owner -> awaiting first activity
	active  map[string]*TrackedRouter // device ID -> spawned instance
	log     logger.Logger
}

// NewRouterTracker creates an empty RouterTracker.
func NewRouterTracker() *RouterTracker {
	return &RouterTracker{
		pending: make(map[string]*TrackedRouter),
		active:  make(map[string]*TrackedRouter),
		log:     logger.Named("routers"),
	}
}

// Pull records a router placement by ownerID at ts. The device ID is not
// known until the first spawn tick arrives.
func (t *RouterTracker) Pull(ctx context.Context, ownerID string, ts int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.pending[ownerID]; ok {
		t.log.Debug(ctx, "pending router superseded",
			logger.String("owner", ownerID),
			logger.Int64("pulledAt", prev.PulledAt))
	}

	r := &TrackedRouter{OwnerID: ownerID, PulledAt: ts}
	t.routers = append(t.routers, r)
	t.pending[ownerID] = r
	metrics.UpdateTrackedRouters(len(t.routers))
}

// Activity records one spawn tick through the router identified by
// deviceID, owned by ownerID. The first tick promotes the owner's pending
// placement and stamps FirstSpawn. Ticks for devices that were never
// pulled are an invariant miss: logged and dropped.
func (t *RouterTracker) Activity(ctx context.Context, ownerID, deviceID string, ts int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.active[deviceID]; ok {
		r.Count++
		return true
	}

	r, ok := t.pending[ownerID]
	if !ok {
		t.log.Warn(ctx, "spawn tick for unknown router",
			logger.String("owner", ownerID),
			logger.String("device", deviceID))
		metrics.RecordCorrelationMiss()
		return false
	}

	delete(t.pending, ownerID)
	r.ID = deviceID
	r.FirstSpawn = ts
	r.Count = 1
	t.active[deviceID] = r
	return true
}

// Destroy marks the router identified by deviceID as destroyed at ts.
func (t *RouterTracker) Destroy(ctx context.Context, deviceID string, ts int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.active[deviceID]
	if !ok {
		t.log.Warn(ctx, "destroy for unknown router", logger.String("device", deviceID))
		metrics.RecordCorrelationMiss()
		return false
	}

	r.Destroyed = ts
	delete(t.active, deviceID)
	return true
}

// All returns a snapshot of every instance in pull order.
func (t *RouterTracker) All() []*TrackedRouter {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*TrackedRouter, len(t.routers))
	copy(out, t.routers)
	return out
}

// ByOwner returns a snapshot of ownerID's instances in pull order.
func (t *RouterTracker) ByOwner(ownerID string) []*TrackedRouter {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*TrackedRouter
	for _, r := range t.routers {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out
}

// Reset drops all tracked instances.
func (t *RouterTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routers = nil
	t.pending = make(map[string]*TrackedRouter)
	t.active = make(map[string]*TrackedRouter)
}
