// Package dedupe guards against the feed re-delivering the same raw
// message in quick succession.
package dedupe

import (
	"context"
	"sync"
)

// DefaultWindowSize is the number of recent payloads held for comparison.
const DefaultWindowSize = 5

// Deduper is a recent-window duplicate filter over raw message payloads.
// It is a cheap, approximate guard: payloads repeated after falling out of
// the window are accepted again.
type Deduper interface {
	// Accept reports whether payload should be processed. A payload that
	// exactly matches any entry in the recent window is rejected and the
	// window is left untouched; otherwise the payload is recorded, the
	// oldest entry is evicted if the window is full, and Accept returns
	// true.
	Accept(ctx context.Context, payload string) bool

	// Size returns the number of payloads currently in the window.
	Size() int

	// Reset clears the window.
	Reset()
}

// windowDeduper implements Deduper with a fixed-capacity FIFO ring.
type windowDeduper struct {
	mu     sync.Mutex
	window []string
	head   int
	count  int
}

// NewWindowDeduper creates a Deduper with the given options.
func NewWindowDeduper(opts ...Option) Deduper {
	d := &windowDeduper{
		window: make([]string, DefaultWindowSize),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *windowDeduper) Accept(_ context.Context, payload string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < d.count; i++ {
		if d.window[(d.head+i)%len(d.window)] == payload {
			return false
		}
	}

	if d.count == len(d.window) {
		// Overwrite the oldest slot.
		d.window[d.head] = payload
		d.head = (d.head + 1) % len(d.window)
		return true
	}

	d.window[(d.head+d.count)%len(d.window)] = payload
	d.count++
	return true
}

func (d *windowDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func (d *windowDeduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.head = 0
	d.count = 0
	for i := range d.window {
		d.window[i] = ""
	}
}
