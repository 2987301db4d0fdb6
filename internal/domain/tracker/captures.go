package tracker

import (
	"sync"

	"github.com/opstrack/opstrack/internal/domain/events"
)

// Capture is one facility capture or defense credited to a tracked player.
type Capture struct {
	FacilityID  string
	OutfitID    string
	CharacterID string
	ZoneID      string
	Timestamp   int64
	Defended    bool
}

// CaptureLog accumulates facility events for session reporting.
type CaptureLog struct {
	mu       sync.Mutex
	captures []Capture
}

// NewCaptureLog creates an empty CaptureLog.
func NewCaptureLog() *CaptureLog {
	return &CaptureLog{}
}

// Record appends the capture or defend event ev to the log.
func (l *CaptureLog) Record(ev events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.captures = append(l.captures, Capture{
		FacilityID:  ev.FacilityID,
		OutfitID:    ev.OutfitID,
		CharacterID: ev.SourceID,
		ZoneID:      ev.ZoneID,
		Timestamp:   ev.Timestamp,
		Defended:    ev.Type == events.TypeDefend,
	})
}

// All returns a snapshot of the recorded captures in arrival order.
func (l *CaptureLog) All() []Capture {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Capture, len(l.captures))
	copy(out, l.captures)
	return out
}

// Reset drops all recorded captures.
func (l *CaptureLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.captures = nil
}
