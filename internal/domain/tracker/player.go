// Package tracker maintains the session state: the per-player event logs
// and derived counters, the subscription roster, the deployable lifecycle
// records, and the facility capture log.
package tracker

import (
	"sync"

	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
	"github.com/opstrack/opstrack/internal/domain/statmap"
)

// TrackedPlayer is the state record for one subscribed identity. The event
// log is append ordered and exclusively owned by the record; derived stats
// accumulate in Stats. Records are created at subscription time and only
// cleared at session reset, never destroyed mid-session.
type TrackedPlayer struct {
	CharacterID string
	Name        string
	FactionID   string
	OutfitTag   string

	Online        bool
	JoinTime      int64 // epoch ms, stamped on login or session start
	SecondsOnline float64

	Events []events.Event
	Stats  *statmap.StatMap
}

// NewTrackedPlayer creates a record with an empty log and a StatMap wired
// to the compound experience chain.
func NewTrackedPlayer(characterID string) *TrackedPlayer {
	return &TrackedPlayer{
		CharacterID: characterID,
		Name:        "Unknown " + characterID,
		Stats:       statmap.New(statmap.WithChain(gamedata.Parents)),
	}
}

// Store holds all tracked player records for the session.
//
// Mutation arrives from the single dispatcher goroutine; the lock exists so
// report reads can snapshot a consistent copy while ingestion continues and
// so roster subscription, which runs on the caller's goroutine, stays safe.
// Records handed out by Get are live; readers that outlast the lock must
// go through Snapshot or SnapshotAll instead.
type Store struct {
	mu      sync.RWMutex
	players map[string]*TrackedPlayer
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		players: make(map[string]*TrackedPlayer),
	}
}

// Add inserts a record, returning false if the identity is already tracked.
func (s *Store) Add(p *TrackedPlayer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[p.CharacterID]; ok {
		return false
	}
	s.players[p.CharacterID] = p
	return true
}

// Get returns the record for characterID.
func (s *Store) Get(characterID string) (*TrackedPlayer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[characterID]
	return p, ok
}

// Append adds ev to the identity's log and bumps the listed stat keys,
// returning false for untracked identities. The log is not sorted; feed
// delivery is trusted to be timestamp-consistent per player. Stat
// increments happen under the same lock acquisition as the append so a
// snapshot never sees one without the other.
func (s *Store) Append(characterID string, ev events.Event, statKeys ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[characterID]
	if !ok {
		return false
	}
	p.Events = append(p.Events, ev)
	for _, key := range statKeys {
		p.Stats.Increment(key)
	}
	return true
}

// ApplyCharacter merges resolver metadata into the identity's record.
// An empty name keeps the placeholder. Join times for already-online
// identities are stamped at session start, not here.
func (s *Store) ApplyCharacter(c Character) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[c.ID]
	if !ok {
		return false
	}
	if c.Name != "" {
		p.Name = c.Name
	}
	p.FactionID = c.FactionID
	p.OutfitTag = c.OutfitTag
	p.Online = c.Online
	return true
}

// PlayerSnapshot is a copy of one record taken under the store lock.
// The log slice and stat map are owned by the snapshot, so report walks
// stay consistent while ingestion keeps appending to the live record.
type PlayerSnapshot struct {
	CharacterID string
	Name        string
	FactionID   string
	OutfitTag   string

	Online        bool
	SecondsOnline float64

	Events []events.Event
	Stats  *statmap.StatMap
}

func snapshotLocked(p *TrackedPlayer) PlayerSnapshot {
	log := make([]events.Event, len(p.Events))
	copy(log, p.Events)
	return PlayerSnapshot{
		CharacterID:   p.CharacterID,
		Name:          p.Name,
		FactionID:     p.FactionID,
		OutfitTag:     p.OutfitTag,
		Online:        p.Online,
		SecondsOnline: p.SecondsOnline,
		Events:        log,
		Stats:         p.Stats.Clone(),
	}
}

// Snapshot copies the record for characterID.
func (s *Store) Snapshot(characterID string) (PlayerSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[characterID]
	if !ok {
		return PlayerSnapshot{}, false
	}
	return snapshotLocked(p), true
}

// SnapshotAll copies every record. Order is unspecified.
func (s *Store) SnapshotAll() []PlayerSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PlayerSnapshot, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, snapshotLocked(p))
	}
	return out
}

// Len returns the number of tracked identities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Online returns the number of identities currently online.
func (s *Store) Online() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.players {
		if p.Online {
			n++
		}
	}
	return n
}

// HandleLogin transitions the identity to online and stamps JoinTime.
// Logins for untracked or already online identities are ignored.
func (s *Store) HandleLogin(characterID string, ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[characterID]
	if !ok || p.Online {
		return
	}
	p.Online = true
	p.JoinTime = ts
}

// HandleLogout transitions the identity to offline and finalizes its
// SecondsOnline from the log.
func (s *Store) HandleLogout(characterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[characterID]
	if !ok || !p.Online {
		return
	}
	p.Online = false
	p.SecondsOnline = secondsOnline(p.Events)
}

// StampJoinTimes sets JoinTime for online identities that have no stamp
// yet. Identities enriched as already online get their join time from
// the session start rather than a login event.
func (s *Store) StampJoinTimes(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.players {
		if p.Online && p.JoinTime == 0 {
			p.JoinTime = ts
		}
	}
}

// Finalize computes SecondsOnline for every tracked record. Called at
// session stop; safe to call more than once.
func (s *Store) Finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.players {
		p.SecondsOnline = secondsOnline(p.Events)
	}
}

// Reset drops all tracked records.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = make(map[string]*TrackedPlayer)
}

// secondsOnline derives time online from the first and last event
// timestamps. An empty log yields zero.
func secondsOnline(log []events.Event) float64 {
	if len(log) == 0 {
		return 0
	}
	first := log[0].Timestamp
	last := log[len(log)-1].Timestamp
	return float64(last-first) / 1000.0
}
