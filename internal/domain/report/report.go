// Package report produces the pull-based session and per-player report
// structures from the tracked state. Generation runs against immutable
// copies of the player logs and joins asynchronous metadata lookups
// before resolving.
package report

import (
	"sort"

	"github.com/opstrack/opstrack/internal/adapters/lookup"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
	"github.com/opstrack/opstrack/internal/domain/stats"
	"github.com/opstrack/opstrack/internal/domain/tracker"
)

// WeaponEntry aggregates a player's kills with one weapon.
type WeaponEntry struct {
	WeaponID  string
	Name      string
	Kills     int
	Headshots int
}

// DeployableEntry aggregates a player's kills of one deployable type.
type DeployableEntry struct {
	ExpID string
	Name  string
	Count int
}

// SupportRow aggregates the support one tracked ally gave this player.
type SupportRow struct {
	CharacterID string
	Name        string
	Heals       int
	Revives     int
	Resupplies  int
	Repairs     int
	Shields     int
}

// PersonalReport is the full derived view of one tracked player.
type PersonalReport struct {
	CharacterID   string
	Name          string
	FactionID     string
	OutfitTag     string
	SecondsOnline float64

	Kills         int
	Deaths        int
	RevivedDeaths int
	Headshots     int
	Revives       int
	Heals         int
	Resupplies    int
	Repairs       int
	Shields       int
	Score         int

	Calculated stats.Calculated
	MaxStreak  int

	ClassUsage     stats.ClassUsage
	Versus         map[gamedata.Class]*stats.VersusEntry
	ScoreBoard     []stats.ScoreEntry
	Weapons        []WeaponEntry
	Deployables    []DeployableEntry
	SupportedBy    []SupportRow
	Routers        []*tracker.TrackedRouter
	MostPlayedZone string

	KillsAfterRevive int

	KPMTrend []float64
	KDTrend  []float64
	RPMTrend []float64

	// TimeToRevive and LifeAfterRevive are Kaplan-Meier survival curves,
	// nil when the underlying sample is empty.
	TimeToRevive    []float64
	LifeAfterRevive []float64
	LifeDurations   []float64
}

// CaptureEntry is a facility capture enriched with its display name.
type CaptureEntry struct {
	tracker.Capture
	FacilityName string
}

// Leader is one row of a session leaderboard.
type Leader struct {
	CharacterID string
	Name        string
	Value       float64
}

// Boards are the session-wide leaderboards.
type Boards struct {
	Kills      []Leader
	KD         []Leader
	KPM        []Leader
	Score      []Leader
	Revives    []Leader
	Heals      []Leader
	Resupplies []Leader
	Repairs    []Leader
	Shields    []Leader

	Fun FunBoards
}

// FunBoards are the novelty leaderboards from the session summary.
type FunBoards struct {
	LongestKillStreak []Leader
	HighestHSR        []Leader
	UniqueWeapons     []Leader
	MostRevived       []Leader
	KillsAfterRevive  []Leader
	AvgLifeSeconds    []Leader
	PercentRevived    []Leader
}

// SessionReport aggregates every tracked player plus the auxiliary
// collections for one session.
type SessionReport struct {
	StartedAt int64
	StoppedAt int64

	Players  []*PersonalReport
	Routers  []*tracker.TrackedRouter
	Captures []CaptureEntry
	Boards   Boards
}

// sortLeaders returns the top rows of a board, ties broken by name.
func sortLeaders(rows []Leader, limit int) []Leader {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Name < rows[j].Name
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// sortWeapons orders a weapon list by kills descending, ties by ID.
func sortWeapons(ws []WeaponEntry) {
	sort.Slice(ws, func(i, j int) bool {
		if ws[i].Kills != ws[j].Kills {
			return ws[i].Kills > ws[j].Kills
		}
		return ws[i].WeaponID < ws[j].WeaponID
	})
}

// placeholderName is the fallback when the resolver returns nothing for
// an ID.
func placeholderName(id string) string {
	return lookup.Placeholder(id).Name
}
