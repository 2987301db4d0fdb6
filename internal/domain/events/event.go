// Package events defines the typed event model shared by the ingestion
// pipeline, the per-player logs, and the statistics walks, together with
// the wire-envelope parser and a typed publish/subscribe bus.
package events

// Type discriminates the closed set of event variants.
type Type string

const (
	TypeExp      Type = "exp"
	TypeKill     Type = "kill"
	TypeDeath    Type = "death"
	TypeTeamkill Type = "teamkill"
	TypeCapture  Type = "capture"
	TypeDefend   Type = "defend"
	TypeVehicle  Type = "vehicle"
	TypeLogin    Type = "login"
	TypeLogout   Type = "logout"
)

// Types lists every event type, for bus wiring and exhaustiveness checks.
var Types = []Type{
	TypeExp,
	TypeKill,
	TypeDeath,
	TypeTeamkill,
	TypeCapture,
	TypeDefend,
	TypeVehicle,
	TypeLogin,
	TypeLogout,
}

// Event is one entry of a per-player log. All variants share the envelope
// fields; variant-specific fields are meaningful only for the matching
// Type and zero otherwise.
//
// Events are immutable once appended, with one exception: the Correlation
// Engine sets Revived and RevivedEvent on a death in place. RevivedEvent
// is a weak back-reference, an index into the owning log, valid only while
// Revived is true.
type Event struct {
	Type      Type
	Timestamp int64 // epoch milliseconds

	SourceID        string
	TargetID        string
	LoadoutID       string
	TargetLoadoutID string
	ZoneID          string

	// exp
	ExpID  string
	Amount int

	// Mirrored marks a copy appended to a log other than the earner's,
	// revive ticks placed in the victim's log for death linking. Mirrored
	// entries never count toward the owning log's statistics.
	Mirrored bool

	// kill, death, teamkill
	WeaponID     string
	Headshot     bool
	Revived      bool
	RevivedEvent int

	// capture, defend
	FacilityID string
	OutfitID   string

	// vehicle
	VehicleID string
}

// IsKillOrDeath reports whether the event participates in combat walks.
func (e Event) IsKillOrDeath() bool {
	return e.Type == TypeKill || e.Type == TypeDeath || e.Type == TypeTeamkill
}
