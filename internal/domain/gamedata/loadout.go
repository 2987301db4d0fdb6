package gamedata

import "fmt"

// Class is the resolved infantry role of a loadout ID.
type Class string

const (
	ClassInfiltrator  Class = "infiltrator"
	ClassLightAssault Class = "lightAssault"
	ClassMedic        Class = "medic"
	ClassEngineer     Class = "engineer"
	ClassHeavyAssault Class = "heavyAssault"
	ClassMAX          Class = "max"
	ClassUnknown      Class = "unknown"
)

// Classes lists every resolvable class in display order.
var Classes = []Class{
	ClassInfiltrator,
	ClassLightAssault,
	ClassMedic,
	ClassEngineer,
	ClassHeavyAssault,
	ClassMAX,
}

// Faction IDs as they appear on the wire.
const (
	FactionVS  = "1"
	FactionNC  = "2"
	FactionTR  = "3"
	FactionNSO = "4"
)

// Loadout resolves a wire loadout ID to faction and class.
type Loadout struct {
	ID      string
	Faction string
	Class   Class
}

var loadouts = map[string]Loadout{
	// NC
	"1": {ID: "1", Faction: FactionNC, Class: ClassInfiltrator},
	"3": {ID: "3", Faction: FactionNC, Class: ClassLightAssault},
	"4": {ID: "4", Faction: FactionNC, Class: ClassMedic},
	"5": {ID: "5", Faction: FactionNC, Class: ClassEngineer},
	"6": {ID: "6", Faction: FactionNC, Class: ClassHeavyAssault},
	"7": {ID: "7", Faction: FactionNC, Class: ClassMAX},
	// TR
	"8":  {ID: "8", Faction: FactionTR, Class: ClassInfiltrator},
	"10": {ID: "10", Faction: FactionTR, Class: ClassLightAssault},
	"11": {ID: "11", Faction: FactionTR, Class: ClassMedic},
	"12": {ID: "12", Faction: FactionTR, Class: ClassEngineer},
	"13": {ID: "13", Faction: FactionTR, Class: ClassHeavyAssault},
	"14": {ID: "14", Faction: FactionTR, Class: ClassMAX},
	// VS
	"15": {ID: "15", Faction: FactionVS, Class: ClassInfiltrator},
	"17": {ID: "17", Faction: FactionVS, Class: ClassLightAssault},
	"18": {ID: "18", Faction: FactionVS, Class: ClassMedic},
	"19": {ID: "19", Faction: FactionVS, Class: ClassEngineer},
	"20": {ID: "20", Faction: FactionVS, Class: ClassHeavyAssault},
	"21": {ID: "21", Faction: FactionVS, Class: ClassMAX},
	// NSO
	"28": {ID: "28", Faction: FactionNSO, Class: ClassInfiltrator},
	"29": {ID: "29", Faction: FactionNSO, Class: ClassLightAssault},
	"30": {ID: "30", Faction: FactionNSO, Class: ClassMedic},
	"31": {ID: "31", Faction: FactionNSO, Class: ClassEngineer},
	"32": {ID: "32", Faction: FactionNSO, Class: ClassHeavyAssault},
	"45": {ID: "45", Faction: FactionNSO, Class: ClassMAX},
}

// LoadoutByID resolves a wire loadout ID.
func LoadoutByID(id string) (Loadout, bool) {
	l, ok := loadouts[id]
	return l, ok
}

// ClassOf resolves a loadout ID to its class, ClassUnknown when outside
// the table.
func ClassOf(loadoutID string) Class {
	if l, ok := loadouts[loadoutID]; ok {
		return l.Class
	}
	return ClassUnknown
}

// FactionOf resolves a loadout ID to its faction, empty when outside
// the table.
func FactionOf(loadoutID string) string {
	if l, ok := loadouts[loadoutID]; ok {
		return l.Faction
	}
	return ""
}

// FactionName returns a display name for a faction ID.
func FactionName(id string) string {
	switch id {
	case FactionVS:
		return "VS"
	case FactionNC:
		return "NC"
	case FactionTR:
		return "TR"
	case FactionNSO:
		return "NSO"
	}
	return fmt.Sprintf("Unknown %s", id)
}
