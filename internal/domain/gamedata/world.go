package gamedata

import "fmt"

var zones = map[string]string{
	"2":   "Indar",
	"4":   "Hossin",
	"6":   "Amerish",
	"8":   "Esamir",
	"344": "Oshur",
}

// ZoneName returns a continent display name for a zone ID.
func ZoneName(id string) string {
	if name, ok := zones[id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown %s", id)
}

var vehicles = map[string]string{
	"1":    "Flash",
	"2":    "Sunderer",
	"3":    "Lightning",
	"4":    "Magrider",
	"5":    "Vanguard",
	"6":    "Prowler",
	"7":    "Scythe",
	"8":    "Reaver",
	"9":    "Mosquito",
	"10":   "Liberator",
	"11":   "Galaxy",
	"12":   "Harasser",
	"14":   "Valkyrie",
	"15":   "ANT",
	"2010": "Flash",
	"2033": "Javelin",
	"2122": "Mosquito",
	"2123": "Reaver",
	"2124": "Scythe",
	"2125": "Javelin",
	"2129": "Sunderer",
	"2136": "Dervish",
}

// VehicleName returns a display name for a vehicle ID.
func VehicleName(id string) string {
	if name, ok := vehicles[id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown %s", id)
}
