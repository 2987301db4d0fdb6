// Package gamedata holds the static game-data tables: the experience-event
// catalog with its compound stat chains, loadout-to-class resolution, zone
// and vehicle names, and the deployable-destruction ID set. Everything here
// is immutable reference data consulted by the event dispatcher and the
// statistics walks.
package gamedata

import "fmt"

// Experience event IDs as they appear on the wire.
const (
	ExpKillAssist        = "2"
	ExpHeal              = "4"
	ExpRevive            = "7"
	ExpResupply          = "34"
	ExpSquadHeal         = "51"
	ExpSquadRevive       = "53"
	ExpSquadResupply     = "55"
	ExpMAXRepair         = "142"
	ExpSundererSpawn     = "233"
	ExpSquadMAXRepair    = "236"
	ExpMotionDetect      = "293"
	ExpSquadMotionDetect = "294"
	ExpShieldRepair      = "438"
	ExpSquadShieldRepair = "439"
	ExpSaviour           = "335"
	ExpRouterKill        = "1409"
	ExpRouterSpawn       = "1410"

	ExpTurretDestroy      = "57"
	ExpBeaconDestroy      = "270"
	ExpManaTurretDestroy  = "327"
	ExpMotionSensorKill   = "370"
	ExpShieldBubbleKill   = "437"
	ExpSpitfireDestroy    = "579"
	ExpHardlightDestroy   = "1373"
)

// Synthetic statistic keys for events that are not experience ticks.
const (
	StatKill        = "kill"
	StatDeath       = "death"
	StatRevivedDeath = "revivedDeath"
	StatHeadshot    = "headshot"
	StatTeamkill    = "teamkill"
	StatTeamkilled  = "teamkilled"
	StatBaseCapture = "baseCapture"
	StatBaseDefense = "baseDefense"
	StatVehicleKill = "vehicleKill"
)

// Experience describes one experience-gain statistic.
type Experience struct {
	ID   string
	Name string

	// Parents lists the stat keys that also receive any increment applied
	// to this ID. Squad-scoped statistics chain to their unscoped parent.
	Parents []string

	// Track marks IDs that land in the per-player StatMap. Untracked IDs
	// still flow through the event log, they just do not accumulate.
	Track bool
}

var experiences = map[string]Experience{
	ExpKillAssist:        {ID: ExpKillAssist, Name: "Kill assist", Track: true},
	ExpHeal:              {ID: ExpHeal, Name: "Heal", Track: true},
	ExpRevive:            {ID: ExpRevive, Name: "Revive", Track: true},
	ExpResupply:          {ID: ExpResupply, Name: "Resupply", Track: true},
	ExpSquadHeal:         {ID: ExpSquadHeal, Name: "Squad heal", Parents: []string{ExpHeal}, Track: true},
	ExpSquadRevive:       {ID: ExpSquadRevive, Name: "Squad revive", Parents: []string{ExpRevive}, Track: true},
	ExpSquadResupply:     {ID: ExpSquadResupply, Name: "Squad resupply", Parents: []string{ExpResupply}, Track: true},
	ExpMAXRepair:         {ID: ExpMAXRepair, Name: "MAX repair", Track: true},
	ExpSundererSpawn:     {ID: ExpSundererSpawn, Name: "Sunderer spawn bonus", Track: true},
	ExpSquadMAXRepair:    {ID: ExpSquadMAXRepair, Name: "Squad MAX repair", Parents: []string{ExpMAXRepair}, Track: true},
	ExpMotionDetect:      {ID: ExpMotionDetect, Name: "Motion detect", Track: true},
	ExpSquadMotionDetect: {ID: ExpSquadMotionDetect, Name: "Squad motion detect", Parents: []string{ExpMotionDetect}, Track: true},
	ExpShieldRepair:      {ID: ExpShieldRepair, Name: "Shield repair", Track: true},
	ExpSquadShieldRepair: {ID: ExpSquadShieldRepair, Name: "Squad shield repair", Parents: []string{ExpShieldRepair}, Track: true},
	ExpSaviour:           {ID: ExpSaviour, Name: "Saviour", Track: true},
	ExpRouterKill:        {ID: ExpRouterKill, Name: "Router kill", Track: true},
	ExpRouterSpawn:       {ID: ExpRouterSpawn, Name: "Router spawn bonus", Track: true},

	ExpTurretDestroy:     {ID: ExpTurretDestroy, Name: "Engineer turret kill", Track: true},
	ExpBeaconDestroy:     {ID: ExpBeaconDestroy, Name: "Spawn beacon kill", Track: true},
	ExpManaTurretDestroy: {ID: ExpManaTurretDestroy, Name: "MANA turret kill", Track: true},
	ExpMotionSensorKill:  {ID: ExpMotionSensorKill, Name: "Motion sensor kill", Track: true},
	ExpShieldBubbleKill:  {ID: ExpShieldBubbleKill, Name: "Shield bubble kill", Track: true},
	ExpSpitfireDestroy:   {ID: ExpSpitfireDestroy, Name: "Spitfire turret kill", Track: true},
	ExpHardlightDestroy:  {ID: ExpHardlightDestroy, Name: "Hardlight barrier kill", Track: true},
}

// reviveIDs is the revive-class subset used by death correlation.
var reviveIDs = map[string]struct{}{
	ExpRevive:      {},
	ExpSquadRevive: {},
}

// deployableDestroyIDs is the set of experience IDs awarded for destroying
// enemy deployables.
var deployableDestroyIDs = map[string]struct{}{
	ExpTurretDestroy:     {},
	ExpBeaconDestroy:     {},
	ExpManaTurretDestroy: {},
	ExpMotionSensorKill:  {},
	ExpShieldBubbleKill:  {},
	ExpSpitfireDestroy:   {},
	ExpHardlightDestroy:  {},
	ExpRouterKill:        {},
}

// ExperienceByID looks up the experience catalog entry for id.
func ExperienceByID(id string) (Experience, bool) {
	e, ok := experiences[id]
	return e, ok
}

// ExperienceName returns a display name for id, falling back to an
// "Unknown <id>" placeholder for IDs outside the catalog.
func ExperienceName(id string) string {
	if e, ok := experiences[id]; ok {
		return e.Name
	}
	return fmt.Sprintf("Unknown %s", id)
}

// Parents returns the compound parent chain for a stat key. The result is
// nil for keys without a chain, which covers every ID not in the catalog.
func Parents(key string) []string {
	if e, ok := experiences[key]; ok {
		return e.Parents
	}
	return nil
}

// Tracked reports whether an experience ID accumulates in the StatMap.
func Tracked(id string) bool {
	e, ok := experiences[id]
	return ok && e.Track
}

// IsReviveExp reports whether id is a revive-class experience statistic.
func IsReviveExp(id string) bool {
	_, ok := reviveIDs[id]
	return ok
}

// IsDeployableDestroyExp reports whether id rewards a deployable kill.
func IsDeployableDestroyExp(id string) bool {
	_, ok := deployableDestroyIDs[id]
	return ok
}

// IsHealExp reports whether id is a heal-class experience statistic.
func IsHealExp(id string) bool {
	return id == ExpHeal || id == ExpSquadHeal
}

// IsResupplyExp reports whether id is a resupply-class experience statistic.
func IsResupplyExp(id string) bool {
	return id == ExpResupply || id == ExpSquadResupply
}

// IsRepairExp reports whether id is a MAX repair experience statistic.
func IsRepairExp(id string) bool {
	return id == ExpMAXRepair || id == ExpSquadMAXRepair
}

// IsShieldRepairExp reports whether id is a shield repair experience statistic.
func IsShieldRepairExp(id string) bool {
	return id == ExpShieldRepair || id == ExpSquadShieldRepair
}
