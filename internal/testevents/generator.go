package testevents

import (
	"fmt"
	"math/rand"
	"time"
)

// Loadout IDs drawn on per simulated character. One per class across the
// three empires so reports exercise the full class table.
var simLoadouts = []string{"1", "3", "4", "5", "6", "7", "8", "10", "11", "12", "13", "14", "15", "17", "18", "19", "20", "21"}

// Weapon IDs the simulator kills with.
var simWeapons = []string{"7169", "26002", "26003", "7170", "24002"}

// Frame type weights out of 100.
const (
	weightDeath   = 35
	weightHeal    = 15
	weightRevive  = 15
	weightAssist  = 10
	weightCapture = 5
	weightVehicle = 5
	weightRouter  = 5
)

// routerItemID is the deployable device granted on pull.
const routerItemID = "6006"

type simCharacter struct {
	id      string
	loadout string
	online  bool
	dead    bool
}

// Generator produces a plausible stream of push service frames for a
// fixed cast of characters. It is not safe for concurrent use.
type Generator struct {
	rng   *rand.Rand
	cast  []*simCharacter
	clock int64 // epoch seconds, advanced per frame
}

// NewGenerator builds a generator with count characters. The same seed
// reproduces the same stream.
func NewGenerator(seed int64, count int) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	cast := make([]*simCharacter, count)
	for i := range cast {
		cast[i] = &simCharacter{
			id:      fmt.Sprintf("5428%08d", i+1),
			loadout: simLoadouts[rng.Intn(len(simLoadouts))],
		}
	}
	return &Generator{
		rng:   rng,
		cast:  cast,
		clock: time.Now().Unix(),
	}
}

// CharacterIDs lists the simulated cast so callers can subscribe the
// tracker to it.
func (g *Generator) CharacterIDs() []string {
	ids := make([]string, len(g.cast))
	for i, c := range g.cast {
		ids[i] = c.id
	}
	return ids
}

// Next produces the next frame, advancing the simulated clock. Offline
// characters log in before anything else happens to them.
func (g *Generator) Next(stats *Stats) string {
	g.clock++

	// Bring one offline character in per tick until the cast is up.
	for _, c := range g.cast {
		if !c.online {
			c.online = true
			stats.Logins++
			return g.loginFrame(c)
		}
	}

	roll := g.rng.Intn(100)
	switch {
	case roll < weightDeath:
		stats.Deaths++
		return g.deathFrame()
	case roll < weightDeath+weightHeal:
		return g.expFrame("4", g.pick(), g.pick(), 50)
	case roll < weightDeath+weightHeal+weightRevive:
		return g.reviveFrame(stats)
	case roll < weightDeath+weightHeal+weightRevive+weightAssist:
		return g.expFrame("2", g.pick(), g.pick(), 100)
	case roll < weightDeath+weightHeal+weightRevive+weightAssist+weightCapture:
		return g.captureFrame()
	case roll < weightDeath+weightHeal+weightRevive+weightAssist+weightCapture+weightVehicle:
		return g.vehicleFrame()
	case roll < weightDeath+weightHeal+weightRevive+weightAssist+weightCapture+weightVehicle+weightRouter:
		return g.itemFrame()
	default:
		return `{"service":"event","type":"heartbeat"}`
	}
}

func (g *Generator) pick() *simCharacter {
	return g.cast[g.rng.Intn(len(g.cast))]
}

func (g *Generator) loginFrame(c *simCharacter) string {
	return fmt.Sprintf(
		`{"payload":{"event_name":"PlayerLogin","character_id":"%s","timestamp":"%d","world_id":"17"},"service":"event","type":"serviceMessage"}`,
		c.id, g.clock)
}

func (g *Generator) deathFrame() string {
	attacker, victim := g.pick(), g.pick()
	victim.dead = true
	hs := "0"
	if g.rng.Intn(4) == 0 {
		hs = "1"
	}
	return fmt.Sprintf(
		`{"payload":{"event_name":"Death","attacker_character_id":"%s","attacker_loadout_id":"%s","attacker_weapon_id":"%s","character_id":"%s","character_loadout_id":"%s","is_headshot":"%s","timestamp":"%d","zone_id":"2"},"service":"event","type":"serviceMessage"}`,
		attacker.id, attacker.loadout, simWeapons[g.rng.Intn(len(simWeapons))],
		victim.id, victim.loadout, hs, g.clock)
}

// reviveFrame revives a dead character when one exists, otherwise it
// degrades to a heal so the tick still emits something.
func (g *Generator) reviveFrame(stats *Stats) string {
	for _, c := range g.cast {
		if c.dead {
			c.dead = false
			stats.Revives++
			return g.expFrame("7", g.pick(), c, 75)
		}
	}
	return g.expFrame("4", g.pick(), g.pick(), 50)
}

func (g *Generator) expFrame(expID string, source, target *simCharacter, amount int) string {
	return fmt.Sprintf(
		`{"payload":{"event_name":"GainExperience","experience_id":"%s","character_id":"%s","other_id":"%s","loadout_id":"%s","amount":"%d","timestamp":"%d","zone_id":"2"},"service":"event","type":"serviceMessage"}`,
		expID, source.id, target.id, source.loadout, amount, g.clock)
}

func (g *Generator) captureFrame() string {
	c := g.pick()
	return fmt.Sprintf(
		`{"payload":{"event_name":"PlayerFacilityCapture","character_id":"%s","facility_id":"%d","outfit_id":"37509","timestamp":"%d","zone_id":"2"},"service":"event","type":"serviceMessage"}`,
		c.id, 222000+g.rng.Intn(100), g.clock)
}

func (g *Generator) vehicleFrame() string {
	attacker, victim := g.pick(), g.pick()
	return fmt.Sprintf(
		`{"payload":{"event_name":"VehicleDestroy","attacker_character_id":"%s","attacker_loadout_id":"%s","character_id":"%s","vehicle_id":"2","timestamp":"%d","zone_id":"2"},"service":"event","type":"serviceMessage"}`,
		attacker.id, attacker.loadout, victim.id, g.clock)
}

func (g *Generator) itemFrame() string {
	c := g.pick()
	return fmt.Sprintf(
		`{"payload":{"event_name":"ItemAdded","character_id":"%s","item_id":"%s","context":"GuildBankWithdrawal","timestamp":"%d"},"service":"event","type":"serviceMessage"}`,
		c.id, routerItemID, g.clock)
}
