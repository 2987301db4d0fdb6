package ingest

import (
	"context"
	"sync"

	"github.com/opstrack/opstrack/internal/domain/dedupe"
	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
	"github.com/opstrack/opstrack/internal/domain/tracker"
	"github.com/opstrack/opstrack/pkg/logger"
	"github.com/opstrack/opstrack/pkg/metrics"
)

// routerItemID is the deployable item whose acquisition marks a router
// pull.
const routerItemID = "6006"

// DispatcherOption applies a configuration option to the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithQueue sets the raw message queue to drain.
func WithQueue(q Queue) DispatcherOption {
	return func(d *Dispatcher) { d.queue = q }
}

// WithDeduper sets the duplicate filter.
func WithDeduper(dd dedupe.Deduper) DispatcherOption {
	return func(d *Dispatcher) { d.dedupe = dd }
}

// WithBus sets the typed event bus published to after each append.
func WithBus(b *events.Bus) DispatcherOption {
	return func(d *Dispatcher) { d.bus = b }
}

// WithStore sets the player state store.
func WithStore(s *tracker.Store) DispatcherOption {
	return func(d *Dispatcher) { d.store = s }
}

// WithRouters sets the deployable lifecycle tracker.
func WithRouters(r *tracker.RouterTracker) DispatcherOption {
	return func(d *Dispatcher) { d.routers = r }
}

// WithCaptures sets the facility capture log.
func WithCaptures(c *tracker.CaptureLog) DispatcherOption {
	return func(d *Dispatcher) { d.captures = c }
}

// Dispatcher drains the raw queue on a single goroutine and turns feed
// frames into typed events on the tracked player logs. Being the only
// writer, it serializes all mutation of player records and the dedupe
// window without per-record locking.
type Dispatcher struct {
	queue    Queue
	dedupe   dedupe.Deduper
	bus      *events.Bus
	store    *tracker.Store
	routers  *tracker.RouterTracker
	captures *tracker.CaptureLog

	log logger.Logger
	wg  sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with the given collaborators.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		log: logger.Named("dispatcher"),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.queue == nil {
		d.queue = NewInMemoryQueue()
	}
	if d.dedupe == nil {
		d.dedupe = dedupe.NewWindowDeduper()
	}
	if d.bus == nil {
		d.bus = events.NewBus()
	}
	if d.store == nil {
		d.store = tracker.NewStore()
	}

	return d
}

// Start launches the dispatch loop. It returns immediately; the loop runs
// until the queue closes or ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for m := range d.queue.Dequeue(ctx) {
			d.process(ctx, m)
		}
	}()
}

// Stop closes the queue and waits for every buffered message to finish
// processing, so callers observe fully settled state afterwards.
func (d *Dispatcher) Stop() {
	_ = d.queue.Close()
	d.wg.Wait()
}

// Process handles one raw message synchronously, bypassing the queue.
// Exposed for replay tooling and tests; live ingestion goes through
// Start's loop.
func (d *Dispatcher) Process(ctx context.Context, m RawMessage) {
	d.process(ctx, m)
}

func (d *Dispatcher) process(ctx context.Context, m RawMessage) {
	metrics.RecordMessageReceived(m.Channel)

	if !d.dedupe.Accept(ctx, string(m.Payload)) {
		metrics.RecordMessageDuplicate()
		return
	}

	msg, err := events.ParseMessage(m.Payload)
	if err != nil {
		metrics.RecordMessageMalformed()
		d.log.Warn(ctx, "dropping malformed message",
			logger.String("channel", m.Channel),
			logger.Error(err))
		return
	}
	if msg.Kind != events.KindEvent {
		return
	}

	d.route(ctx, msg.Payload)
}

// route fans a parsed payload out to the trackers it concerns.
func (d *Dispatcher) route(ctx context.Context, p events.Payload) {
	switch p.EventName {
	case "GainExperience":
		d.handleExperience(ctx, p)
	case "Death":
		d.handleDeath(p)
	case "VehicleDestroy":
		d.handleVehicle(p)
	case "PlayerFacilityCapture":
		d.handleFacility(p, events.TypeCapture)
	case "PlayerFacilityDefend":
		d.handleFacility(p, events.TypeDefend)
	case "PlayerLogin":
		d.handleLogin(p)
	case "PlayerLogout":
		d.handleLogout(p)
	case "ItemAdded":
		d.handleItem(ctx, p)
	default:
		d.log.Debug(ctx, "unrouted event", logger.String("name", p.EventName))
	}
}

// append adds ev to the identity's log, bumps its counters, and publishes
// the event. Untracked identities are silently skipped; the feed carries
// plenty of traffic the session does not follow.
func (d *Dispatcher) append(characterID string, ev events.Event, statKeys ...string) {
	if !d.store.Append(characterID, ev, statKeys...) {
		return
	}
	metrics.RecordEventRouted(string(ev.Type))
	_ = d.bus.Publish(ev)
}

func (d *Dispatcher) handleExperience(ctx context.Context, p events.Payload) {
	ev := events.Event{
		Type:      events.TypeExp,
		Timestamp: p.Timestamp,
		SourceID:  p.CharacterID,
		TargetID:  p.OtherID,
		LoadoutID: p.LoadoutID,
		ZoneID:    p.ZoneID,
		ExpID:     p.ExperienceID,
		Amount:    p.Amount,
	}

	var keys []string
	if gamedata.Tracked(p.ExperienceID) {
		keys = append(keys, p.ExperienceID)
	}
	d.append(p.CharacterID, ev, keys...)

	// A revive lands in the victim's log too, so their own death can be
	// linked to it without a cross-log search. The copy is marked as
	// mirrored so the statistics walks keep attributing it to the medic.
	if gamedata.IsReviveExp(p.ExperienceID) && p.OtherID != p.CharacterID {
		mirror := ev
		mirror.Mirrored = true
		d.append(p.OtherID, mirror)
	}

	if d.routers != nil {
		switch p.ExperienceID {
		case gamedata.ExpRouterSpawn:
			d.routers.Activity(ctx, p.CharacterID, p.OtherID, p.Timestamp)
		case gamedata.ExpRouterKill:
			d.routers.Destroy(ctx, p.OtherID, p.Timestamp)
		}
	}
}

func (d *Dispatcher) handleDeath(p events.Payload) {
	attacker := p.AttackerCharacterID
	victim := p.CharacterID
	attackerFaction := gamedata.FactionOf(p.AttackerLoadoutID)
	victimFaction := gamedata.FactionOf(p.CharacterLoadoutID)

	suicide := attacker == "" || attacker == "0" || attacker == victim
	teamkill := !suicide && attackerFaction != "" && attackerFaction == victimFaction

	if !suicide {
		attackerEv := events.Event{
			Type:            events.TypeKill,
			Timestamp:       p.Timestamp,
			SourceID:        attacker,
			TargetID:        victim,
			LoadoutID:       p.AttackerLoadoutID,
			TargetLoadoutID: p.CharacterLoadoutID,
			ZoneID:          p.ZoneID,
			WeaponID:        p.AttackerWeaponID,
			Headshot:        p.Headshot,
		}
		keys := []string{gamedata.StatKill}
		if p.Headshot {
			keys = append(keys, gamedata.StatHeadshot)
		}
		if teamkill {
			attackerEv.Type = events.TypeTeamkill
			keys = []string{gamedata.StatTeamkill}
		}
		d.append(attacker, attackerEv, keys...)
	}

	deathEv := events.Event{
		Type:            events.TypeDeath,
		Timestamp:       p.Timestamp,
		SourceID:        victim,
		TargetID:        attacker,
		LoadoutID:       p.CharacterLoadoutID,
		TargetLoadoutID: p.AttackerLoadoutID,
		ZoneID:          p.ZoneID,
		WeaponID:        p.AttackerWeaponID,
		Headshot:        p.Headshot,
	}
	victimKeys := []string{gamedata.StatDeath}
	if teamkill {
		victimKeys = append(victimKeys, gamedata.StatTeamkilled)
	}
	d.append(victim, deathEv, victimKeys...)
}

func (d *Dispatcher) handleVehicle(p events.Payload) {
	if p.AttackerCharacterID == "" || p.AttackerCharacterID == "0" {
		return
	}
	ev := events.Event{
		Type:      events.TypeVehicle,
		Timestamp: p.Timestamp,
		SourceID:  p.AttackerCharacterID,
		TargetID:  p.CharacterID,
		LoadoutID: p.AttackerLoadoutID,
		ZoneID:    p.ZoneID,
		VehicleID: p.VehicleID,
	}
	d.append(p.AttackerCharacterID, ev, gamedata.StatVehicleKill)
}

func (d *Dispatcher) handleFacility(p events.Payload, t events.Type) {
	ev := events.Event{
		Type:       t,
		Timestamp:  p.Timestamp,
		SourceID:   p.CharacterID,
		ZoneID:     p.ZoneID,
		FacilityID: p.FacilityID,
		OutfitID:   p.OutfitID,
	}
	key := gamedata.StatBaseCapture
	if t == events.TypeDefend {
		key = gamedata.StatBaseDefense
	}

	tracked := false
	if _, ok := d.store.Get(p.CharacterID); ok {
		tracked = true
	}
	d.append(p.CharacterID, ev, key)

	if tracked && d.captures != nil {
		d.captures.Record(ev)
	}
}

func (d *Dispatcher) handleLogin(p events.Payload) {
	ev := events.Event{
		Type:      events.TypeLogin,
		Timestamp: p.Timestamp,
		SourceID:  p.CharacterID,
	}
	d.append(p.CharacterID, ev)
	d.store.HandleLogin(p.CharacterID, p.Timestamp)
	metrics.UpdateOnlinePlayers(d.store.Online())
}

func (d *Dispatcher) handleLogout(p events.Payload) {
	ev := events.Event{
		Type:      events.TypeLogout,
		Timestamp: p.Timestamp,
		SourceID:  p.CharacterID,
	}
	d.append(p.CharacterID, ev)
	d.store.HandleLogout(p.CharacterID)
	metrics.UpdateOnlinePlayers(d.store.Online())
}

func (d *Dispatcher) handleItem(ctx context.Context, p events.Payload) {
	if d.routers == nil || p.ItemID != routerItemID {
		return
	}
	if _, ok := d.store.Get(p.CharacterID); !ok {
		return
	}
	d.routers.Pull(ctx, p.CharacterID, p.Timestamp)
}
