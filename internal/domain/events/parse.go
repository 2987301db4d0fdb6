package events

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind classifies a parsed wire message before domain dispatch.
type Kind string

const (
	// KindEvent carries a game-event payload.
	KindEvent Kind = "event"
	// KindHeartbeat is a keep-alive frame from the feed.
	KindHeartbeat Kind = "heartbeat"
	// KindSubscriptionEcho acknowledges a subscription request.
	KindSubscriptionEcho Kind = "subscriptionEcho"
	// KindServiceState reports feed endpoint state changes.
	KindServiceState Kind = "serviceState"
	// KindIgnored covers frames the tracker has no use for.
	KindIgnored Kind = "ignored"
)

// Payload is the flattened game-event payload of a wire envelope. String
// numerics from the wire are converted; fields absent from a given event
// name are zero.
type Payload struct {
	EventName string
	Timestamp int64 // epoch milliseconds

	CharacterID         string
	AttackerCharacterID string
	CharacterLoadoutID  string
	AttackerLoadoutID   string
	AttackerWeaponID    string
	LoadoutID           string

	ExperienceID string
	Amount       int
	OtherID      string

	VehicleID  string
	FacilityID string
	OutfitID   string
	ItemID     string
	Context    string

	ZoneID    string
	WorldID   string
	Headshot  bool
}

// Message is one parsed wire frame.
type Message struct {
	Kind    Kind
	Payload Payload
}

type wireEnvelope struct {
	Type         string          `json:"type"`
	Service      string          `json:"service"`
	Online       json.RawMessage `json:"online"`
	Subscription json.RawMessage `json:"subscription"`
	Payload      *wirePayload    `json:"payload"`
}

type wirePayload struct {
	EventName           string `json:"event_name"`
	Timestamp           string `json:"timestamp"`
	CharacterID         string `json:"character_id"`
	AttackerCharacterID string `json:"attacker_character_id"`
	CharacterLoadoutID  string `json:"character_loadout_id"`
	AttackerLoadoutID   string `json:"attacker_loadout_id"`
	AttackerWeaponID    string `json:"attacker_weapon_id"`
	LoadoutID           string `json:"loadout_id"`
	ExperienceID        string `json:"experience_id"`
	Amount              string `json:"amount"`
	OtherID             string `json:"other_id"`
	VehicleID           string `json:"vehicle_id"`
	FacilityID          string `json:"facility_id"`
	OutfitID            string `json:"outfit_id"`
	ItemID              string `json:"item_id"`
	Context             string `json:"context"`
	ZoneID              string `json:"zone_id"`
	WorldID             string `json:"world_id"`
	IsHeadshot          string `json:"is_headshot"`
}

// ParseMessage decodes one raw text frame from the feed. A frame that is
// not valid JSON, or that carries an event payload with an unparsable
// timestamp, returns ErrMalformedMessage.
func ParseMessage(raw []byte) (*Message, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch {
	case env.Subscription != nil:
		return &Message{Kind: KindSubscriptionEcho}, nil
	case env.Type == "heartbeat":
		return &Message{Kind: KindHeartbeat}, nil
	case env.Type == "serviceStateChanged" || env.Online != nil:
		return &Message{Kind: KindServiceState}, nil
	case env.Type == "serviceMessage" && env.Payload != nil:
		p, err := flattenPayload(env.Payload)
		if err != nil {
			return nil, err
		}
		return &Message{Kind: KindEvent, Payload: p}, nil
	}

	return &Message{Kind: KindIgnored}, nil
}

func flattenPayload(wp *wirePayload) (Payload, error) {
	ts, err := strconv.ParseInt(wp.Timestamp, 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: timestamp %q", ErrMalformedMessage, wp.Timestamp)
	}

	amount := 0
	if wp.Amount != "" {
		// Amount may legitimately be absent; a present but garbled value
		// is a malformed frame.
		amount, err = strconv.Atoi(wp.Amount)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: amount %q", ErrMalformedMessage, wp.Amount)
		}
	}

	return Payload{
		EventName:           wp.EventName,
		Timestamp:           ts * 1000, // wire timestamps are epoch seconds
		CharacterID:         wp.CharacterID,
		AttackerCharacterID: wp.AttackerCharacterID,
		CharacterLoadoutID:  wp.CharacterLoadoutID,
		AttackerLoadoutID:   wp.AttackerLoadoutID,
		AttackerWeaponID:    wp.AttackerWeaponID,
		LoadoutID:           wp.LoadoutID,
		ExperienceID:        wp.ExperienceID,
		Amount:              amount,
		OtherID:             wp.OtherID,
		VehicleID:           wp.VehicleID,
		FacilityID:          wp.FacilityID,
		OutfitID:            wp.OutfitID,
		ItemID:              wp.ItemID,
		Context:             wp.Context,
		ZoneID:              wp.ZoneID,
		WorldID:             wp.WorldID,
		Headshot:            wp.IsHeadshot == "1",
	}, nil
}
