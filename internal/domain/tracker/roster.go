package tracker

import (
	"context"
	"fmt"

	"github.com/opstrack/opstrack/pkg/logger"
	"github.com/opstrack/opstrack/pkg/metrics"
)

// DefaultBatchSize bounds the identity count per subscription request.
const DefaultBatchSize = 200

// SubscribedEventNames are the feed event streams a roster subscription
// asks for.
var SubscribedEventNames = []string{
	"GainExperience",
	"Death",
	"VehicleDestroy",
	"PlayerFacilityCapture",
	"PlayerFacilityDefend",
	"ItemAdded",
	"PlayerLogin",
	"PlayerLogout",
}

// Sender delivers a subscription request to the feed transport.
type Sender interface {
	Send(v any) error
}

// Character is one enrichment record from the identity lookup collaborator.
type Character struct {
	ID        string
	Name      string
	FactionID string
	OutfitTag string
	Online    bool
}

// CharacterResolver fetches enrichment records for identity IDs. Resolvers
// may return fewer records than requested; missing IDs keep their
// placeholder name.
type CharacterResolver interface {
	Characters(ctx context.Context, ids []string) ([]Character, error)
}

// SubscriptionRequest is the wire shape of one subscription batch.
type SubscriptionRequest struct {
	Service    string   `json:"service"`
	Action     string   `json:"action"`
	Characters []string `json:"characters"`
	Worlds     []string `json:"worlds"`
	EventNames []string `json:"eventNames"`
}

// SubscriptionResult summarizes one Subscribe call.
type SubscriptionResult struct {
	Added          []string
	AlreadyTracked []string
	Batches        int
}

// RosterOption applies a configuration option to the Roster.
type RosterOption func(*Roster)

// WithSender sets the transport used for subscription requests.
func WithSender(s Sender) RosterOption {
	return func(r *Roster) { r.sender = s }
}

// WithResolver sets the identity enrichment collaborator.
func WithResolver(res CharacterResolver) RosterOption {
	return func(r *Roster) { r.resolver = res }
}

// WithBatchSize overrides the subscription chunk size.
func WithBatchSize(n int) RosterOption {
	return func(r *Roster) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithWorldID sets the world filter on subscription requests.
func WithWorldID(id string) RosterOption {
	return func(r *Roster) { r.worldID = id }
}

// Roster manages which identities the session tracks. Subscribe is
// idempotent per identity and chunks transport requests deterministically
// in input order.
type Roster struct {
	store     *Store
	sender    Sender
	resolver  CharacterResolver
	batchSize int
	worldID   string
	log       logger.Logger
}

// NewRoster creates a Roster over store.
func NewRoster(store *Store, opts ...RosterOption) *Roster {
	r := &Roster{
		store:     store,
		batchSize: DefaultBatchSize,
		worldID:   "17",
		log:       logger.Named("roster"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Subscribe adds the given identities to the roster. Identities already
// tracked are skipped. New identities get a state record immediately, a
// subscription request in fixed-size batches, and enrichment from the
// lookup collaborator before Subscribe returns. Enrichment failures leave
// placeholder records and surface as an error alongside the result.
func (r *Roster) Subscribe(ctx context.Context, ids []string) (SubscriptionResult, error) {
	if r.sender == nil {
		return SubscriptionResult{}, ErrNoSender
	}

	var res SubscriptionResult
	for _, id := range ids {
		if id == "" {
			continue
		}
		if r.store.Add(NewTrackedPlayer(id)) {
			res.Added = append(res.Added, id)
		} else {
			res.AlreadyTracked = append(res.AlreadyTracked, id)
		}
	}

	metrics.RecordSubscriptionRequest()
	metrics.UpdateTrackedPlayers(r.store.Len())

	if len(res.Added) == 0 {
		return res, nil
	}

	for start := 0; start < len(res.Added); start += r.batchSize {
		end := start + r.batchSize
		if end > len(res.Added) {
			end = len(res.Added)
		}
		req := SubscriptionRequest{
			Service:    "event",
			Action:     "subscribe",
			Characters: res.Added[start:end],
			Worlds:     []string{r.worldID},
			EventNames: SubscribedEventNames,
		}
		if err := r.sender.Send(req); err != nil {
			return res, fmt.Errorf("subscribe batch %d: %w", res.Batches, err)
		}
		res.Batches++
	}

	r.log.Info(ctx, "roster subscription sent",
		logger.Int("added", len(res.Added)),
		logger.Int("alreadyTracked", len(res.AlreadyTracked)),
		logger.Int("batches", res.Batches))

	if err := r.enrich(ctx, res.Added); err != nil {
		return res, err
	}
	return res, nil
}

// enrich joins lookup records into the freshly added state records.
func (r *Roster) enrich(ctx context.Context, ids []string) error {
	if r.resolver == nil {
		return nil
	}

	chars, err := r.resolver.Characters(ctx, ids)
	if err != nil {
		r.log.Error(ctx, "identity enrichment failed", logger.Error(err))
		return fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	for _, c := range chars {
		r.store.ApplyCharacter(c)
	}
	return nil
}
