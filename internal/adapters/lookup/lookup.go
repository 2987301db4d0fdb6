// Package lookup resolves metadata IDs (identities, weapons, facilities)
// to display records for report enrichment. Resolution is batched and
// best-effort: unresolved IDs fall back to a placeholder record rather
// than failing the batch.
package lookup

import (
	"context"
	"fmt"

	"github.com/opstrack/opstrack/internal/domain/tracker"
	"github.com/opstrack/opstrack/pkg/metrics"
)

// Record is one resolved metadata entry.
type Record struct {
	ID   string
	Name string
}

// Placeholder is the fallback record for an unresolved ID.
func Placeholder(id string) Record {
	return Record{ID: id, Name: fmt.Sprintf("Unknown %s", id)}
}

// Resolver is the metadata lookup collaborator. Implementations must
// return one record per requested ID, substituting placeholders for IDs
// they cannot resolve, and must tolerate being called concurrently.
type Resolver interface {
	tracker.CharacterResolver

	// Items resolves weapon and item IDs.
	Items(ctx context.Context, ids []string) ([]Record, error)

	// Facilities resolves facility IDs.
	Facilities(ctx context.Context, ids []string) ([]Record, error)
}

// StaticOption applies a configuration option to the StaticResolver.
type StaticOption func(*StaticResolver)

// WithCharacters seeds identity records.
func WithCharacters(chars ...tracker.Character) StaticOption {
	return func(r *StaticResolver) {
		for _, c := range chars {
			r.characters[c.ID] = c
		}
	}
}

// WithItems seeds item records.
func WithItems(items ...Record) StaticOption {
	return func(r *StaticResolver) {
		for _, it := range items {
			r.items[it.ID] = it
		}
	}
}

// WithFacilities seeds facility records.
func WithFacilities(facilities ...Record) StaticOption {
	return func(r *StaticResolver) {
		for _, f := range facilities {
			r.facilities[f.ID] = f
		}
	}
}

// StaticResolver is an in-memory Resolver seeded at construction. It backs
// tests and offline replays; a live deployment substitutes an API-backed
// implementation behind the same interface.
type StaticResolver struct {
	characters map[string]tracker.Character
	items      map[string]Record
	facilities map[string]Record
}

// NewStaticResolver creates a StaticResolver with the given seed data.
func NewStaticResolver(opts ...StaticOption) *StaticResolver {
	r := &StaticResolver{
		characters: make(map[string]tracker.Character),
		items:      make(map[string]Record),
		facilities: make(map[string]Record),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Characters resolves identity IDs, substituting placeholder names for
// unknown identities.
func (r *StaticResolver) Characters(_ context.Context, ids []string) ([]tracker.Character, error) {
	out := make([]tracker.Character, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.characters[id]; ok {
			out = append(out, c)
			continue
		}
		metrics.RecordUnresolvedLookup()
		out = append(out, tracker.Character{ID: id, Name: Placeholder(id).Name})
	}
	return out, nil
}

// Items resolves item IDs with placeholder fallbacks.
func (r *StaticResolver) Items(_ context.Context, ids []string) ([]Record, error) {
	return resolve(r.items, ids), nil
}

// Facilities resolves facility IDs with placeholder fallbacks.
func (r *StaticResolver) Facilities(_ context.Context, ids []string) ([]Record, error) {
	return resolve(r.facilities, ids), nil
}

func resolve(table map[string]Record, ids []string) []Record {
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := table[id]; ok {
			out = append(out, rec)
			continue
		}
		metrics.RecordUnresolvedLookup()
		out = append(out, Placeholder(id))
	}
	return out
}
