package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opstrack/opstrack/internal/adapters/lookup"
	"github.com/opstrack/opstrack/internal/domain/correlate"
	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
	"github.com/opstrack/opstrack/internal/domain/stats"
	"github.com/opstrack/opstrack/internal/domain/tracker"
	"github.com/opstrack/opstrack/pkg/logger"
	"github.com/opstrack/opstrack/pkg/metrics"
)

// DefaultBoardSize is the number of rows per session leaderboard.
const DefaultBoardSize = 5

// DefaultLifeHorizonSeconds caps the life-after-revive survival samples.
const DefaultLifeHorizonSeconds = 20.0

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithResolver sets the metadata lookup collaborator.
func WithResolver(r lookup.Resolver) Option {
	return func(g *Generator) { g.resolver = r }
}

// WithRouters sets the router collection joined into session reports.
func WithRouters(rt *tracker.RouterTracker) Option {
	return func(g *Generator) { g.routers = rt }
}

// WithCaptures sets the capture log joined into session reports.
func WithCaptures(c *tracker.CaptureLog) Option {
	return func(g *Generator) { g.captures = c }
}

// WithMinKills overrides the ratio suppression floor.
func WithMinKills(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.minKills = n
		}
	}
}

// WithTrendBucketSeconds overrides the trend window width.
func WithTrendBucketSeconds(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.bucketSeconds = n
		}
	}
}

// WithReviveWindow overrides the revive correlation window.
func WithReviveWindow(ms int64) Option {
	return func(g *Generator) {
		if ms > 0 {
			g.reviveWindowMS = ms
		}
	}
}

// Generator builds reports from the tracked state. Every build starts
// from store snapshots taken under the store lock, so reports stay
// consistent while ingestion keeps running.
type Generator struct {
	store    *tracker.Store
	routers  *tracker.RouterTracker
	captures *tracker.CaptureLog
	resolver lookup.Resolver

	minKills       int
	bucketSeconds  int
	reviveWindowMS int64
	boardSize      int

	log logger.Logger
}

// NewGenerator creates a Generator over store.
func NewGenerator(store *tracker.Store, opts ...Option) *Generator {
	g := &Generator{
		store:          store,
		minKills:       stats.DefaultMinKills,
		bucketSeconds:  stats.DefaultTrendBucketSeconds,
		reviveWindowMS: correlate.DefaultReviveWindowMS,
		boardSize:      DefaultBoardSize,
		log:            logger.Named("report"),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Personal builds the report for one identity. An untracked identity or
// one with zero events yields an empty, fully formed report rather than
// an error.
func (g *Generator) Personal(ctx context.Context, characterID string) (*PersonalReport, error) {
	started := time.Now()
	defer func() { metrics.RecordReportLatency(time.Since(started).Seconds()) }()

	target, ok := g.store.Snapshot(characterID)
	if !ok {
		return &PersonalReport{
			CharacterID: characterID,
			Name:        placeholderName(characterID),
			ClassUsage:  stats.ApportionClassTime(ctx, nil),
		}, nil
	}

	rep := g.buildPersonal(ctx, target)
	// Support received lives in the other players' logs, so the whole
	// store is snapshotted even for a single report.
	g.buildSupport([]*PersonalReport{rep}, g.store.SnapshotAll())
	g.joinWeaponNames(ctx, []*PersonalReport{rep})
	return rep, nil
}

// Session builds the full session report. Per-player sub-reports fan out
// to worker goroutines and are joined before metadata enrichment.
func (g *Generator) Session(ctx context.Context, startedAt, stoppedAt int64) (*SessionReport, error) {
	started := time.Now()
	defer func() { metrics.RecordReportLatency(time.Since(started).Seconds()) }()

	snaps := g.store.SnapshotAll()

	reports := make([]*PersonalReport, len(snaps))
	var wg sync.WaitGroup
	for i, snap := range snaps {
		wg.Add(1)
		go func(i int, snap tracker.PlayerSnapshot) {
			defer wg.Done()
			reports[i] = g.buildPersonal(ctx, snap)
		}(i, snap)
	}
	wg.Wait()

	g.buildSupport(reports, snaps)
	g.joinWeaponNames(ctx, reports)

	rep := &SessionReport{
		StartedAt: startedAt,
		StoppedAt: stoppedAt,
		Players:   reports,
		Boards:    buildBoards(reports, g.boardSize),
	}
	if g.routers != nil {
		rep.Routers = g.routers.All()
	}
	if g.captures != nil {
		rep.Captures = g.joinCaptures(ctx, g.captures.All())
	}
	return rep, nil
}

// buildPersonal derives one player's report from its snapshot. The
// snapshot's log is owned by the build, so revive linking mutates it
// freely.
func (g *Generator) buildPersonal(ctx context.Context, p tracker.PlayerSnapshot) *PersonalReport {
	log := p.Events
	correlate.LinkRevives(log, g.reviveWindowMS)

	rep := &PersonalReport{
		CharacterID:   p.CharacterID,
		Name:          p.Name,
		FactionID:     p.FactionID,
		OutfitTag:     p.OutfitTag,
		SecondsOnline: p.SecondsOnline,

		Score:      stats.TotalScore(log),
		Calculated: stats.CalculatedStats(log, p.Stats, p.SecondsOnline, g.minKills),
		MaxStreak:  correlate.MaxKillStreak(log),

		ClassUsage: stats.ApportionClassTime(ctx, log),
		Versus:     stats.ClassVersus(log),
		ScoreBoard: stats.ScoreBreakdown(log),

		MostPlayedZone:   stats.MostPlayedZone(log),
		KillsAfterRevive: correlate.KillsAfterRevive(log, 0),

		KPMTrend: stats.KPMTrend(log, g.bucketSeconds),
		KDTrend:  stats.KDTrend(log, g.bucketSeconds),
		RPMTrend: stats.RPMTrend(log, g.bucketSeconds),

		TimeToRevive:    stats.KaplanMeier(correlate.ReviveLatencies(log), 0),
		LifeAfterRevive: stats.KaplanMeier(correlate.LifeAfterRevive(log, DefaultLifeHorizonSeconds), 0),
		LifeDurations:   correlate.LifeDurations(log),
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(rep.LifeDurations)))
	if g.routers != nil {
		rep.Routers = g.routers.ByOwner(p.CharacterID)
	}

	weapons := make(map[string]*WeaponEntry)
	deployables := make(map[string]int)
	for _, ev := range log {
		switch ev.Type {
		case events.TypeKill:
			rep.Kills++
			if ev.Headshot {
				rep.Headshots++
			}
			w, ok := weapons[ev.WeaponID]
			if !ok {
				w = &WeaponEntry{WeaponID: ev.WeaponID}
				weapons[ev.WeaponID] = w
			}
			w.Kills++
			if ev.Headshot {
				w.Headshots++
			}
		case events.TypeDeath:
			if ev.Revived {
				rep.RevivedDeaths++
			} else {
				rep.Deaths++
			}
		case events.TypeExp:
			// Only exp the player earned counts toward support given.
			if ev.Mirrored {
				continue
			}
			switch {
			case gamedata.IsReviveExp(ev.ExpID):
				rep.Revives++
			case gamedata.IsHealExp(ev.ExpID):
				rep.Heals++
			case gamedata.IsResupplyExp(ev.ExpID):
				rep.Resupplies++
			case gamedata.IsRepairExp(ev.ExpID):
				rep.Repairs++
			case gamedata.IsShieldRepairExp(ev.ExpID):
				rep.Shields++
			}
			if gamedata.IsDeployableDestroyExp(ev.ExpID) {
				deployables[ev.ExpID]++
			}
		}
	}
	for _, w := range weapons {
		rep.Weapons = append(rep.Weapons, *w)
	}
	for id, n := range deployables {
		rep.Deployables = append(rep.Deployables, DeployableEntry{
			ExpID: id,
			Name:  gamedata.ExperienceName(id),
			Count: n,
		})
	}
	sort.Slice(rep.Deployables, func(i, j int) bool {
		if rep.Deployables[i].Count != rep.Deployables[j].Count {
			return rep.Deployables[i].Count > rep.Deployables[j].Count
		}
		return rep.Deployables[i].ExpID < rep.Deployables[j].ExpID
	})

	return rep
}

// buildSupport fills each report's SupportedBy rows. Support received
// lives in the giver's log (only revives are mirrored into the
// receiver's at ingest), so the rows are derived from every giver's
// snapshot.
func (g *Generator) buildSupport(reports []*PersonalReport, givers []tracker.PlayerSnapshot) {
	byID := make(map[string]*PersonalReport, len(reports))
	for _, rep := range reports {
		byID[rep.CharacterID] = rep
	}

	rows := make(map[string]map[string]*SupportRow)
	for _, giver := range givers {
		for _, ev := range giver.Events {
			if ev.Type != events.TypeExp || ev.Mirrored {
				continue
			}
			if ev.TargetID == "" || ev.TargetID == giver.CharacterID {
				continue
			}
			if _, ok := byID[ev.TargetID]; !ok {
				continue
			}

			byGiver, ok := rows[ev.TargetID]
			if !ok {
				byGiver = make(map[string]*SupportRow)
				rows[ev.TargetID] = byGiver
			}
			row, ok := byGiver[giver.CharacterID]
			if !ok {
				row = &SupportRow{CharacterID: giver.CharacterID, Name: giver.Name}
				byGiver[giver.CharacterID] = row
			}

			switch {
			case gamedata.IsHealExp(ev.ExpID):
				row.Heals++
			case gamedata.IsReviveExp(ev.ExpID):
				row.Revives++
			case gamedata.IsResupplyExp(ev.ExpID):
				row.Resupplies++
			case gamedata.IsRepairExp(ev.ExpID):
				row.Repairs++
			case gamedata.IsShieldRepairExp(ev.ExpID):
				row.Shields++
			}
		}
	}

	for receiverID, byGiver := range rows {
		rep := byID[receiverID]
		for _, row := range byGiver {
			if row.Heals+row.Revives+row.Resupplies+row.Repairs+row.Shields == 0 {
				continue
			}
			rep.SupportedBy = append(rep.SupportedBy, *row)
		}
		sort.Slice(rep.SupportedBy, func(i, j int) bool {
			a, b := rep.SupportedBy[i], rep.SupportedBy[j]
			ta := a.Heals + a.Revives + a.Resupplies + a.Repairs + a.Shields
			tb := b.Heals + b.Revives + b.Resupplies + b.Repairs + b.Shields
			if ta != tb {
				return ta > tb
			}
			return a.Name < b.Name
		})
	}
}

// joinWeaponNames resolves weapon display names for every report and
// sorts each weapon list by kills.
func (g *Generator) joinWeaponNames(ctx context.Context, reports []*PersonalReport) {
	ids := make([]string, 0)
	seen := make(map[string]struct{})
	for _, rep := range reports {
		for _, w := range rep.Weapons {
			if _, ok := seen[w.WeaponID]; !ok {
				seen[w.WeaponID] = struct{}{}
				ids = append(ids, w.WeaponID)
			}
		}
	}

	names := make(map[string]string, len(ids))
	if g.resolver != nil && len(ids) > 0 {
		records, err := g.resolver.Items(ctx, ids)
		if err != nil {
			g.log.Error(ctx, "weapon lookup failed", logger.Error(err))
			metrics.RecordReportError()
		}
		for _, rec := range records {
			names[rec.ID] = rec.Name
		}
	}

	for _, rep := range reports {
		for i := range rep.Weapons {
			if name, ok := names[rep.Weapons[i].WeaponID]; ok {
				rep.Weapons[i].Name = name
			} else {
				rep.Weapons[i].Name = placeholderName(rep.Weapons[i].WeaponID)
			}
		}
		sortWeapons(rep.Weapons)
	}
}

// joinCaptures enriches the capture log with facility names.
func (g *Generator) joinCaptures(ctx context.Context, captures []tracker.Capture) []CaptureEntry {
	ids := make([]string, 0, len(captures))
	seen := make(map[string]struct{})
	for _, c := range captures {
		if _, ok := seen[c.FacilityID]; !ok {
			seen[c.FacilityID] = struct{}{}
			ids = append(ids, c.FacilityID)
		}
	}

	names := make(map[string]string, len(ids))
	if g.resolver != nil && len(ids) > 0 {
		records, err := g.resolver.Facilities(ctx, ids)
		if err != nil {
			g.log.Error(ctx, "facility lookup failed", logger.Error(err))
			metrics.RecordReportError()
		}
		for _, rec := range records {
			names[rec.ID] = rec.Name
		}
	}

	out := make([]CaptureEntry, 0, len(captures))
	for _, c := range captures {
		name, ok := names[c.FacilityID]
		if !ok {
			name = placeholderName(c.FacilityID)
		}
		out = append(out, CaptureEntry{Capture: c, FacilityName: name})
	}
	return out
}

func buildBoards(reports []*PersonalReport, size int) Boards {
	var b Boards
	for _, rep := range reports {
		row := func(v float64) Leader {
			return Leader{CharacterID: rep.CharacterID, Name: rep.Name, Value: v}
		}
		b.Kills = append(b.Kills, row(float64(rep.Kills)))
		b.KD = append(b.KD, row(rep.Calculated.KD))
		b.KPM = append(b.KPM, row(rep.Calculated.KPM))
		b.Score = append(b.Score, row(float64(rep.Score)))
		b.Revives = append(b.Revives, row(float64(rep.Revives)))
		b.Heals = append(b.Heals, row(float64(rep.Heals)))
		b.Resupplies = append(b.Resupplies, row(float64(rep.Resupplies)))
		b.Repairs = append(b.Repairs, row(float64(rep.Repairs)))
		b.Shields = append(b.Shields, row(float64(rep.Shields)))

		b.Fun.LongestKillStreak = append(b.Fun.LongestKillStreak, row(float64(rep.MaxStreak)))
		b.Fun.HighestHSR = append(b.Fun.HighestHSR, row(rep.Calculated.HSR))
		b.Fun.UniqueWeapons = append(b.Fun.UniqueWeapons, row(float64(len(rep.Weapons))))
		b.Fun.MostRevived = append(b.Fun.MostRevived, row(float64(rep.RevivedDeaths)))
		b.Fun.KillsAfterRevive = append(b.Fun.KillsAfterRevive, row(float64(rep.KillsAfterRevive)))
		b.Fun.AvgLifeSeconds = append(b.Fun.AvgLifeSeconds, row(meanLife(rep.LifeDurations)))
		b.Fun.PercentRevived = append(b.Fun.PercentRevived, row(percentRevived(rep)))
	}

	b.Kills = sortLeaders(b.Kills, size)
	b.KD = sortLeaders(b.KD, size)
	b.KPM = sortLeaders(b.KPM, size)
	b.Score = sortLeaders(b.Score, size)
	b.Revives = sortLeaders(b.Revives, size)
	b.Heals = sortLeaders(b.Heals, size)
	b.Resupplies = sortLeaders(b.Resupplies, size)
	b.Repairs = sortLeaders(b.Repairs, size)
	b.Shields = sortLeaders(b.Shields, size)

	b.Fun.LongestKillStreak = sortLeaders(b.Fun.LongestKillStreak, size)
	b.Fun.HighestHSR = sortLeaders(b.Fun.HighestHSR, size)
	b.Fun.UniqueWeapons = sortLeaders(b.Fun.UniqueWeapons, size)
	b.Fun.MostRevived = sortLeaders(b.Fun.MostRevived, size)
	b.Fun.KillsAfterRevive = sortLeaders(b.Fun.KillsAfterRevive, size)
	b.Fun.AvgLifeSeconds = sortLeaders(b.Fun.AvgLifeSeconds, size)
	b.Fun.PercentRevived = sortLeaders(b.Fun.PercentRevived, size)

	return b
}

func meanLife(durations []float64) float64 {
	if len(durations) == 0 {
		return 0
	}
	var sum float64
	for _, d := range durations {
		sum += d
	}
	return sum / float64(len(durations))
}

func percentRevived(rep *PersonalReport) float64 {
	total := rep.Deaths + rep.RevivedDeaths
	if total == 0 {
		return 0
	}
	return 100 * float64(rep.RevivedDeaths) / float64(total)
}
