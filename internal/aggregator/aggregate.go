package aggregator

import (
	"cmp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/pable/go-raid-metrics/internal/model"
)

// Field is one component of a grouping key.
type Field int

const (
	FieldPlayer Field = iota
	FieldBoss
	FieldTokenCategory
	FieldGuild
	FieldSeason
	FieldLoop
	FieldTier
	FieldSet
	FieldDamageType
)

func (f Field) String() string {
	switch f {
	case FieldPlayer:
		return "player"
	case FieldBoss:
		return "boss"
	case FieldTokenCategory:
		return "category"
	case FieldGuild:
		return "guild"
	case FieldSeason:
		return "season"
	case FieldLoop:
		return "loop"
	case FieldTier:
		return "tier"
	case FieldSet:
		return "set"
	case FieldDamageType:
		return "type"
	default:
		return "?"
	}
}

// ParseField maps a field name (as printed by Field.String) back to a Field.
func ParseField(s string) (Field, bool) {
	for f := FieldPlayer; f <= FieldDamageType; f++ {
		if f.String() == strings.ToLower(strings.TrimSpace(s)) {
			return f, true
		}
	}
	return 0, false
}

// KeySpec lists the fields a grouping key is built from, in order.
type KeySpec []Field

func (k KeySpec) values(r *model.ScoredRecord) []string {
	out := make([]string, len(k))
	for i, f := range k {
		switch f {
		case FieldPlayer:
			out[i] = r.DisplayName
		case FieldBoss:
			out[i] = r.Name
		case FieldTokenCategory:
			out[i] = r.TokenCategory
		case FieldGuild:
			out[i] = r.Guild
		case FieldSeason:
			out[i] = r.Season
		case FieldLoop:
			out[i] = strconv.Itoa(r.LoopIndex)
		case FieldTier:
			out[i] = strconv.Itoa(r.Tier)
		case FieldSet:
			out[i] = strconv.Itoa(r.Set)
		case FieldDamageType:
			out[i] = r.DamageType
		}
	}
	return out
}

// FilterSpec selects the records that take part in an aggregation.
// Zero values mean "no restriction".
type FilterSpec struct {
	Exclude    []model.SpecialCase
	BossesOnly bool // drop prime encounters (encounterId > 0)
	Guild      string
	Season     string
	DamageType string
	Player     string
}

// PerformanceFilter is the standard filter for performance views: last hits
// and crashes are left out.
func PerformanceFilter() FilterSpec {
	return FilterSpec{Exclude: []model.SpecialCase{model.LastHit, model.Crash}}
}

// Match reports whether a record passes the filter.
func (f FilterSpec) Match(r *model.ScoredRecord) bool {
	if slices.Contains(f.Exclude, r.SpecialCase) {
		return false
	}
	if f.BossesOnly && r.EncounterID > 0 {
		return false
	}
	if f.Guild != "" && r.Guild != f.Guild {
		return false
	}
	if f.Season != "" && r.Season != f.Season {
		return false
	}
	if f.DamageType != "" && r.DamageType != f.DamageType {
		return false
	}
	if f.Player != "" && r.DisplayName != f.Player {
		return false
	}
	return true
}

// groupAccum gathers a group's values; sums are taken in sorted order so the
// result is independent of input order.
type groupAccum struct {
	damages  []float64
	weighted []float64
}

func (a *groupAccum) add(r *model.ScoredRecord) {
	a.damages = append(a.damages, r.DamageDealt)
	a.weighted = append(a.weighted, r.WeightedContribution)
}

// SortedSum adds xs in ascending order, so the result does not depend on the
// order the values arrived in.
func SortedSum(xs []float64) float64 {
	cp := slices.Clone(xs)
	sort.Float64s(cp)
	var s float64
	for _, x := range cp {
		s += x
	}
	return s
}

func (a *groupAccum) row(key []string) model.AggregateRow {
	row := model.AggregateRow{Key: key, Count: len(a.damages)}
	if row.Count == 0 {
		return row
	}
	row.Total = SortedSum(a.damages)
	row.WeightedTotal = SortedSum(a.weighted)
	row.Max = slices.Max(a.damages)
	row.Avg = row.Total / float64(row.Count)
	row.WeightedAvg = row.WeightedTotal / float64(row.Count)
	return row
}

const keySep = "\x1f"

// AggregateByGroup groups the records that pass filter by keySpec and returns
// count, sum, mean and max per group. Rows are ordered by total desc, count
// desc, then key ascending.
func AggregateByGroup(records []model.ScoredRecord, keySpec KeySpec, filter FilterSpec) []model.AggregateRow {
	groups := make(map[string]*groupAccum)
	keys := make(map[string][]string)
	for i := range records {
		r := &records[i]
		if !filter.Match(r) {
			continue
		}
		vals := keySpec.values(r)
		k := strings.Join(vals, keySep)
		g := groups[k]
		if g == nil {
			g = &groupAccum{}
			groups[k] = g
			keys[k] = vals
		}
		g.add(r)
	}

	out := make([]model.AggregateRow, 0, len(groups))
	for k, g := range groups {
		out = append(out, g.row(keys[k]))
	}
	slices.SortFunc(out, func(a, b model.AggregateRow) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return slices.Compare(a.Key, b.Key)
	})
	return out
}

// playerBossKey groups a player's hits on one boss within one token category.
type playerBossKey struct {
	player   string
	boss     string
	category string
}

// PlayerBossStats aggregates qualifying records per (player, boss, token category).
// Rows are ordered by boss, category, average desc, count desc, player.
func PlayerBossStats(records []model.ScoredRecord, filter FilterSpec) []model.PlayerBossStat {
	groups := make(map[playerBossKey]*groupAccum)
	for i := range records {
		r := &records[i]
		if !filter.Match(r) {
			continue
		}
		k := playerBossKey{r.DisplayName, r.Name, r.TokenCategory}
		g := groups[k]
		if g == nil {
			g = &groupAccum{}
			groups[k] = g
		}
		g.add(r)
	}

	out := make([]model.PlayerBossStat, 0, len(groups))
	for k, g := range groups {
		row := g.row(nil)
		out = append(out, model.PlayerBossStat{
			Player:        k.player,
			Boss:          k.boss,
			TokenCategory: k.category,
			TotalDamage:   row.Total,
			Count:         row.Count,
			MaxHit:        row.Max,
			AvgDamage:     row.Avg,
			WeightedAvg:   row.WeightedAvg,
		})
	}
	slices.SortFunc(out, comparePlayerBossStat)
	return out
}

func comparePlayerBossStat(a, b model.PlayerBossStat) int {
	if c := strings.Compare(a.Boss, b.Boss); c != 0 {
		return c
	}
	if c := strings.Compare(a.TokenCategory, b.TokenCategory); c != 0 {
		return c
	}
	if c := cmp.Compare(b.AvgDamage, a.AvgDamage); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	return strings.Compare(a.Player, b.Player)
}
