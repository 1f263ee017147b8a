package aggregator

import (
	"slices"
	"strings"

	"github.com/pable/go-raid-metrics/internal/model"
)

// MinComparisonRecords is the number of qualifying records a player needs
// against a boss before the pair shows up in a comparison.
const MinComparisonRecords = 2

type bossCategoryKey struct {
	boss     string
	category string
}

// bossCategoryAverages groups the filtered records by (boss, token category).
func bossCategoryAverages(records []model.ScoredRecord, filter FilterSpec) map[bossCategoryKey]model.AggregateRow {
	groups := make(map[bossCategoryKey]*groupAccum)
	for i := range records {
		r := &records[i]
		if !filter.Match(r) {
			continue
		}
		k := bossCategoryKey{r.Name, r.TokenCategory}
		g := groups[k]
		if g == nil {
			g = &groupAccum{}
			groups[k] = g
		}
		g.add(r)
	}
	out := make(map[bossCategoryKey]model.AggregateRow, len(groups))
	for k, g := range groups {
		out[k] = g.row(nil)
	}
	return out
}

// PercentDiff returns (value/baseline - 1) * 100, or 0 when baseline is not positive.
func PercentDiff(value, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return (value/baseline - 1) * 100
}

// CompareToBaselines compares every player of guild against the guild and
// cluster averages for the same (boss, token category). records must hold the
// whole cluster; the guild scope is taken from it. Pairs where the player has
// fewer than MinComparisonRecords qualifying records are dropped.
func CompareToBaselines(records []model.ScoredRecord, guild string, filter FilterSpec) []model.ComparisonRow {
	clusterFilter := filter
	clusterFilter.Guild = ""
	guildFilter := filter
	guildFilter.Guild = guild

	cluster := bossCategoryAverages(records, clusterFilter)
	guildAvgs := bossCategoryAverages(records, guildFilter)

	var out []model.ComparisonRow
	for _, st := range PlayerBossStats(records, guildFilter) {
		if st.Count < MinComparisonRecords {
			continue
		}
		k := bossCategoryKey{st.Boss, st.TokenCategory}
		clusterAvg := cluster[k].Avg
		guildAvg := guildAvgs[k].Avg
		out = append(out, model.ComparisonRow{
			PlayerBossStat: st,
			ClusterAvg:     clusterAvg,
			GuildAvg:       guildAvg,
			VsClusterPct:   PercentDiff(st.AvgDamage, clusterAvg),
			VsGuildPct:     PercentDiff(st.AvgDamage, guildAvg),
		})
	}
	return out
}

// CompareGuildToCluster compares guild's per-(boss, token category) averages
// against the whole cluster's.
func CompareGuildToCluster(records []model.ScoredRecord, guild string, filter FilterSpec) []model.GuildComparisonRow {
	clusterFilter := filter
	clusterFilter.Guild = ""
	guildFilter := filter
	guildFilter.Guild = guild
	return compareGroups(
		bossCategoryAverages(records, guildFilter),
		bossCategoryAverages(records, clusterFilter),
	)
}

// CompareGuildToSelf compares guild's averages in current against its own
// averages in baseline, typically the previous season. Groups missing from
// baseline get a zero baseline and a zero percentage.
func CompareGuildToSelf(current, baseline []model.ScoredRecord, guild string, filter FilterSpec) []model.GuildComparisonRow {
	f := filter
	f.Guild = guild
	f.Season = ""
	return compareGroups(
		bossCategoryAverages(current, f),
		bossCategoryAverages(baseline, f),
	)
}

func compareGroups(subject, baseline map[bossCategoryKey]model.AggregateRow) []model.GuildComparisonRow {
	out := make([]model.GuildComparisonRow, 0, len(subject))
	for k, row := range subject {
		base := baseline[k]
		out = append(out, model.GuildComparisonRow{
			Boss:          k.boss,
			TokenCategory: k.category,
			Count:         row.Count,
			GuildAvg:      row.Avg,
			BaselineCount: base.Count,
			BaselineAvg:   base.Avg,
			VsBaselinePct: PercentDiff(row.Avg, base.Avg),
		})
	}
	slices.SortFunc(out, func(a, b model.GuildComparisonRow) int {
		if c := strings.Compare(a.Boss, b.Boss); c != 0 {
			return c
		}
		return strings.Compare(a.TokenCategory, b.TokenCategory)
	})
	return out
}
