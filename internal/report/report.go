package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-raid-metrics/internal/leaderboard"
	"github.com/pable/go-raid-metrics/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
			// headers are printed as given; token categories are data
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
	}))
}

// PrintHeader prints a one-line header naming what the following table covers.
func PrintHeader(w io.Writer, title, guild, season string) {
	if guild == "" {
		guild = "all guilds"
	}
	if season == "" {
		season = "all"
	}
	fmt.Fprintf(w, "\n%s  |  Guild: %s  |  Season: %s\n\n", title, guild, season)
}

func fmtDamage(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// fmtPct renders a signed percentage difference.
func fmtPct(p float64) string {
	if p == 0 {
		return "—"
	}
	return fmt.Sprintf("%+.1f%%", p)
}

func sampleFlag(n int) string {
	switch {
	case n >= 10:
		return "OK"
	case n >= 5:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// PrintComparisonTable prints player averages against guild and cluster
// averages per (boss, token category). If focus is non-empty, that player's
// rows are marked with ">".
func PrintComparisonTable(w io.Writer, rows []model.ComparisonRow, focus string) {
	table := newTable(w)
	table.Header(" ", "BOSS", "CATEGORY", "PLAYER", "N", "AVG", "MAX", "GUILD AVG", "VS GUILD",
		"CLUSTER AVG", "VS CLUSTER", "SAMPLE")

	for _, r := range rows {
		marker := " "
		if focus != "" && r.Player == focus {
			marker = ">"
		}
		table.Append(
			marker,
			r.Boss,
			r.TokenCategory,
			r.Player,
			strconv.Itoa(r.Count),
			fmtDamage(r.AvgDamage),
			fmtDamage(r.MaxHit),
			fmtDamage(r.GuildAvg),
			fmtPct(r.VsGuildPct),
			fmtDamage(r.ClusterAvg),
			fmtPct(r.VsClusterPct),
			sampleFlag(r.Count),
		)
	}
	table.Render()
}

// PrintGuildComparisonTable prints a guild's averages against a baseline.
// baseline names the baseline column ("CLUSTER", "S69", ...).
func PrintGuildComparisonTable(w io.Writer, rows []model.GuildComparisonRow, baseline string) {
	table := newTable(w)
	table.Header("BOSS", "CATEGORY", "N", "GUILD AVG", baseline+" N", baseline+" AVG", "DIFF")

	for _, r := range rows {
		baseAvg := "—"
		if r.BaselineCount > 0 {
			baseAvg = fmtDamage(r.BaselineAvg)
		}
		table.Append(
			r.Boss,
			r.TokenCategory,
			strconv.Itoa(r.Count),
			fmtDamage(r.GuildAvg),
			strconv.Itoa(r.BaselineCount),
			baseAvg,
			fmtPct(r.VsBaselinePct),
		)
	}
	table.Render()
}

// PrintRankingTable prints ranked players.
func PrintRankingTable(w io.Writer, rows []model.PlayerRanking) {
	table := newTable(w)
	table.Header("#", "PLAYER", "TOKENS", "TOTAL", "AVG")
	for _, r := range rows {
		table.Append(
			strconv.Itoa(r.Rank),
			r.Player,
			strconv.Itoa(r.Tokens),
			fmtDamage(r.Total),
			fmtDamage(r.Average),
		)
	}
	table.Render()
}

// PrintTokenTable prints token usage per player with one column per category,
// followed by the lost-token count.
func PrintTokenTable(w io.Writer, usage []model.TokenUsage, categories []string, lost int) {
	table := newTable(w)
	header := []any{"PLAYER", "TOKENS", "BOMBS"}
	for _, c := range categories {
		header = append(header, c)
	}
	table.Header(header...)

	for _, u := range usage {
		row := []any{u.Player, strconv.Itoa(u.Tokens), strconv.Itoa(u.Bombs)}
		for _, c := range categories {
			n := u.ByCategory[c]
			cell := "—"
			if n > 0 {
				cell = strconv.Itoa(n)
			}
			row = append(row, cell)
		}
		table.Append(row...)
	}
	table.Render()
	fmt.Fprintf(w, "Lost tokens: %d\n", lost)
}

func fmtAward(a leaderboard.Award) string {
	if !a.Awarded() {
		return "—"
	}
	return fmt.Sprintf("%s (%s)", a.Player, fmtDamage(a.Value))
}

// PrintSetWinners prints one row per boss level with its winners.
func PrintSetWinners(w io.Writer, sets []leaderboard.SetWinners) {
	table := newTable(w)
	table.Header("LEVEL", "GOLD", "SILVER", "BRONZE", "MOST DAMAGE", "SIDE BOSS 1", "SIDE BOSS 2", "BIGGEST HIT")

	for _, s := range sets {
		medals := make([]string, 3)
		for i := range medals {
			medals[i] = "—"
			if i < len(s.Medals) {
				medals[i] = fmtAward(s.Medals[i])
			}
		}
		table.Append(
			"L"+strconv.Itoa(s.Level()),
			medals[0],
			medals[1],
			medals[2],
			fmtAward(s.MostDamage),
			fmtAward(s.SideBoss1),
			fmtAward(s.SideBoss2),
			fmtAward(s.BiggestHit),
		)
	}
	table.Render()
}

// PrintSeasonAwards prints the season-wide awards.
func PrintSeasonAwards(w io.Writer, a leaderboard.SeasonAwards) {
	kills := "—"
	if a.TopKiller.Awarded() {
		kills = fmt.Sprintf("%s (%d kills)", a.TopKiller.Player, int(a.TopKiller.Value))
	}
	fmt.Fprintf(w, "Top Killer: %s  |  Best Bomber: %s\n", kills, fmtAward(a.BestBomber))
}

// PrintStandings prints the points table. With verbose set, each player's
// breakdown follows on its own lines.
func PrintStandings(w io.Writer, points []leaderboard.PlayerPoints, verbose bool) {
	table := newTable(w)
	table.Header("#", "PLAYER", "POINTS", "AWARDS")
	for i, p := range points {
		table.Append(
			strconv.Itoa(i+1),
			p.Player,
			strconv.FormatFloat(p.Points, 'f', -1, 64),
			fmtAwardCounts(p.Awards),
		)
	}
	table.Render()

	if !verbose {
		return
	}
	for _, p := range points {
		fmt.Fprintf(w, "  %-20s  %s\n", p.Player, strings.Join(p.Breakdown, ", "))
	}
}

// fmtAwardCounts renders {"Gold": 2, "Top Killer": 1} as "2x Gold, Top Killer".
func fmtAwardCounts(awards map[string]int) string {
	names := make([]string, 0, len(awards))
	for n := range awards {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if c := awards[n]; c > 1 {
			parts = append(parts, fmt.Sprintf("%dx %s", c, n))
		} else {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, ", ")
}

// PrintAggregateTable prints generic aggregation rows with one column per key field.
func PrintAggregateTable(w io.Writer, keys []string, rows []model.AggregateRow) {
	table := newTable(w)
	header := make([]any, 0, len(keys)+6)
	for _, k := range keys {
		header = append(header, strings.ToUpper(k))
	}
	header = append(header, "N", "TOTAL", "AVG", "MAX", "W TOTAL", "W AVG")
	table.Header(header...)

	for _, r := range rows {
		row := make([]any, 0, len(header))
		for _, k := range r.Key {
			row = append(row, k)
		}
		row = append(row,
			strconv.Itoa(r.Count),
			fmtDamage(r.Total),
			fmtDamage(r.Avg),
			fmtDamage(r.Max),
			fmt.Sprintf("%.2f", r.WeightedTotal),
			fmt.Sprintf("%.3f", r.WeightedAvg),
		)
		table.Append(row...)
	}
	table.Render()
}

// PrintSeasonList prints one row per stored season.
func PrintSeasonList(w io.Writer, seasons []model.SeasonSummary) {
	table := newTable(w)
	table.Header("SEASON", "GUILDS", "PLAYERS", "EVENTS", "LOOPS")
	for _, s := range seasons {
		table.Append(
			s.Season,
			strconv.Itoa(s.Guilds),
			strconv.Itoa(s.Players),
			strconv.Itoa(s.Events),
			strconv.Itoa(s.Loops),
		)
	}
	table.Render()
}

// PrintGuildList prints one row per guild and season.
func PrintGuildList(w io.Writer, guilds []model.GuildSummary) {
	table := newTable(w)
	table.Header("GUILD", "SEASON", "PLAYERS", "EVENTS", "DAMAGE")
	for _, g := range guilds {
		table.Append(
			g.Guild,
			g.Season,
			strconv.Itoa(g.Players),
			strconv.Itoa(g.Events),
			fmtDamage(g.Damage),
		)
	}
	table.Render()
}

// PrintPlayerHistory prints a player's tokens, most recent first.
func PrintPlayerHistory(w io.Writer, records []model.IndexedRecord) {
	table := newTable(w)
	table.Header("#", "GROUP", "SEASON", "LOOP", "BOSS", "CATEGORY", "TYPE", "DAMAGE", "REMAINING", "CASE", "SCORE")
	for _, r := range records {
		remaining := "—"
		if r.RemainingHP != float64(model.Unset) {
			remaining = fmtDamage(r.RemainingHP)
		}
		loop := "—"
		if r.LoopIndex != model.Unset {
			loop = strconv.Itoa(r.LoopIndex)
		}
		table.Append(
			strconv.Itoa(r.PlayerTokenIndex),
			strconv.Itoa(r.SeasonLoopBossIndex),
			r.Season,
			loop,
			r.Name,
			r.TokenCategory,
			r.DamageType,
			fmtDamage(r.DamageDealt),
			remaining,
			r.SpecialCase.String(),
			fmt.Sprintf("%.3f", r.WeightedContribution),
		)
	}
	table.Render()
}
