package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/cache"
	"github.com/pable/go-raid-metrics/internal/report"
	"github.com/pable/go-raid-metrics/internal/storage"
	"github.com/pable/go-raid-metrics/internal/views"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Open a persistent session against the database. Fetched seasons are cached
for CACHE_TTL (default 5m); 'invalidate' drops the cache after an import from
another terminal. Type 'help' for available commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

// shellSession is the state kept between REPL commands.
type shellSession struct {
	db     *storage.DB
	cached *storage.CachedSource
	svc    *views.Service
	sel    views.Selection
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	c := cache.New(cfg.CacheTTL)
	cached := storage.NewCachedSource(db, c, log)
	s := &shellSession{
		db:     db,
		cached: cached,
		svc:    views.NewService(cached, log),
		sel:    views.Selection{Guild: guild, Season: season},
	}
	if s.sel.Season == "" {
		if seasons, err := seasonCodes(ctx, db); err == nil {
			s.sel.Season = views.LatestSeason(seasons)
		}
	}

	cGreeting.Println("raidmetrics shell")
	cMuted.Printf("selection: %s (change with 'use <guild> [season]')\n", s.sel)
	cMuted.Printf("fetched seasons are cached for %s\n", c.TTL())
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("raidmetrics")
		cMuted.Printf("[%s]> ", s.prompt())
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		var err error
		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "use":
			s.use(args)
		case "seasons":
			err = s.seasons(ctx)
		case "guilds":
			err = s.guilds(ctx)
		case "performance", "perf":
			err = s.performance(ctx, args)
		case "ranking":
			err = s.ranking(ctx, args)
		case "tokens":
			err = s.tokens(ctx)
		case "leaderboard", "lb":
			err = s.leaderboard(ctx, args)
		case "compare":
			err = s.compare(ctx, args)
		case "player":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: player <name>")
				continue
			}
			err = s.player(ctx, strings.Join(args, " "))
		case "invalidate":
			s.cached.InvalidateAll()
			cMuted.Println("cache cleared")
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q: type 'help'\n", name)
		}
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"use <guild> [season]", "change the selection ('use - 70' clears the guild)"},
		{"seasons", "list stored seasons"},
		{"guilds", "list guilds of the selected season"},
		{"performance [bosses]", "players vs guild and cluster averages"},
		{"ranking [avg]", "rank players by total (or average) damage"},
		{"tokens", "token usage per player and category"},
		{"leaderboard [verbose]", "season awards and points"},
		{"compare [baseline-season]", "guild vs cluster and vs a baseline season"},
		{"player <name>", "a player's token history"},
		{"invalidate", "drop cached seasons"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-30s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *shellSession) prompt() string {
	g := s.sel.Guild
	if g == "" {
		g = "*"
	}
	return g + "/" + s.sel.Season
}

func (s *shellSession) use(args []string) {
	if len(args) == 0 {
		cError.Fprintln(os.Stderr, "usage: use <guild> [season]")
		return
	}
	s.sel.Guild = args[0]
	if s.sel.Guild == "-" {
		s.sel.Guild = ""
	}
	if len(args) > 1 {
		s.sel.Season = args[1]
	}
	cMuted.Printf("selection: %s\n", s.sel)
}

func (s *shellSession) seasons(ctx context.Context) error {
	seasons, err := s.db.ListSeasons(ctx)
	if err != nil {
		return err
	}
	if len(seasons) == 0 {
		cMuted.Println("No raid events stored yet.")
		return nil
	}
	report.PrintSeasonList(os.Stdout, seasons)
	return nil
}

func (s *shellSession) guilds(ctx context.Context) error {
	guilds, err := s.db.ListGuilds(ctx, s.sel.Season)
	if err != nil {
		return err
	}
	report.PrintGuildList(os.Stdout, guilds)
	return nil
}

func (s *shellSession) performance(ctx context.Context, args []string) error {
	v, err := s.svc.Performance(ctx, s.sel, slices.Contains(args, "bosses"))
	if err != nil {
		return err
	}
	cHeader.Printf("\n--- Performance: %s ---\n\n", s.sel)
	report.PrintComparisonTable(os.Stdout, v.Rows, "")
	return nil
}

func (s *shellSession) ranking(ctx context.Context, args []string) error {
	v, err := s.svc.Ranking(ctx, s.sel, slices.Contains(args, "avg"))
	if err != nil {
		return err
	}
	cHeader.Printf("\n--- Ranking: %s ---\n\n", s.sel)
	report.PrintRankingTable(os.Stdout, v.Rows)
	return nil
}

func (s *shellSession) tokens(ctx context.Context) error {
	v, err := s.svc.Tokens(ctx, s.sel)
	if err != nil {
		return err
	}
	cHeader.Printf("\n--- Tokens: %s ---\n\n", s.sel)
	report.PrintTokenTable(os.Stdout, v.Usage, v.Categories, v.Lost)
	return nil
}

func (s *shellSession) leaderboard(ctx context.Context, args []string) error {
	res, err := s.svc.Leaderboard(ctx, s.sel)
	if err != nil {
		return err
	}
	cHeader.Printf("\n--- Leaderboard: %s ---\n\n", s.sel)
	report.PrintSetWinners(os.Stdout, res.SetWinners)
	report.PrintSeasonAwards(os.Stdout, res.SeasonAwards)
	fmt.Println()
	report.PrintStandings(os.Stdout, res.PlayerPoints, slices.Contains(args, "verbose"))
	return nil
}

func (s *shellSession) compare(ctx context.Context, args []string) error {
	baseline := ""
	if len(args) > 0 {
		baseline = args[0]
	} else if seasons, err := seasonCodes(ctx, s.db); err == nil {
		baseline = views.PreviousSeason(seasons, s.sel.Season)
	}
	v, err := s.svc.GuildComparison(ctx, s.sel, baseline)
	if err != nil {
		return err
	}
	cHeader.Printf("\n--- %s vs cluster ---\n\n", s.sel)
	report.PrintGuildComparisonTable(os.Stdout, v.VsCluster, "CLUSTER")
	if v.BaselineSeason != "" {
		cHeader.Printf("\n--- %s vs season %s ---\n\n", s.sel, v.BaselineSeason)
		report.PrintGuildComparisonTable(os.Stdout, v.VsSelf, "S"+v.BaselineSeason)
	}
	return nil
}

func (s *shellSession) player(ctx context.Context, name string) error {
	hist, err := s.svc.PlayerHistory(ctx, s.sel, name)
	if err != nil {
		return err
	}
	cHeader.Printf("\n--- %s: %s ---\n\n", name, s.sel)
	report.PrintPlayerHistory(os.Stdout, hist)
	return nil
}
