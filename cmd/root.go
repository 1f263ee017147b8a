package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/config"
	"github.com/pable/go-raid-metrics/internal/logger"
	"github.com/pable/go-raid-metrics/internal/storage"
	"github.com/pable/go-raid-metrics/internal/views"
)

var (
	dbPath   string
	logLevel string
	guild    string
	season   string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "raidmetrics",
	Short: "Guild Raid analytics tool",
	Long: `Import Guild Raid combat logs and compute per-player performance,
token usage, guild comparisons and the season leaderboard.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		switch {
		case errors.Is(err, views.ErrUpstream):
			fmt.Fprintln(os.Stderr, "hint: the data source failed and nothing was computed; re-run the command to retry")
		case errors.Is(err, storage.ErrNoEvents):
			fmt.Fprintln(os.Stderr, "hint: check --guild/--season with 'raidmetrics list', or run 'raidmetrics import <file>'")
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default $RAIDMETRICS_DB or ~/.raidmetrics/raids.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default $LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVarP(&guild, "guild", "g", "", "guild to analyze (default $RAIDMETRICS_GUILD)")
	rootCmd.PersistentFlags().StringVarP(&season, "season", "s", "", "season to analyze (default $RAIDMETRICS_SEASON or the latest stored)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(performanceCmd)
	rootCmd.AddCommand(rankingCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
}

// loadConfig merges the environment (and .env) with the persistent flags.
// Flags win.
func loadConfig(_ *cobra.Command, _ []string) error {
	bootstrap := logger.New(logLevel)
	c, err := config.Load(bootstrap)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		c.DBPath = dbPath
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if guild == "" {
		guild = c.Guild
	}
	if season == "" {
		season = c.Season
	}
	dbPath = c.DBPath
	cfg = c
	log = logger.New(c.LogLevel)
	return nil
}

func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// selection returns the --guild/--season selection, defaulting the season to
// the most recent one stored.
func selection(ctx context.Context, db *storage.DB) (views.Selection, error) {
	sel := views.Selection{Guild: guild, Season: season}
	if sel.Season != "" {
		return sel, nil
	}
	seasons, err := seasonCodes(ctx, db)
	if err != nil {
		return sel, err
	}
	sel.Season = views.LatestSeason(seasons)
	if sel.Season == "" {
		return sel, fmt.Errorf("no seasons stored: %w", storage.ErrNoEvents)
	}
	log.Debug().Str("season", sel.Season).Msg("defaulted to latest season")
	return sel, nil
}

func seasonCodes(ctx context.Context, db *storage.DB) ([]string, error) {
	summaries, err := db.ListSeasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.Season
	}
	return out, nil
}
