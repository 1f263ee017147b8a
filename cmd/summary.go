package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/aggregator"
	"github.com/pable/go-raid-metrics/internal/report"
	"github.com/pable/go-raid-metrics/internal/views"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about everything stored in the database:
event, guild, season and player counts, the stored seasons, and a per-guild
damage breakdown of the selected season.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetOverview(ctx)
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Events == 0 {
		fmt.Fprintln(os.Stdout, "No raid events stored yet. Run 'raidmetrics import <file>' to add some.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Raid events   : %d\n", ov.Events)
	fmt.Fprintf(os.Stdout, "  Guilds        : %d\n", ov.Guilds)
	fmt.Fprintf(os.Stdout, "  Seasons       : %d\n", ov.Seasons)
	fmt.Fprintf(os.Stdout, "  Players seen  : %d\n", ov.Players)
	fmt.Fprintf(os.Stdout, "  Imports       : %d (last %s)\n", ov.Imports, ov.LastImport)

	seasons, err := db.ListSeasons(ctx)
	if err != nil {
		return fmt.Errorf("list seasons: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Seasons ---\n\n")
	report.PrintSeasonList(os.Stdout, seasons)

	sel, err := selection(ctx, db)
	if err != nil {
		return err
	}
	// whole cluster, one row per guild
	sel.Guild = ""
	svc := views.NewService(db, log)
	v, err := svc.Aggregate(ctx, sel, aggregator.KeySpec{aggregator.FieldGuild}, aggregator.PerformanceFilter())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\n--- Guilds, season %s (last hits and crashes excluded) ---\n\n", sel.Season)
	report.PrintAggregateTable(os.Stdout, v.Keys, v.Rows)
	return nil
}
