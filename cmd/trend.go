package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/aggregator"
	"github.com/pable/go-raid-metrics/internal/model"
	"github.com/pable/go-raid-metrics/internal/report"
	"github.com/pable/go-raid-metrics/internal/views"
)

var trendCmd = &cobra.Command{
	Use:   "trend [player]",
	Short: "Season-by-season damage trend for the guild or one player",
	Long: `Groups every stored season of --guild by (season, token category) and
prints them oldest first, so changes between seasons line up. With a player
name only that player's records count. Last hits and crashes are excluded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrend,
}

func runTrend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	filter := aggregator.PerformanceFilter()
	title := "Trend"
	if len(args) == 1 {
		filter.Player = args[0]
		title = "Trend for " + args[0]
	}
	keys := aggregator.KeySpec{aggregator.FieldSeason, aggregator.FieldTokenCategory}

	// every season, so --season is ignored
	sel := views.Selection{Guild: guild}
	v, err := views.NewService(db, log).Aggregate(ctx, sel, keys, filter)
	if err != nil {
		return fmt.Errorf("trend: %w", err)
	}
	if len(v.Rows) == 0 {
		fmt.Println("no matching records")
		return nil
	}

	sort.SliceStable(v.Rows, func(i, j int) bool {
		a, b := v.Rows[i].Key, v.Rows[j].Key
		if c := model.CompareSeasons(a[0], b[0]); c != 0 {
			return c < 0
		}
		return a[1] < b[1]
	})
	report.PrintHeader(os.Stdout, title, sel.Guild, "")
	report.PrintAggregateTable(os.Stdout, v.Keys, v.Rows)
	return nil
}
