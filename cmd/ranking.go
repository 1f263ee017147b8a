package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/report"
	"github.com/pable/go-raid-metrics/internal/views"
)

var rankByAverage bool

var rankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Rank the guild's players by damage",
	Long: `Rank players of --guild by total damage (or, with --avg, by average damage
per record). Ties go to the player with more tokens, then by name. Last hits
and crashes are not counted.`,
	Args: cobra.NoArgs,
	RunE: runRanking,
}

func init() {
	rankingCmd.Flags().BoolVar(&rankByAverage, "avg", false, "rank by average damage instead of total")
}

func runRanking(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	sel, err := selection(ctx, db)
	if err != nil {
		return err
	}
	v, err := views.NewService(db, log).Ranking(ctx, sel, rankByAverage)
	if err != nil {
		return fmt.Errorf("ranking: %w", err)
	}
	title := "Ranking by total damage"
	if rankByAverage {
		title = "Ranking by average damage"
	}
	report.PrintHeader(os.Stdout, title, sel.Guild, sel.Season)
	report.PrintRankingTable(os.Stdout, v.Rows)
	return nil
}
