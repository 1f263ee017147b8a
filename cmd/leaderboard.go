package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/report"
	"github.com/pable/go-raid-metrics/internal/views"
)

var leaderboardVerbose bool

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Compute the season leaderboard and points standings",
	Long: `Computes the season awards of --guild over legendary tiers:

Per boss level: Gold/Silver/Bronze (average damage, players with more than one
battle), Most Damage (total), Side Boss 1/2 (average on each prime) and Biggest
Hit (single record, last hits included). Per season: Top Killer (most boss
kills) and Best Bomber (single best bomb).

Points: Gold 3, Silver 2, Bronze 1, Most Damage 1, Side Boss 2, Biggest Hit 1,
Top Killer 3, Best Bomber 0.5.`,
	Args: cobra.NoArgs,
	RunE: runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().BoolVarP(&leaderboardVerbose, "verbose", "v", false, "print each player's points breakdown")
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
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
	res, err := views.NewService(db, log).Leaderboard(ctx, sel)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}

	report.PrintHeader(os.Stdout, "Leaderboard", sel.Guild, sel.Season)
	report.PrintSetWinners(os.Stdout, res.SetWinners)
	report.PrintSeasonAwards(os.Stdout, res.SeasonAwards)
	fmt.Fprintln(os.Stdout)
	if len(res.PlayerPoints) == 0 {
		fmt.Fprintln(os.Stdout, "No awards given.")
		return nil
	}
	report.PrintStandings(os.Stdout, res.PlayerPoints, leaderboardVerbose)
	return nil
}
