package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/report"
	"github.com/pable/go-raid-metrics/internal/views"
)

var (
	perfBossesOnly bool
	perfPlayer     string
)

var performanceCmd = &cobra.Command{
	Use:   "performance",
	Short: "Compare each player to the guild and cluster averages",
	Long: `For every (boss, token category) a player of --guild fought at least twice,
show the player's average damage next to the guild average and the average of
every guild in the season. Last hits and crashes are left out of all averages.`,
	Args: cobra.NoArgs,
	RunE: runPerformance,
}

func init() {
	performanceCmd.Flags().BoolVar(&perfBossesOnly, "bosses-only", false, "leave out primes (side bosses)")
	performanceCmd.Flags().StringVar(&perfPlayer, "player", "", "highlight this player's rows")
}

func runPerformance(cmd *cobra.Command, _ []string) error {
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
	v, err := views.NewService(db, log).Performance(ctx, sel, perfBossesOnly)
	if err != nil {
		return fmt.Errorf("performance: %w", err)
	}
	report.PrintHeader(os.Stdout, "Performance", sel.Guild, sel.Season)
	if len(v.Rows) == 0 {
		fmt.Fprintln(os.Stdout, "No player has two qualifying records against any boss.")
		return nil
	}
	report.PrintComparisonTable(os.Stdout, v.Rows, perfPlayer)
	return nil
}
