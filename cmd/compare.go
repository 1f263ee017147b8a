package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/report"
	"github.com/pable/go-raid-metrics/internal/views"
)

var (
	compareBaseline   string
	compareNoBaseline bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a guild to the cluster and to its previous season",
	Long: `Shows --guild's average damage per (boss, token category) against the
average of every guild in the season, then against its own averages in a
baseline season (the previous stored season unless --baseline is given).`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareBaseline, "baseline", "", "baseline season (default: the previous stored season)")
	compareCmd.Flags().BoolVar(&compareNoBaseline, "no-baseline", false, "only compare against the cluster")
}

func runCompare(cmd *cobra.Command, _ []string) error {
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
	if sel.Guild == "" {
		return fmt.Errorf("compare needs a guild: use --guild or set RAIDMETRICS_GUILD")
	}

	baseline := compareBaseline
	if baseline == "" && !compareNoBaseline {
		seasons, err := seasonCodes(ctx, db)
		if err != nil {
			return err
		}
		baseline = views.PreviousSeason(seasons, sel.Season)
		if baseline == "" {
			fmt.Fprintf(os.Stderr, "No season before %s; comparing against the cluster only.\n", sel.Season)
		}
	}
	if compareNoBaseline {
		baseline = ""
	}

	v, err := views.NewService(db, log).GuildComparison(ctx, sel, baseline)
	if err != nil {
		return err
	}

	report.PrintHeader(os.Stdout, "Guild vs cluster", sel.Guild, sel.Season)
	report.PrintGuildComparisonTable(os.Stdout, v.VsCluster, "CLUSTER")
	if v.BaselineSeason != "" {
		report.PrintHeader(os.Stdout, "Guild vs season "+v.BaselineSeason, sel.Guild, sel.Season)
		report.PrintGuildComparisonTable(os.Stdout, v.VsSelf, "S"+v.BaselineSeason)
	}
	return nil
}
