package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/report"
	"github.com/pable/go-raid-metrics/internal/views"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Show token usage per player and category",
	Long: `Counts battle tokens (crashes included) and bombs per player of --guild,
broken down by token category: "L<level> <boss>" for legendary main bosses,
"Leg. Primes" for legendary primes and "Non-Leg." for lower tiers.

Lost tokens: each player may trail the busiest player by up to 3 tokens; every
token beyond that counts as lost.`,
	Args: cobra.NoArgs,
	RunE: runTokens,
}

func runTokens(cmd *cobra.Command, _ []string) error {
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
	v, err := views.NewService(db, log).Tokens(ctx, sel)
	if err != nil {
		return fmt.Errorf("tokens: %w", err)
	}
	report.PrintHeader(os.Stdout, "Token usage", sel.Guild, sel.Season)
	report.PrintTokenTable(os.Stdout, v.Usage, v.Categories, v.Lost)
	return nil
}
