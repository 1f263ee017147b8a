package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/report"
	"github.com/pable/go-raid-metrics/internal/storage"
	"github.com/pable/go-raid-metrics/internal/views"
)

var playerLast int

// playerCmd is the cobra command for the token history of one or more players.
var playerCmd = &cobra.Command{
	Use:   "player <name> [<name>...]",
	Short: "Token history for one or more players",
	Long: `Lists every record of each player in --guild, most recent boss group first.
Without --season every stored season is included. GROUP numbers the
(season, loop, boss) groups and # numbers the player's own tokens, both most
recent first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlayer,
}

func init() {
	playerCmd.Flags().IntVar(&playerLast, "last", 0, "only show the N most recent records per player")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := views.NewService(db, log)
	sel := views.Selection{Guild: guild, Season: season}
	for _, name := range args {
		hist, err := svc.PlayerHistory(ctx, sel, name)
		if errors.Is(err, storage.ErrNoEvents) {
			fmt.Fprintf(os.Stderr, "No data found for %s in %s\n", name, sel)
			continue
		}
		if err != nil {
			return fmt.Errorf("player %s: %w", name, err)
		}
		if playerLast > 0 && len(hist) > playerLast {
			hist = hist[:playerLast]
		}
		report.PrintHeader(os.Stdout, "Player "+name, sel.Guild, sel.Season)
		report.PrintPlayerHistory(os.Stdout, hist)
	}
	return nil
}
