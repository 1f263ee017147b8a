package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce  bool
	dropSeason bool
)

// dropCmd deletes the raid database, or one season of it.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the raid database or one season",
	Long: `Permanently delete the SQLite raid database. All stored raid events will be lost.
Re-import your exports afterwards to rebuild.

With --only-season, only the events of --season (restricted to --guild when
set) are deleted.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().BoolVar(&dropSeason, "only-season", false, "delete only --season (and --guild) instead of the whole database")
}

func runDrop(cmd *cobra.Command, _ []string) error {
	if dropSeason {
		return runDropSeason(cmd)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	// WAL side files
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove database: %w", err)
		}
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

func runDropSeason(cmd *cobra.Command) error {
	if season == "" {
		return fmt.Errorf("--only-season needs --season")
	}
	target := "season " + season
	if guild != "" {
		target = guild + ", " + target
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete every raid event of %s.\n", target)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.DeleteSeason(cmd.Context(), guild, season)
	if err != nil {
		return err
	}
	log.Info().Str("guild", guild).Str("season", season).Int64("rows", n).Msg("season dropped")
	fmt.Fprintf(os.Stdout, "Deleted %d raid events of %s\n", n, target)
	return nil
}
