package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored seasons",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var listGuildsCmd = &cobra.Command{
	Use:   "guilds",
	Short: "List guilds per season (restricted by --season when set)",
	Args:  cobra.NoArgs,
	RunE:  runListGuilds,
}

var listImportsCmd = &cobra.Command{
	Use:   "imports",
	Short: "List import batches, newest first",
	Args:  cobra.NoArgs,
	RunE:  runListImports,
}

func init() {
	listCmd.AddCommand(listGuildsCmd)
	listCmd.AddCommand(listImportsCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	seasons, err := db.ListSeasons(cmd.Context())
	if err != nil {
		return fmt.Errorf("list seasons: %w", err)
	}
	if len(seasons) == 0 {
		fmt.Fprintln(os.Stdout, "No raid events stored yet. Run 'raidmetrics import <file>' to add some.")
		return nil
	}
	report.PrintSeasonList(os.Stdout, seasons)
	return nil
}

func runListGuilds(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	guilds, err := db.ListGuilds(cmd.Context(), season)
	if err != nil {
		return fmt.Errorf("list guilds: %w", err)
	}
	if len(guilds) == 0 {
		fmt.Fprintln(os.Stdout, "No guilds found.")
		return nil
	}
	report.PrintGuildList(os.Stdout, guilds)
	return nil
}

func runListImports(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	batches, err := db.ListImports(cmd.Context())
	if err != nil {
		return fmt.Errorf("list imports: %w", err)
	}
	if len(batches) == 0 {
		fmt.Fprintln(os.Stdout, "No imports yet.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-30s  %-6s  %8s  %8s\n",
		"BATCH", "IMPORTED", "SOURCE", "FORMAT", "RECORDS", "NEW")
	fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-30s  %-6s  %8s  %8s\n",
		"──────────", "────────────────────", "──────────────────────────────", "──────", "────────", "────────")
	for _, b := range batches {
		id := b.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-20s  %-30s  %-6s  %8d  %8d\n",
			id, b.ImportedAt.Format("2006-01-02 15:04"), b.Source, b.Format, b.Records, b.Inserted)
	}
	return nil
}
