package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/views"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a season's views as JSON",
	Long: `Computes the performance comparison, ranking, token usage and leaderboard
of --guild for --season and writes them as a single JSON document.

Example:
  raidmetrics export --guild G1 --season 70 --out g1-s70.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default: stdout)")
}

func runExport(cmd *cobra.Command, _ []string) error {
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
	fmt.Fprintf(os.Stderr, "Exporting %s...\n", sel)
	doc, err := views.NewService(db, log).Export(ctx, sel)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	b = append(b, '\n')

	if exportOut == "" {
		_, err = os.Stdout.Write(b)
		return err
	}
	if err := os.WriteFile(exportOut, b, 0644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", exportOut)
	return nil
}
