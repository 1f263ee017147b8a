package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/ingest"
	"github.com/pable/go-raid-metrics/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import <export>...",
	Short: "Import raid event exports into the database",
	Long: `Reads one or more raid event exports and stores their records.

Accepted formats are a JSON array (or {"data": [...]}), newline-delimited JSON
and CSV with a header row. Files may be zstd- or gzip-compressed. Records that
carry no guild or season take --guild / --season. Re-importing a file is safe:
records already stored are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	opts := ingest.Options{Guild: guild, Season: season}
	for _, path := range args {
		fmt.Fprintf(os.Stderr, "Importing %s...\n", path)
		res, err := ingest.ParseFile(path, opts)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		batch := &storage.ImportBatch{
			ID:     res.BatchID,
			Source: res.Name,
			Format: res.Format,
		}
		inserted, err := db.InsertRaidEvents(cmd.Context(), batch, res.Records)
		if err != nil {
			return fmt.Errorf("store %s: %w", path, err)
		}
		log.Info().
			Str("file", res.Name).
			Str("format", res.Format).
			Str("compression", res.Compression).
			Str("sha256", res.Hash[:12]).
			Str("batch", res.BatchID).
			Int("records", len(res.Records)).
			Int("inserted", inserted).
			Msg("export imported")
		fmt.Fprintf(os.Stdout, "%s: %d records, %d new, %d already stored\n",
			res.Name, len(res.Records), inserted, len(res.Records)-inserted)
	}
	return nil
}
