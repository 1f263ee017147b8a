package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the raid database",
	Long: `Run an arbitrary SQL query against the raid database and print results as a table.

Schema overview:
  raid_events(id, import_batch, upstream_id, occurrence, guild, season, display_name, user_id, name,
    encounter_id, encounter_index, tier, set_index, rarity, damage_type,
    damage_dealt, remaining_hp, enemy_hp, enemy_hp_left, loop_index,
    started_on, completed_on, timestamp)
  import_batches(id, source, format, imported_at, records, inserted)

Note: missing tier, loop_index and remaining_hp are stored as -1.
encounter_id 0 is the main boss; set_index is the 0-based boss level.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(_ *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignCenter},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
