package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/aggregator"
	"github.com/pable/go-raid-metrics/internal/model"
	"github.com/pable/go-raid-metrics/internal/report"
	"github.com/pable/go-raid-metrics/internal/views"
)

var (
	aggBy         string
	aggExclude    string
	aggDamageType string
	aggBossesOnly bool
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Group the season by any combination of fields",
	Long: `Groups the selected season by the fields in --by and prints count, total,
average, max and the weighted contribution of each group.

Fields: player, boss, category, guild, season, loop, tier, set, type.
Hit classes for --exclude: standard, lasthit, oneshot, crash ("" keeps all).

Example:
  raidmetrics aggregate --by player,boss --type Battle
  raidmetrics aggregate --by guild,tier --exclude ""`,
	Args: cobra.NoArgs,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVar(&aggBy, "by", "player", "comma-separated grouping fields")
	aggregateCmd.Flags().StringVar(&aggExclude, "exclude", "lasthit,crash", "comma-separated hit classes to leave out")
	aggregateCmd.Flags().StringVar(&aggDamageType, "type", "", "restrict to a damage type (Battle or Bomb)")
	aggregateCmd.Flags().BoolVar(&aggBossesOnly, "bosses-only", false, "leave out primes (side bosses)")
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	keys, err := parseKeySpec(aggBy)
	if err != nil {
		return err
	}
	exclude, err := parseSpecialCases(aggExclude)
	if err != nil {
		return err
	}
	filter := aggregator.FilterSpec{
		Exclude:    exclude,
		BossesOnly: aggBossesOnly,
		DamageType: aggDamageType,
	}

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
	v, err := views.NewService(db, log).Aggregate(ctx, sel, keys, filter)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	report.PrintHeader(os.Stdout, "Aggregate by "+strings.Join(v.Keys, ", "), sel.Guild, sel.Season)
	report.PrintAggregateTable(os.Stdout, v.Keys, v.Rows)
	return nil
}

func parseKeySpec(s string) (aggregator.KeySpec, error) {
	var keys aggregator.KeySpec
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, ok := aggregator.ParseField(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", name)
		}
		keys = append(keys, f)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no grouping fields given")
	}
	return keys, nil
}

// parseSpecialCases accepts class names with or without spaces, in any case:
// "lasthit", "Last Hit" and "last-hit" are the same class.
func parseSpecialCases(s string) ([]model.SpecialCase, error) {
	norm := func(v string) string {
		v = strings.ToLower(v)
		return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(v)
	}
	known := make(map[string]model.SpecialCase)
	for _, c := range []model.SpecialCase{model.Standard, model.LastHit, model.OneShot, model.Crash} {
		known[norm(c.String())] = c
	}

	var out []model.SpecialCase
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c, ok := known[norm(name)]
		if !ok {
			return nil, fmt.Errorf("unknown hit class %q", name)
		}
		out = append(out, c)
	}
	return out, nil
}
