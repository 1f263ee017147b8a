package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/go-raid-metrics/internal/config"
	"github.com/pable/go-raid-metrics/internal/model"
	"github.com/pable/go-raid-metrics/internal/views"
)

const analyzeSystemPrompt = `You are a Guild Raid performance analyst. You are given structured data
from a raid analytics tool and a question from a guild officer.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable: focus on token usage and damage the guild can improve.

Glossary:
- Token: one Battle attempt. Bombs are separate and do not use tokens.
- Token category: "L<level> <boss>" for legendary main bosses, "Leg. Primes" for
  legendary side bosses, "Non-Leg." for lower tiers.
- Last Hit: the hit that finished a boss; its damage is capped by the HP left, so
  it is excluded from averages. One Shot: a boss killed by a single hit.
- Crash: a Battle with zero damage (a wasted token).
- Weighted contribution: damage relative to the season's typical damage on that
  boss; higher is better.
- vs_guild / vs_cluster: percent above (+) or below (-) the guild or all-guild
  average on the same boss and token category.
- Lost tokens: tokens beyond 3 by which players trail the busiest player.`

var (
	analyzeModel  string
	analyzeAPIKey string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzeSeasonCmd = &cobra.Command{
	Use:   "season <question>",
	Short: "Analyze the guild's season with AI",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyzeSeason,
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <name> <question>",
	Short: "Analyze one player's season with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "", "Anthropic model to use (default $ANTHROPIC_MODEL or "+config.DefaultModel+")")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")

	analyzeCmd.AddCommand(analyzeSeasonCmd)
	analyzeCmd.AddCommand(analyzePlayerCmd)
}

func runAnalyzeSeason(cmd *cobra.Command, args []string) error {
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
	doc, err := views.NewService(db, log).Export(ctx, sel)
	if err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(ctx, string(b), args[0])
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	name, question := args[0], args[1]
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
	svc := views.NewService(db, log)
	hist, err := svc.PlayerHistory(ctx, sel, name)
	if err != nil {
		return err
	}
	perf, err := svc.Performance(ctx, sel, false)
	if err != nil {
		return err
	}
	contextJSON, err := buildPlayerContext(sel, name, hist, perf.Rows)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(ctx, contextJSON, question)
}

// buildPlayerContext serialises one player's records and comparison rows into compact JSON.
func buildPlayerContext(sel views.Selection, name string, hist []model.IndexedRecord, rows []model.ComparisonRow) (string, error) {
	type recordEntry struct {
		Loop     int     `json:"loop"`
		Boss     string  `json:"boss"`
		Category string  `json:"category"`
		Type     string  `json:"type"`
		Damage   float64 `json:"damage"`
		Case     string  `json:"case"`
		Score    float64 `json:"weighted_contribution"`
	}
	type comparisonEntry struct {
		Boss      string  `json:"boss"`
		Category  string  `json:"category"`
		Records   int     `json:"records"`
		Avg       float64 `json:"avg"`
		VsGuild   float64 `json:"vs_guild_pct"`
		VsCluster float64 `json:"vs_cluster_pct"`
	}

	records := make([]recordEntry, 0, len(hist))
	for _, r := range hist {
		records = append(records, recordEntry{
			Loop:     r.LoopIndex,
			Boss:     r.Name,
			Category: r.TokenCategory,
			Type:     r.DamageType,
			Damage:   r.DamageDealt,
			Case:     r.SpecialCase.String(),
			Score:    round3(r.WeightedContribution),
		})
	}
	var comparisons []comparisonEntry
	for _, c := range rows {
		if c.Player != name {
			continue
		}
		comparisons = append(comparisons, comparisonEntry{
			Boss:      c.Boss,
			Category:  c.TokenCategory,
			Records:   c.Count,
			Avg:       round3(c.AvgDamage),
			VsGuild:   round3(c.VsGuildPct),
			VsCluster: round3(c.VsClusterPct),
		})
	}

	doc := map[string]interface{}{
		"subject":     "player",
		"player":      name,
		"guild":       sel.Guild,
		"season":      sel.Season,
		"records":     records,
		"comparisons": comparisons,
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, dataJSON, question string) error {
	apiKey := analyzeAPIKey
	if apiKey == "" {
		apiKey = cfg.AnthropicAPIKey
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}
	modelID := analyzeModel
	if modelID == "" {
		modelID = cfg.AnthropicModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)
	log.Debug().Str("model", modelID).Int("context_bytes", len(dataJSON)).Msg("calling anthropic")

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed: check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
