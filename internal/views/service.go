// Package views assembles the presentation-level views (performance,
// rankings, tokens, leaderboard, guild comparisons) from a storage.Source.
//
// Every view fetches a whole season across all guilds: hit classification
// and scoring baselines depend on records from every guild that fought the
// same encounter. The guild restriction is applied afterwards, in memory.
package views

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-raid-metrics/internal/aggregator"
	"github.com/pable/go-raid-metrics/internal/leaderboard"
	"github.com/pable/go-raid-metrics/internal/model"
	"github.com/pable/go-raid-metrics/internal/storage"
)

// ErrUpstream marks a failure of the data source. The view was not computed;
// the command can simply be retried.
var ErrUpstream = errors.New("data source failed")

// ErrNoSeason is returned by views that only make sense for one season.
var ErrNoSeason = errors.New("no season selected")

// Selection is the (guild, season) a view is computed for. An empty Guild
// means the whole cluster.
type Selection struct {
	Guild  string `json:"guild,omitempty"`
	Season string `json:"season,omitempty"`
}

func (s Selection) String() string {
	g := s.Guild
	if g == "" {
		g = "all guilds"
	}
	if s.Season == "" {
		return g + ", all seasons"
	}
	return g + ", season " + s.Season
}

// Service computes views on top of a Source.
type Service struct {
	src    storage.Source
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(src storage.Source, logger zerolog.Logger) *Service {
	return &Service{src: src, logger: logger, now: time.Now}
}

// fetch loads the season's records for every guild with the given minimum
// tier. It fails with storage.ErrNoEvents when nothing matches or when the
// selected guild has no records in the season.
func (s *Service) fetch(ctx context.Context, sel Selection, minTier int) ([]model.RaidEventRecord, error) {
	f := storage.Filter{Season: sel.Season, MinTier: minTier}
	records, err := s.src.FetchRaidEvents(ctx, f)
	if err != nil {
		s.logger.Error().Err(err).Str("filter", f.CacheKey()).Msg("raid event fetch failed")
		return nil, fmt.Errorf("%w: fetch raid events: %w", ErrUpstream, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, storage.ErrNoEvents)
	}
	if sel.Guild != "" && !hasGuild(records, sel.Guild) {
		return nil, fmt.Errorf("%s: %w", sel, storage.ErrNoEvents)
	}
	s.logger.Debug().Str("guild", sel.Guild).Str("season", sel.Season).Int("records", len(records)).Msg("season loaded")
	return records, nil
}

func hasGuild(records []model.RaidEventRecord, guild string) bool {
	for i := range records {
		if records[i].Guild == guild {
			return true
		}
	}
	return false
}

func (s *Service) scored(ctx context.Context, sel Selection, minTier int) ([]model.ScoredRecord, error) {
	records, err := s.fetch(ctx, sel, minTier)
	if err != nil {
		return nil, err
	}
	return aggregator.Prepare(records), nil
}

// inGuild keeps the records of guild, or all of them when guild is empty.
func inGuild(records []model.ScoredRecord, guild string) []model.ScoredRecord {
	if guild == "" {
		return records
	}
	out := make([]model.ScoredRecord, 0, len(records))
	for _, r := range records {
		if r.Guild == guild {
			out = append(out, r)
		}
	}
	return out
}

// ---- Performance ----

// PerformanceView compares every player of the guild to the guild and
// cluster averages per (boss, token category).
type PerformanceView struct {
	Selection  Selection             `json:"selection"`
	BossesOnly bool                  `json:"bosses_only"`
	Rows       []model.ComparisonRow `json:"rows"`
}

// Performance builds the player performance comparison. Last hits and
// crashes are left out of every average.
func (s *Service) Performance(ctx context.Context, sel Selection, bossesOnly bool) (*PerformanceView, error) {
	records, err := s.scored(ctx, sel, 0)
	if err != nil {
		return nil, err
	}
	return performanceView(sel, records, bossesOnly), nil
}

func performanceView(sel Selection, records []model.ScoredRecord, bossesOnly bool) *PerformanceView {
	filter := aggregator.PerformanceFilter()
	filter.BossesOnly = bossesOnly
	return &PerformanceView{
		Selection:  sel,
		BossesOnly: bossesOnly,
		Rows:       aggregator.CompareToBaselines(records, sel.Guild, filter),
	}
}

// ---- Ranking ----

type RankingView struct {
	Selection Selection             `json:"selection"`
	ByAverage bool                  `json:"by_average"`
	Rows      []model.PlayerRanking `json:"rows"`
}

// Ranking ranks the guild's players by total damage, or by average damage
// per token when byAverage is set.
func (s *Service) Ranking(ctx context.Context, sel Selection, byAverage bool) (*RankingView, error) {
	records, err := s.scored(ctx, sel, 0)
	if err != nil {
		return nil, err
	}
	return rankingView(sel, records, byAverage), nil
}

func rankingView(sel Selection, records []model.ScoredRecord, byAverage bool) *RankingView {
	filter := aggregator.PerformanceFilter()
	filter.Guild = sel.Guild
	v := &RankingView{Selection: sel, ByAverage: byAverage}
	if byAverage {
		v.Rows = aggregator.RankByAverage(records, filter)
	} else {
		v.Rows = aggregator.RankByTotal(records, filter)
	}
	return v
}

// ---- Tokens ----

type TokensView struct {
	Selection  Selection          `json:"selection"`
	Usage      []model.TokenUsage `json:"usage"`
	Categories []string           `json:"categories"`
	Lost       int                `json:"lost_tokens"`
}

// Tokens reports token spend per player and category, and the tokens lost
// by players who fell behind the busiest one.
func (s *Service) Tokens(ctx context.Context, sel Selection) (*TokensView, error) {
	records, err := s.scored(ctx, sel, 0)
	if err != nil {
		return nil, err
	}
	return tokensView(sel, records), nil
}

func tokensView(sel Selection, records []model.ScoredRecord) *TokensView {
	guild := inGuild(records, sel.Guild)
	classified := make([]model.ClassifiedRecord, len(guild))
	for i := range guild {
		classified[i] = guild[i].ClassifiedRecord
	}
	usage := aggregator.TokenUsage(classified)
	return &TokensView{
		Selection:  sel,
		Usage:      usage,
		Categories: aggregator.Categories(usage),
		Lost:       aggregator.CalculateLostTokens(aggregator.TokenCounts(usage)),
	}
}

// ---- Leaderboard ----

// Leaderboard computes the season leaderboard of the guild over legendary
// tiers. A season must be selected.
func (s *Service) Leaderboard(ctx context.Context, sel Selection) (*leaderboard.Result, error) {
	if sel.Season == "" {
		return nil, ErrNoSeason
	}
	records, err := s.scored(ctx, sel, model.LegendaryTier)
	if err != nil {
		return nil, err
	}
	res := leaderboard.Compute(inGuild(records, sel.Guild))
	return &res, nil
}

// ---- Guild comparisons ----

// GuildComparisonView compares a guild's averages against the cluster in the
// same season and against its own averages in a baseline season.
type GuildComparisonView struct {
	Selection      Selection                  `json:"selection"`
	BaselineSeason string                     `json:"baseline_season,omitempty"`
	VsCluster      []model.GuildComparisonRow `json:"vs_cluster"`
	VsSelf         []model.GuildComparisonRow `json:"vs_self,omitempty"`
}

// GuildComparison fetches the selected season and, when baselineSeason is
// set, the baseline season concurrently. If either fetch fails the view is
// not computed.
func (s *Service) GuildComparison(ctx context.Context, sel Selection, baselineSeason string) (*GuildComparisonView, error) {
	if sel.Guild == "" {
		return nil, fmt.Errorf("guild comparison: no guild selected")
	}
	if sel.Season == "" {
		return nil, ErrNoSeason
	}

	var current, baseline []model.ScoredRecord
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.scored(gCtx, sel, 0)
		return err
	})
	if baselineSeason != "" {
		g.Go(func() error {
			var err error
			baseline, err = s.scored(gCtx, Selection{Guild: sel.Guild, Season: baselineSeason}, 0)
			if errors.Is(err, storage.ErrNoEvents) {
				// guild absent from the baseline season: every group gets a zero baseline
				s.logger.Debug().Str("guild", sel.Guild).Str("baseline", baselineSeason).Msg("empty baseline season")
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("guild", sel.Guild).Str("season", sel.Season).
			Str("baseline", baselineSeason).Msg("guild comparison aborted")
		return nil, fmt.Errorf("compare guild %s: %w", sel.Guild, err)
	}

	filter := aggregator.PerformanceFilter()
	v := &GuildComparisonView{
		Selection:      sel,
		BaselineSeason: baselineSeason,
		VsCluster:      aggregator.CompareGuildToCluster(current, sel.Guild, filter),
	}
	if baselineSeason != "" {
		v.VsSelf = aggregator.CompareGuildToSelf(current, baseline, sel.Guild, filter)
	}
	return v, nil
}

// PreviousSeason returns the latest season strictly older than current, or
// "" when there is none.
func PreviousSeason(seasons []string, current string) string {
	prev := ""
	for _, s := range seasons {
		if model.CompareSeasons(s, current) >= 0 {
			continue
		}
		if prev == "" || model.CompareSeasons(s, prev) > 0 {
			prev = s
		}
	}
	return prev
}

// LatestSeason returns the most recent of seasons, or "".
func LatestSeason(seasons []string) string {
	latest := ""
	for _, s := range seasons {
		if latest == "" || model.CompareSeasons(s, latest) > 0 {
			latest = s
		}
	}
	return latest
}

// ---- Generic aggregation ----

type AggregateView struct {
	Selection Selection            `json:"selection"`
	Keys      []string             `json:"keys"`
	Rows      []model.AggregateRow `json:"rows"`
}

// Aggregate groups the season by keys. The selection's guild, when set,
// overrides filter.Guild.
func (s *Service) Aggregate(ctx context.Context, sel Selection, keys aggregator.KeySpec, filter aggregator.FilterSpec) (*AggregateView, error) {
	records, err := s.scored(ctx, sel, 0)
	if err != nil {
		return nil, err
	}
	if sel.Guild != "" {
		filter.Guild = sel.Guild
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return &AggregateView{
		Selection: sel,
		Keys:      names,
		Rows:      aggregator.AggregateByGroup(records, keys, filter),
	}, nil
}

// ---- Player history ----

// PlayerHistory returns player's records in the guild, most recent boss
// group first and, within a group, most recent token first.
func (s *Service) PlayerHistory(ctx context.Context, sel Selection, player string) ([]model.IndexedRecord, error) {
	records, err := s.scored(ctx, sel, 0)
	if err != nil {
		return nil, err
	}
	indexed := aggregator.IndexRecords(inGuild(records, sel.Guild))
	var out []model.IndexedRecord
	for _, r := range indexed {
		if r.DisplayName == player {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("player %q in %s: %w", player, sel, storage.ErrNoEvents)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SeasonLoopBossIndex != out[j].SeasonLoopBossIndex {
			return out[i].SeasonLoopBossIndex < out[j].SeasonLoopBossIndex
		}
		return out[i].PlayerTokenIndex < out[j].PlayerTokenIndex
	})
	return out, nil
}

// ---- Export ----

// Export is the machine-readable snapshot of one season for one guild.
type Export struct {
	Selection   Selection           `json:"selection"`
	GeneratedAt string              `json:"generated_at"`
	Performance *PerformanceView    `json:"performance"`
	Ranking     *RankingView        `json:"ranking"`
	Tokens      *TokensView         `json:"tokens"`
	Leaderboard *leaderboard.Result `json:"leaderboard"`
}

// Export builds every view of the selection from two concurrent fetches:
// the full season and its legendary tiers.
func (s *Service) Export(ctx context.Context, sel Selection) (*Export, error) {
	if sel.Season == "" {
		return nil, ErrNoSeason
	}

	var all, legendary []model.ScoredRecord
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = s.scored(gCtx, sel, 0)
		return err
	})
	g.Go(func() error {
		var err error
		legendary, err = s.scored(gCtx, sel, model.LegendaryTier)
		if errors.Is(err, storage.ErrNoEvents) {
			// a season without legendary tiers still exports, with an empty leaderboard
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("guild", sel.Guild).Str("season", sel.Season).Msg("export aborted")
		return nil, fmt.Errorf("export %s: %w", sel, err)
	}

	lb := leaderboard.Compute(inGuild(legendary, sel.Guild))
	return &Export{
		Selection:   sel,
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
		Performance: performanceView(sel, all, false),
		Ranking:     rankingView(sel, all, false),
		Tokens:      tokensView(sel, all),
		Leaderboard: &lb,
	}, nil
}
