package views

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-raid-metrics/internal/aggregator"
	"github.com/pable/go-raid-metrics/internal/model"
	"github.com/pable/go-raid-metrics/internal/storage"
)

// fakeSource serves an in-memory dataset, applying the season, guild and
// tier predicates of the filter. Seasons listed in fail return errBoom.
type fakeSource struct {
	records []model.RaidEventRecord
	fail    map[string]bool
	calls   atomic.Int32
}

var errBoom = errors.New("boom")

func (f *fakeSource) FetchRaidEvents(_ context.Context, flt storage.Filter) ([]model.RaidEventRecord, error) {
	f.calls.Add(1)
	if f.fail[flt.Season] {
		return nil, errBoom
	}
	var out []model.RaidEventRecord
	for _, r := range f.records {
		if flt.Season != "" && r.Season != flt.Season {
			continue
		}
		if flt.Guild != "" && r.Guild != flt.Guild {
			continue
		}
		if flt.MinTier > 0 && r.Tier < flt.MinTier {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// dataset: season 70 with G1 (alice, bob) and G2 (zed), season 69 with G1 only.
// bob finishes the season 70 boss; carl finishes the season 69 boss.
func dataset() []model.RaidEventRecord {
	var out []model.RaidEventRecord
	add := func(guild, season, player string, damage, remaining float64) {
		out = append(out, model.RaidEventRecord{
			ID:          int64(len(out) + 1),
			Guild:       guild,
			Season:      season,
			DisplayName: player,
			Name:        "Ghazghkull",
			Tier:        5,
			DamageType:  model.DamageBattle,
			DamageDealt: damage,
			RemainingHP: remaining,
			LoopIndex:   1,
		})
	}
	add("G1", "70", "alice", 100, 900)
	add("G1", "70", "alice", 100, 800)
	add("G2", "70", "zed", 50, 700)
	add("G2", "70", "zed", 50, 600)
	add("G1", "70", "bob", 150, 500)
	add("G1", "70", "bob", 300, 0)
	add("G1", "69", "alice", 80, 500)
	add("G1", "69", "alice", 80, 400)
	add("G1", "69", "carl", 10, 0)
	return out
}

func newTestService(src storage.Source) *Service {
	s := NewService(src, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

var g1s70 = Selection{Guild: "G1", Season: "70"}

// ---- Performance ----

func TestPerformance(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset()})
	v, err := svc.Performance(context.Background(), g1s70, false)
	require.NoError(t, err)

	// bob has a single qualifying record; his last hit is excluded
	require.Len(t, v.Rows, 1)
	r := v.Rows[0]
	assert.Equal(t, "alice", r.Player)
	assert.Equal(t, 2, r.Count)
	assert.InDelta(t, 100, r.AvgDamage, 1e-9)
	assert.InDelta(t, 350.0/3, r.GuildAvg, 1e-9)
	assert.InDelta(t, 90, r.ClusterAvg, 1e-9)
	assert.InDelta(t, (100.0/90-1)*100, r.VsClusterPct, 1e-9)
}

func TestPerformance_UnknownSelection(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset()})

	_, err := svc.Performance(context.Background(), Selection{Guild: "G3", Season: "70"}, false)
	assert.ErrorIs(t, err, storage.ErrNoEvents)

	_, err = svc.Performance(context.Background(), Selection{Guild: "G1", Season: "71"}, false)
	assert.ErrorIs(t, err, storage.ErrNoEvents)
}

func TestPerformance_UpstreamFailure(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset(), fail: map[string]bool{"70": true}})
	_, err := svc.Performance(context.Background(), g1s70, false)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, errBoom)
}

// ---- Ranking ----

func TestRanking(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset()})

	byTotal, err := svc.Ranking(context.Background(), g1s70, false)
	require.NoError(t, err)
	require.Len(t, byTotal.Rows, 2)
	assert.Equal(t, "alice", byTotal.Rows[0].Player)
	assert.Equal(t, 1, byTotal.Rows[0].Rank)
	assert.Equal(t, "bob", byTotal.Rows[1].Player)

	byAvg, err := svc.Ranking(context.Background(), g1s70, true)
	require.NoError(t, err)
	require.Len(t, byAvg.Rows, 2)
	assert.Equal(t, "bob", byAvg.Rows[0].Player)
	assert.InDelta(t, 150, byAvg.Rows[0].Average, 1e-9)
	assert.True(t, byAvg.ByAverage)
}

// ---- Tokens ----

func TestTokens(t *testing.T) {
	records := dataset()
	records = append(records, model.RaidEventRecord{
		ID: 100, Guild: "G1", Season: "70", DisplayName: "alice", Name: "Ghazghkull",
		Tier: 5, DamageType: model.DamageBomb, DamageDealt: 400, RemainingHP: 850, LoopIndex: 1,
	})
	svc := newTestService(&fakeSource{records: records})

	v, err := svc.Tokens(context.Background(), g1s70)
	require.NoError(t, err)
	require.Len(t, v.Usage, 2)
	// tied on tokens, so by name; bob's last hit still costs a token
	assert.Equal(t, "alice", v.Usage[0].Player)
	assert.Equal(t, 2, v.Usage[0].Tokens)
	assert.Equal(t, 1, v.Usage[0].Bombs)
	assert.Equal(t, 2, v.Usage[1].Tokens)
	assert.Equal(t, []string{"L1 Ghazghkull"}, v.Categories)
	assert.Equal(t, 0, v.Lost)
}

// ---- Leaderboard ----

func TestLeaderboard(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset()})
	res, err := svc.Leaderboard(context.Background(), g1s70)
	require.NoError(t, err)

	l1 := res.SetWinners[0]
	require.NotEmpty(t, l1.Medals)
	assert.Equal(t, "alice", l1.Medals[0].Player)
	assert.Equal(t, "alice", l1.MostDamage.Player)
	assert.Equal(t, "bob", l1.BiggestHit.Player)
	assert.Equal(t, "bob", res.SeasonAwards.TopKiller.Player)

	// zed is in G2 and never shows up
	for _, p := range res.PlayerPoints {
		assert.NotEqual(t, "zed", p.Player)
	}
}

func TestLeaderboard_NeedsSeason(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset()})
	_, err := svc.Leaderboard(context.Background(), Selection{Guild: "G1"})
	assert.ErrorIs(t, err, ErrNoSeason)
}

// ---- Guild comparison ----

func TestGuildComparison(t *testing.T) {
	src := &fakeSource{records: dataset()}
	svc := newTestService(src)
	v, err := svc.GuildComparison(context.Background(), g1s70, "69")
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())

	require.Len(t, v.VsCluster, 1)
	assert.InDelta(t, 350.0/3, v.VsCluster[0].GuildAvg, 1e-9)
	assert.InDelta(t, 90, v.VsCluster[0].BaselineAvg, 1e-9)

	require.Len(t, v.VsSelf, 1)
	assert.InDelta(t, 80, v.VsSelf[0].BaselineAvg, 1e-9)
	assert.InDelta(t, (350.0/3/80-1)*100, v.VsSelf[0].VsBaselinePct, 1e-9)
}

func TestGuildComparison_GuildAbsentFromBaseline(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset()})
	v, err := svc.GuildComparison(context.Background(), Selection{Guild: "G2", Season: "70"}, "69")
	require.NoError(t, err)
	assert.Equal(t, "69", v.BaselineSeason)

	require.Len(t, v.VsCluster, 1)
	assert.InDelta(t, 50, v.VsCluster[0].GuildAvg, 1e-9)

	require.Len(t, v.VsSelf, 1)
	assert.Equal(t, 0, v.VsSelf[0].BaselineCount)
	assert.Equal(t, 0.0, v.VsSelf[0].BaselineAvg)
	assert.Equal(t, 0.0, v.VsSelf[0].VsBaselinePct)
}

func TestGuildComparison_WithoutBaseline(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset()})
	v, err := svc.GuildComparison(context.Background(), g1s70, "")
	require.NoError(t, err)
	assert.Len(t, v.VsCluster, 1)
	assert.Nil(t, v.VsSelf)
}

func TestGuildComparison_AbortsOnFailedFetch(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset(), fail: map[string]bool{"69": true}})
	v, err := svc.GuildComparison(context.Background(), g1s70, "69")
	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestPreviousAndLatestSeason(t *testing.T) {
	seasons := []string{"70", "69", "9", "100"}
	assert.Equal(t, "69", PreviousSeason(seasons, "70"))
	assert.Equal(t, "70", PreviousSeason(seasons, "100"))
	assert.Equal(t, "", PreviousSeason(seasons, "9"))
	assert.Equal(t, "100", LatestSeason(seasons))
	assert.Equal(t, "", LatestSeason(nil))
}

// ---- Aggregate ----

func TestAggregate(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset()})
	keys := aggregator.KeySpec{aggregator.FieldGuild}
	v, err := svc.Aggregate(context.Background(), Selection{Season: "70"}, keys, aggregator.PerformanceFilter())
	require.NoError(t, err)
	assert.Equal(t, []string{"guild"}, v.Keys)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, []string{"G1"}, v.Rows[0].Key)
	assert.Equal(t, 3, v.Rows[0].Count)
	assert.InDelta(t, 350, v.Rows[0].Total, 1e-9)
	assert.Equal(t, []string{"G2"}, v.Rows[1].Key)

	// the selected guild narrows the aggregation
	v, err = svc.Aggregate(context.Background(), g1s70, keys, aggregator.PerformanceFilter())
	require.NoError(t, err)
	require.Len(t, v.Rows, 1)
}

// ---- Player history ----

func TestPlayerHistory(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset()})
	hist, err := svc.PlayerHistory(context.Background(), Selection{Guild: "G1"}, "alice")
	require.NoError(t, err)

	var ids []int64
	for _, r := range hist {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{2, 1, 8, 7}, ids)
	assert.Equal(t, 1, hist[0].SeasonLoopBossIndex)
	assert.Equal(t, 1, hist[0].PlayerTokenIndex)

	_, err = svc.PlayerHistory(context.Background(), Selection{Guild: "G1"}, "nobody")
	assert.ErrorIs(t, err, storage.ErrNoEvents)
}

// ---- Export ----

func TestExport(t *testing.T) {
	svc := newTestService(&fakeSource{records: dataset()})
	doc, err := svc.Export(context.Background(), g1s70)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T12:00:00Z", doc.GeneratedAt)
	require.NotNil(t, doc.Performance)
	require.NotNil(t, doc.Ranking)
	require.NotNil(t, doc.Tokens)
	require.NotNil(t, doc.Leaderboard)
	assert.Equal(t, "bob", doc.Leaderboard.SeasonAwards.TopKiller.Player)
}

func TestExport_WithoutLegendaryTiers(t *testing.T) {
	records := dataset()
	for i := range records {
		records[i].Tier = 2
	}
	svc := newTestService(&fakeSource{records: records})
	doc, err := svc.Export(context.Background(), g1s70)
	require.NoError(t, err)
	assert.Empty(t, doc.Leaderboard.PlayerPoints)
	assert.NotEmpty(t, doc.Ranking.Rows)
}
