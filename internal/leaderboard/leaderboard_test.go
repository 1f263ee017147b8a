package leaderboard

import (
	"reflect"
	"slices"
	"testing"

	"github.com/pable/go-raid-metrics/internal/model"
)

// builder accumulates raw records with sequential IDs.
type builder struct {
	records []model.RaidEventRecord
}

// battle adds a legendary battle against boss at the given set and loop.
func (b *builder) battle(player, boss string, set, loop int, damage, remaining float64) *model.RaidEventRecord {
	b.records = append(b.records, model.RaidEventRecord{
		ID:          int64(len(b.records) + 1),
		Guild:       "G1",
		Season:      "70",
		DisplayName: player,
		Name:        boss,
		Tier:        5,
		Set:         set,
		DamageType:  model.DamageBattle,
		DamageDealt: damage,
		RemainingHP: remaining,
		LoopIndex:   loop,
	})
	return &b.records[len(b.records)-1]
}

func (b *builder) bomb(player, boss string, set, loop int, damage, remaining float64) {
	r := b.battle(player, boss, set, loop, damage, remaining)
	r.DamageType = model.DamageBomb
}

func (b *builder) prime(player, boss string, set, loop, encounterIndex int, damage, remaining float64) {
	r := b.battle(player, boss, set, loop, damage, remaining)
	r.EncounterID = encounterIndex
	r.EncounterIndex = encounterIndex
}

// sevenPointSeason: alice wins Gold on L1, Most Damage on L2 and Top Killer,
// and nothing else.
func sevenPointSeason() []model.RaidEventRecord {
	var b builder
	// L1, loop 1, finished by dave's big last hit
	b.battle("alice", "Ghazghkull", 0, 1, 1000, 9000)
	b.battle("alice", "Ghazghkull", 0, 1, 1000, 8000)
	b.battle("carol", "Ghazghkull", 0, 1, 900, 7000)
	b.battle("carol", "Ghazghkull", 0, 1, 900, 6000)
	b.battle("carol", "Ghazghkull", 0, 1, 900, 5000)
	b.battle("bob", "Ghazghkull", 0, 1, 500, 4000)
	b.battle("bob", "Ghazghkull", 0, 1, 500, 3000)
	b.battle("dave", "Ghazghkull", 0, 1, 5000, 0)
	b.bomb("henry", "Ghazghkull", 0, 1, 9999, 2000)
	// alice finishes two more L1 loops
	b.battle("gina", "Ghazghkull", 0, 2, 200, 300)
	b.battle("alice", "Ghazghkull", 0, 2, 100, 0)
	b.battle("gina", "Ghazghkull", 0, 3, 200, 300)
	b.battle("alice", "Ghazghkull", 0, 3, 100, 0)
	// L2: alice hits once for the biggest total, frank lands the biggest hit
	b.battle("alice", "Avatar", 1, 1, 5000, 3000)
	b.battle("eve", "Avatar", 1, 1, 1000, 9000)
	b.battle("eve", "Avatar", 1, 1, 1000, 8000)
	b.battle("frank", "Avatar", 1, 1, 6000, 0)
	return b.records
}

func pointsFor(res Result, player string) (PlayerPoints, bool) {
	for _, p := range res.PlayerPoints {
		if p.Player == player {
			return p, true
		}
	}
	return PlayerPoints{}, false
}

func TestCompute_GoldMostDamageTopKiller(t *testing.T) {
	res := Prepare(sevenPointSeason())

	alice, ok := pointsFor(res, "alice")
	if !ok {
		t.Fatal("alice missing from standings")
	}
	if alice.Points != 7 {
		t.Errorf("alice points: got %v, want 7 (breakdown %v)", alice.Points, alice.Breakdown)
	}
	want := []string{"L1 Gold (+3)", "L2 Most Damage (+1)", "Top Killer (+3)"}
	if !slices.Equal(alice.Breakdown, want) {
		t.Errorf("alice breakdown: got %v, want %v", alice.Breakdown, want)
	}
	wantAwards := map[string]int{AwardGold: 1, AwardMostDamage: 1, AwardTopKiller: 1}
	if !reflect.DeepEqual(alice.Awards, wantAwards) {
		t.Errorf("alice awards: got %v, want %v", alice.Awards, wantAwards)
	}
}

func TestCompute_SetWinners(t *testing.T) {
	res := Prepare(sevenPointSeason())
	if len(res.SetWinners) != 5 {
		t.Fatalf("got %d sets, want 5", len(res.SetWinners))
	}

	l1 := res.SetWinners[0]
	var medals []string
	for _, m := range l1.Medals {
		medals = append(medals, m.Player)
	}
	if !slices.Equal(medals, []string{"alice", "carol", "bob"}) {
		t.Errorf("L1 medals: got %v", medals)
	}
	if l1.MostDamage.Player != "carol" || l1.MostDamage.Value != 2700 {
		t.Errorf("L1 most damage: %+v", l1.MostDamage)
	}
	if l1.BiggestHit.Player != "dave" || l1.BiggestHit.Value != 5000 {
		t.Errorf("L1 biggest hit: %+v", l1.BiggestHit)
	}

	l2 := res.SetWinners[1]
	if len(l2.Medals) != 1 || l2.Medals[0].Player != "eve" {
		t.Errorf("L2 medals: %+v", l2.Medals)
	}
	if l2.MostDamage.Player != "alice" {
		t.Errorf("L2 most damage: %+v", l2.MostDamage)
	}
	if l2.BiggestHit.Player != "frank" {
		t.Errorf("L2 biggest hit: %+v", l2.BiggestHit)
	}

	for _, w := range res.SetWinners[2:] {
		if len(w.Medals) != 0 || w.MostDamage.Awarded() || w.BiggestHit.Awarded() {
			t.Errorf("L%d should be empty: %+v", w.Level(), w)
		}
	}

	if res.SeasonAwards.TopKiller.Player != "alice" || res.SeasonAwards.TopKiller.Value != 2 {
		t.Errorf("top killer: %+v", res.SeasonAwards.TopKiller)
	}
	if res.SeasonAwards.BestBomber.Player != "henry" {
		t.Errorf("best bomber: %+v", res.SeasonAwards.BestBomber)
	}
}

func TestCompute_StandingsOrderAndZeroPointPlayers(t *testing.T) {
	res := Prepare(sevenPointSeason())
	for i := 1; i < len(res.PlayerPoints); i++ {
		a, b := res.PlayerPoints[i-1], res.PlayerPoints[i]
		if a.Points < b.Points || (a.Points == b.Points && a.Player > b.Player) {
			t.Errorf("standings out of order at %d: %+v before %+v", i, a, b)
		}
	}
	// gina never wins anything
	if _, ok := pointsFor(res, "gina"); ok {
		t.Error("zero-point player gina should not be published")
	}
	henry, _ := pointsFor(res, "henry")
	if henry.Points != PointsBestBomber {
		t.Errorf("henry: got %v, want %v", henry.Points, PointsBestBomber)
	}
}

func TestCompute_SideBosses(t *testing.T) {
	var b builder
	b.prime("alice", "Kill Team", 2, 1, 1, 800, 500)
	b.prime("bob", "Kill Team", 2, 1, 1, 400, 900)
	b.prime("carol", "Exorcist", 2, 1, 2, 300, 100)
	b.prime("bob", "Exorcist", 2, 1, 2, 350, 0) // last hit, not counted
	b.prime("dave", "Kill Team", 2, 1, 1, 5000, 0)
	res := Prepare(b.records)

	l3 := res.SetWinners[2]
	if l3.SideBoss1.Player != "alice" {
		t.Errorf("side boss 1: %+v", l3.SideBoss1)
	}
	if l3.SideBoss2.Player != "carol" {
		t.Errorf("side boss 2: %+v", l3.SideBoss2)
	}
	if l3.BiggestHit.Awarded() {
		t.Errorf("primes do not count for biggest hit: %+v", l3.BiggestHit)
	}
	alice, _ := pointsFor(res, "alice")
	if alice.Points != PointsSideBoss {
		t.Errorf("alice: got %v, want %v", alice.Points, PointsSideBoss)
	}
}

func TestCompute_TopKillerTieGoesToFirstSeen(t *testing.T) {
	var b builder
	b.battle("zed", "Ghazghkull", 0, 1, 100, 0)
	b.battle("amy", "Ghazghkull", 0, 2, 100, 0)
	res := Prepare(b.records)
	if got := res.SeasonAwards.TopKiller.Player; got != "zed" {
		t.Errorf("top killer: got %q, want zed", got)
	}

	slices.Reverse(b.records)
	res = Prepare(b.records)
	if got := res.SeasonAwards.TopKiller.Player; got != "amy" {
		t.Errorf("reversed top killer: got %q, want amy", got)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	records := sevenPointSeason()
	a := Prepare(records)
	b := Prepare(records)
	if !reflect.DeepEqual(a, b) {
		t.Error("two runs over the same records differ")
	}
}

func TestCompute_Empty(t *testing.T) {
	res := Compute(nil)
	if len(res.PlayerPoints) != 0 {
		t.Errorf("expected no standings, got %+v", res.PlayerPoints)
	}
	if res.SeasonAwards.TopKiller.Awarded() || res.SeasonAwards.BestBomber.Awarded() {
		t.Error("expected no season awards")
	}
}

func TestDamageByPlayer_OrderIndependentTotals(t *testing.T) {
	hit := func(damage float64) model.ScoredRecord {
		var r model.ScoredRecord
		r.DisplayName = "alice"
		r.DamageType = model.DamageBattle
		r.DamageDealt = damage
		return r
	}
	all := func(*model.ScoredRecord) bool { return true }

	// 0.1+0.2+0.3 and 0.3+0.2+0.1 differ in float64
	forward := []model.ScoredRecord{hit(0.1), hit(0.2), hit(0.3)}
	backward := slices.Clone(forward)
	slices.Reverse(backward)

	a, b := damageByPlayer(forward, all), damageByPlayer(backward, all)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected one player, got %d and %d", len(a), len(b))
	}
	if a[0].total != b[0].total {
		t.Errorf("totals differ by input order: %v vs %v", a[0].total, b[0].total)
	}
	if a[0].battles != 3 {
		t.Errorf("battles = %d, want 3", a[0].battles)
	}
}
