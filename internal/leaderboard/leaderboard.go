// Package leaderboard computes the season points table: per-set medals and
// awards, season-wide awards, and each player's point breakdown.
package leaderboard

import (
	"fmt"
	"sort"

	"github.com/pable/go-raid-metrics/internal/aggregator"
	"github.com/pable/go-raid-metrics/internal/model"
)

// Points per award.
const (
	PointsGold       = 3.0
	PointsSilver     = 2.0
	PointsBronze     = 1.0
	PointsMostDamage = 1.0
	PointsSideBoss   = 2.0
	PointsBiggestHit = 1.0
	PointsTopKiller  = 3.0
	PointsBestBomber = 0.5
)

// Sets are the boss levels L1..L5.
const (
	FirstSet = 0
	LastSet  = 4
)

// MinMedalBattles: a player needs more than this many qualifying battles
// against a set's boss to be eligible for a medal.
const MinMedalBattles = 1

// Award names a winner and the value that won it. An empty Player means
// nobody qualified.
type Award struct {
	Player string  `json:"player"`
	Value  float64 `json:"value"`
}

// Awarded reports whether anyone won.
func (a Award) Awarded() bool { return a.Player != "" }

// SetWinners holds the awards for one boss level.
type SetWinners struct {
	Set        int     `json:"set"`
	Medals     []Award `json:"medals"` // gold, silver, bronze; fewer when not enough players qualify
	MostDamage Award   `json:"most_damage"`
	SideBoss1  Award   `json:"side_boss_1"`
	SideBoss2  Award   `json:"side_boss_2"`
	BiggestHit Award   `json:"biggest_hit"`
}

// Level returns the 1-based boss level.
func (s SetWinners) Level() int { return s.Set + 1 }

// SeasonAwards are computed once over the whole season.
type SeasonAwards struct {
	TopKiller  Award `json:"top_killer"`  // Value = number of kills
	BestBomber Award `json:"best_bomber"` // Value = damage of the best bomb
}

// PlayerPoints is one row of the published standings.
type PlayerPoints struct {
	Player    string         `json:"player"`
	Points    float64        `json:"points"`
	Awards    map[string]int `json:"awards"` // award name -> times won
	Breakdown []string       `json:"breakdown"`
}

// Result is the full leaderboard for one season.
type Result struct {
	SetWinners   []SetWinners   `json:"set_winners"`
	PlayerPoints []PlayerPoints `json:"player_points"`
	SeasonAwards SeasonAwards   `json:"season_awards"`
}

// Award names as they appear in breakdowns and award counts.
const (
	AwardGold       = "Gold"
	AwardSilver     = "Silver"
	AwardBronze     = "Bronze"
	AwardMostDamage = "Most Damage"
	AwardSideBoss1  = "Side Boss 1"
	AwardSideBoss2  = "Side Boss 2"
	AwardBiggestHit = "Biggest Hit"
	AwardTopKiller  = "Top Killer"
	AwardBestBomber = "Best Bomber"
)

var medalPoints = []float64{PointsGold, PointsSilver, PointsBronze}
var medalNames = []string{AwardGold, AwardSilver, AwardBronze}

// Compute builds the leaderboard for one season's scored records.
// The caller selects the records (guild, season, legendary tiers); Compute
// does not filter further beyond what each award needs.
func Compute(records []model.ScoredRecord) Result {
	var res Result
	for set := FirstSet; set <= LastSet; set++ {
		res.SetWinners = append(res.SetWinners, setWinners(records, set))
	}
	res.SeasonAwards = SeasonAwards{
		TopKiller:  topKiller(records),
		BestBomber: bestBomber(records),
	}
	res.PlayerPoints = standings(res)
	return res
}

// inPool reports whether a record counts towards the damage-based awards:
// battles that neither finished the boss nor crashed.
func inPool(r *model.ScoredRecord) bool {
	return r.IsBattle() && !r.SpecialCase.IsKill() && r.SpecialCase != model.Crash
}

type playerDamage struct {
	player  string
	total   float64
	battles int
}

func (p playerDamage) avg() float64 {
	if p.battles == 0 {
		return 0
	}
	return p.total / float64(p.battles)
}

// damageByPlayer sums the pooled records that pass match. Sums are taken in
// sorted order so ties do not depend on input order.
func damageByPlayer(records []model.ScoredRecord, match func(r *model.ScoredRecord) bool) []playerDamage {
	idx := make(map[string]int)
	var out []playerDamage
	var damages [][]float64
	for i := range records {
		r := &records[i]
		if !inPool(r) || !match(r) {
			continue
		}
		j, ok := idx[r.DisplayName]
		if !ok {
			j = len(out)
			idx[r.DisplayName] = j
			out = append(out, playerDamage{player: r.DisplayName})
			damages = append(damages, nil)
		}
		damages[j] = append(damages[j], r.DamageDealt)
		out[j].battles++
	}
	for j := range out {
		out[j].total = aggregator.SortedSum(damages[j])
	}
	return out
}

func byAverage(ps []playerDamage) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].avg() != ps[j].avg() {
			return ps[i].avg() > ps[j].avg()
		}
		if ps[i].battles != ps[j].battles {
			return ps[i].battles > ps[j].battles
		}
		return ps[i].player < ps[j].player
	})
}

func byTotal(ps []playerDamage) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].total != ps[j].total {
			return ps[i].total > ps[j].total
		}
		if ps[i].battles != ps[j].battles {
			return ps[i].battles > ps[j].battles
		}
		return ps[i].player < ps[j].player
	})
}

func setWinners(records []model.ScoredRecord, set int) SetWinners {
	w := SetWinners{Set: set}

	mainBoss := func(r *model.ScoredRecord) bool { return r.IsMainBoss() && r.Set == set }
	pool := damageByPlayer(records, mainBoss)

	var eligible []playerDamage
	for _, p := range pool {
		if p.battles > MinMedalBattles {
			eligible = append(eligible, p)
		}
	}
	byAverage(eligible)
	for i := 0; i < len(eligible) && i < len(medalPoints); i++ {
		w.Medals = append(w.Medals, Award{Player: eligible[i].player, Value: eligible[i].avg()})
	}

	byTotal(pool)
	if len(pool) > 0 {
		w.MostDamage = Award{Player: pool[0].player, Value: pool[0].total}
	}

	w.SideBoss1 = sideBossWinner(records, set, 1)
	w.SideBoss2 = sideBossWinner(records, set, 2)

	for i := range records {
		r := &records[i]
		if !mainBoss(r) || !r.IsBattle() {
			continue
		}
		if r.DamageDealt > w.BiggestHit.Value {
			w.BiggestHit = Award{Player: r.DisplayName, Value: r.DamageDealt}
		}
	}
	return w
}

func sideBossWinner(records []model.ScoredRecord, set, encounterIndex int) Award {
	ps := damageByPlayer(records, func(r *model.ScoredRecord) bool {
		return !r.IsMainBoss() && r.Set == set && r.EncounterIndex == encounterIndex
	})
	if len(ps) == 0 {
		return Award{}
	}
	byAverage(ps)
	return Award{Player: ps[0].player, Value: ps[0].avg()}
}

// topKiller counts last hits and one shots per player. Ties go to the player
// whose first kill appears earliest in records.
func topKiller(records []model.ScoredRecord) Award {
	counts := make(map[string]int)
	var order []string
	for i := range records {
		r := &records[i]
		if !r.SpecialCase.IsKill() {
			continue
		}
		if _, seen := counts[r.DisplayName]; !seen {
			order = append(order, r.DisplayName)
		}
		counts[r.DisplayName]++
	}
	var best Award
	for _, p := range order {
		if n := float64(counts[p]); n > best.Value {
			best = Award{Player: p, Value: n}
		}
	}
	return best
}

// bestBomber is the single highest bomb. Ties go to the earliest record.
func bestBomber(records []model.ScoredRecord) Award {
	var best Award
	for i := range records {
		r := &records[i]
		if r.IsBomb() && r.DamageDealt > best.Value {
			best = Award{Player: r.DisplayName, Value: r.DamageDealt}
		}
	}
	return best
}

// standings applies the points table in computation order: sets ascending,
// then the season awards.
func standings(res Result) []PlayerPoints {
	idx := make(map[string]int)
	var out []PlayerPoints
	grant := func(a Award, points float64, prefix, award string) {
		if !a.Awarded() {
			return
		}
		j, ok := idx[a.Player]
		if !ok {
			j = len(out)
			idx[a.Player] = j
			out = append(out, PlayerPoints{Player: a.Player, Awards: make(map[string]int)})
		}
		label := award
		if prefix != "" {
			label = prefix + " " + award
		}
		out[j].Points += points
		out[j].Awards[award]++
		out[j].Breakdown = append(out[j].Breakdown, fmt.Sprintf("%s (+%s)", label, formatPoints(points)))
	}

	for _, w := range res.SetWinners {
		lvl := fmt.Sprintf("L%d", w.Level())
		for i, m := range w.Medals {
			grant(m, medalPoints[i], lvl, medalNames[i])
		}
		grant(w.MostDamage, PointsMostDamage, lvl, AwardMostDamage)
		grant(w.SideBoss1, PointsSideBoss, lvl, AwardSideBoss1)
		grant(w.SideBoss2, PointsSideBoss, lvl, AwardSideBoss2)
		grant(w.BiggestHit, PointsBiggestHit, lvl, AwardBiggestHit)
	}
	grant(res.SeasonAwards.TopKiller, PointsTopKiller, "", AwardTopKiller)
	grant(res.SeasonAwards.BestBomber, PointsBestBomber, "", AwardBestBomber)

	kept := out[:0]
	for _, p := range out {
		if p.Points > 0 {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Points != kept[j].Points {
			return kept[i].Points > kept[j].Points
		}
		return kept[i].Player < kept[j].Player
	})
	return kept
}

func formatPoints(p float64) string {
	if p == float64(int(p)) {
		return fmt.Sprintf("%d", int(p))
	}
	return fmt.Sprintf("%.1f", p)
}

// Prepare classifies and scores raw records, then computes the leaderboard.
func Prepare(records []model.RaidEventRecord) Result {
	return Compute(aggregator.Prepare(records))
}
