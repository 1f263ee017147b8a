package aggregator

import (
	"sort"

	"github.com/pable/go-raid-metrics/internal/model"
)

type playerTotals struct {
	damages []float64
	tokens  int
}

func collectPlayers(records []model.ScoredRecord, filter FilterSpec) map[string]*playerTotals {
	byPlayer := make(map[string]*playerTotals)
	for i := range records {
		r := &records[i]
		if !filter.Match(r) {
			continue
		}
		p := byPlayer[r.DisplayName]
		if p == nil {
			p = &playerTotals{}
			byPlayer[r.DisplayName] = p
		}
		p.damages = append(p.damages, r.DamageDealt)
		if r.IsBattle() {
			p.tokens++
		}
	}
	return byPlayer
}

func rankings(records []model.ScoredRecord, filter FilterSpec) []model.PlayerRanking {
	byPlayer := collectPlayers(records, filter)
	out := make([]model.PlayerRanking, 0, len(byPlayer))
	for name, p := range byPlayer {
		total := SortedSum(p.damages)
		avg := 0.0
		if len(p.damages) > 0 {
			avg = total / float64(len(p.damages))
		}
		out = append(out, model.PlayerRanking{
			Player:  name,
			Total:   total,
			Average: avg,
			Tokens:  p.tokens,
		})
	}
	return out
}

func assignRanks(rows []model.PlayerRanking) {
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

// RankByTotal ranks players by total damage desc, then token count desc,
// then name.
func RankByTotal(records []model.ScoredRecord, filter FilterSpec) []model.PlayerRanking {
	rows := rankings(records, filter)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		if rows[i].Tokens != rows[j].Tokens {
			return rows[i].Tokens > rows[j].Tokens
		}
		return rows[i].Player < rows[j].Player
	})
	assignRanks(rows)
	return rows
}

// RankByAverage ranks players by average damage desc, then token count desc,
// then name.
func RankByAverage(records []model.ScoredRecord, filter FilterSpec) []model.PlayerRanking {
	rows := rankings(records, filter)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Average != rows[j].Average {
			return rows[i].Average > rows[j].Average
		}
		if rows[i].Tokens != rows[j].Tokens {
			return rows[i].Tokens > rows[j].Tokens
		}
		return rows[i].Player < rows[j].Player
	})
	assignRanks(rows)
	return rows
}
