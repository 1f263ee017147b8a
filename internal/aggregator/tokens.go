package aggregator

import (
	"fmt"
	"sort"

	"github.com/pable/go-raid-metrics/internal/model"
)

// Token categories for records that are not legendary main bosses.
const (
	CategoryNonLegendary   = "Non-Leg."
	CategoryLegendaryPrime = "Leg. Primes"
)

// FreeTokenSlots is the number of unused tokens a player may leave before
// they count as lost.
const FreeTokenSlots = 3

// TokenCategory returns the token-usage label for a record.
func TokenCategory(r model.RaidEventRecord) string {
	if r.Tier < model.LegendaryTier {
		return CategoryNonLegendary
	}
	if r.EncounterID > 0 {
		return CategoryLegendaryPrime
	}
	return fmt.Sprintf("L%d %s", r.Level(), r.Name)
}

// TokenUsage counts battle tokens (crashes included) and bombs per player.
// Rows are ordered by tokens desc, then player name.
func TokenUsage(records []model.ClassifiedRecord) []model.TokenUsage {
	byPlayer := make(map[string]*model.TokenUsage)
	for i := range records {
		r := &records[i]
		u := byPlayer[r.DisplayName]
		if u == nil {
			u = &model.TokenUsage{Player: r.DisplayName, ByCategory: make(map[string]int)}
			byPlayer[r.DisplayName] = u
		}
		switch {
		case r.IsBattle():
			u.Tokens++
			u.ByCategory[r.TokenCategory]++
		case r.IsBomb():
			u.Bombs++
		}
	}

	out := make([]model.TokenUsage, 0, len(byPlayer))
	for _, u := range byPlayer {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tokens != out[j].Tokens {
			return out[i].Tokens > out[j].Tokens
		}
		return out[i].Player < out[j].Player
	})
	return out
}

// CalculateLostTokens sums, over all players, the tokens a player is short of
// the busiest player's count after allowing FreeTokenSlots unused tokens.
func CalculateLostTokens(tokensByPlayer map[string]int) int {
	maxTokens := 0
	for _, n := range tokensByPlayer {
		if n > maxTokens {
			maxTokens = n
		}
	}
	lost := 0
	for _, n := range tokensByPlayer {
		if d := maxTokens - FreeTokenSlots - n; d > 0 {
			lost += d
		}
	}
	return lost
}

// TokenCounts flattens usage rows into a player → tokens map.
func TokenCounts(usage []model.TokenUsage) map[string]int {
	out := make(map[string]int, len(usage))
	for _, u := range usage {
		out[u.Player] = u.Tokens
	}
	return out
}

// Categories returns every token category present in the usage rows, with
// levels first (in level order), then primes, then non-legendary.
func Categories(usage []model.TokenUsage) []string {
	seen := make(map[string]struct{})
	for _, u := range usage {
		for c := range u.ByCategory {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := categoryOrder(out[i]), categoryOrder(out[j])
		if oi != oj {
			return oi < oj
		}
		return out[i] < out[j]
	})
	return out
}

func categoryOrder(c string) int {
	switch c {
	case CategoryLegendaryPrime:
		return 1
	case CategoryNonLegendary:
		return 2
	default:
		return 0
	}
}
