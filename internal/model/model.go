package model

import (
	"strconv"
	"strings"
)

// Unset marks an integer field that was null or empty in the upstream export.
const Unset = -1

// Damage types as they appear in the combat log.
const (
	DamageBattle = "Battle"
	DamageBomb   = "Bomb"
)

// LegendaryTier is the first tier counted as a legendary boss.
const LegendaryTier = 4

// SpecialCase labels a hit relative to the other hits of the same encounter.
type SpecialCase int

const (
	Standard SpecialCase = iota
	LastHit
	OneShot
	Crash
)

func (c SpecialCase) String() string {
	switch c {
	case LastHit:
		return "Last Hit"
	case OneShot:
		return "One Shot"
	case Crash:
		return "Crash"
	default:
		return "Standard"
	}
}

// IsKill reports whether the hit finished the boss.
func (c SpecialCase) IsKill() bool {
	return c == LastHit || c == OneShot
}

// ---- Raw rows as fetched from the data source ----

// RaidEventRecord is one combat action against a raid boss or prime.
type RaidEventRecord struct {
	ID          int64
	UpstreamID  string // row id in the upstream export, when it has one
	Guild       string
	Season      string
	DisplayName string
	UserID      string

	Name           string // boss or prime name
	EncounterID    int    // 0 = main boss, >0 = prime
	EncounterIndex int    // 1 or 2 for primes
	Tier           int
	Set            int // 0-based boss level, Level = Set+1
	Rarity         string

	DamageType  string
	DamageDealt float64
	RemainingHP float64 // 0 means the boss died on this hit
	EnemyHP     float64
	EnemyHPLeft float64

	LoopIndex   int
	StartedOn   string
	CompletedOn string
	Timestamp   string
}

// IsMainBoss reports whether the record targets the main boss rather than a prime.
func (r *RaidEventRecord) IsMainBoss() bool {
	return r.EncounterID == 0
}

// IsBattle reports whether the record is a battle token (as opposed to a bomb).
func (r *RaidEventRecord) IsBattle() bool {
	return r.DamageType == DamageBattle
}

// IsBomb reports whether the record is a bomb.
func (r *RaidEventRecord) IsBomb() bool {
	return r.DamageType == DamageBomb
}

// Level returns the 1-based boss level.
func (r *RaidEventRecord) Level() int {
	return r.Set + 1
}

// HasEncounterKey reports whether every field needed to place the record in
// an encounter is present.
func (r *RaidEventRecord) HasEncounterKey() bool {
	return r.LoopIndex != Unset && r.Tier != Unset &&
		r.Name != "" && r.Season != "" && r.Guild != ""
}

// CompareSeasons orders season codes numerically when both parse as numbers,
// falling back to string order.
func CompareSeasons(a, b string) int {
	ai, aerr := strconv.Atoi(strings.TrimSpace(a))
	bi, berr := strconv.Atoi(strings.TrimSpace(b))
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// ---- Derived per-record views ----

// ClassifiedRecord is a record with its token category and hit classification.
type ClassifiedRecord struct {
	RaidEventRecord
	TokenCategory string
	SpecialCase   SpecialCase
}

// ScoredRecord adds the weighted contribution score.
type ScoredRecord struct {
	ClassifiedRecord
	WeightedContribution float64
}

// IndexedRecord carries display-order ranks.
type IndexedRecord struct {
	ScoredRecord
	SeasonLoopBossIndex int // rank of the (season, loop, boss) group, most recent first
	PlayerTokenIndex    int // rank of the record among the player's tokens, most recent first
}

// ---- Aggregates ----

// PlayerBossStat summarises one player against one boss in one token category.
type PlayerBossStat struct {
	Player        string
	Boss          string
	TokenCategory string

	TotalDamage float64
	Count       int
	MaxHit      float64
	AvgDamage   float64
	WeightedAvg float64
}

// ComparisonRow compares a player's average to guild and cluster averages
// computed over the same (boss, token category) filter set.
type ComparisonRow struct {
	PlayerBossStat
	ClusterAvg   float64
	GuildAvg     float64
	VsClusterPct float64
	VsGuildPct   float64
}

// GuildComparisonRow compares a guild's average on one (boss, token category)
// against a baseline average (the cluster, or the guild itself in another period).
type GuildComparisonRow struct {
	Boss          string
	TokenCategory string
	Count         int
	GuildAvg      float64
	BaselineCount int
	BaselineAvg   float64
	VsBaselinePct float64
}

// AggregateRow is one group produced by the generic aggregation.
type AggregateRow struct {
	Key []string

	Count         int
	Total         float64
	Max           float64
	Avg           float64
	WeightedTotal float64
	WeightedAvg   float64
}

// PlayerRanking is one line of a ranked player table.
type PlayerRanking struct {
	Rank    int
	Player  string
	Total   float64
	Average float64
	Tokens  int
}

// TokenUsage is a player's token spend broken down by category.
type TokenUsage struct {
	Player     string
	Tokens     int            // battle records, crashes included
	Bombs      int            // bomb records
	ByCategory map[string]int // battle records per token category
}

// SeasonSummary is a lightweight record for list commands.
type SeasonSummary struct {
	Season  string
	Guilds  int
	Players int
	Events  int
	Loops   int
}

// GuildSummary describes one guild's activity in a season.
type GuildSummary struct {
	Guild   string
	Season  string
	Players int
	Events  int
	Damage  float64
}
