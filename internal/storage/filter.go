package storage

import (
	"fmt"
	"strings"
)

// Filter is a conjunction of predicates over raid events. Zero values mean
// "no restriction".
type Filter struct {
	Guild      string
	Season     string
	DamageType string
	Rarity     string
	Name       string

	MinTier        int  // tier >= MinTier when > 0
	PositiveDamage bool // damage_dealt > 0
	NonKill        bool // remaining_hp != 0

	EncounterID *int // exact encounter_id when set; 0 = main boss
}

// MainBoss returns a pointer suitable for Filter.EncounterID selecting the main boss.
func MainBoss() *int {
	v := 0
	return &v
}

// CacheKey renders the filter in a canonical form: equal filters give equal keys.
func (f Filter) CacheKey() string {
	enc := "*"
	if f.EncounterID != nil {
		enc = fmt.Sprint(*f.EncounterID)
	}
	return fmt.Sprintf("guild=%q|season=%q|type=%q|rarity=%q|name=%q|tier>=%d|dmg>0=%t|nonkill=%t|enc=%s",
		f.Guild, f.Season, f.DamageType, f.Rarity, f.Name,
		f.MinTier, f.PositiveDamage, f.NonKill, enc)
}

// where builds the WHERE clause (including the keyword, or empty) and its args.
func (f Filter) where() (string, []any) {
	var clauses []string
	var args []any
	eq := func(col, v string) {
		if v != "" {
			clauses = append(clauses, col+" = ?")
			args = append(args, v)
		}
	}
	eq("guild", f.Guild)
	eq("season", f.Season)
	eq("damage_type", f.DamageType)
	eq("rarity", f.Rarity)
	eq("name", f.Name)
	if f.MinTier > 0 {
		clauses = append(clauses, "tier >= ?")
		args = append(args, f.MinTier)
	}
	if f.PositiveDamage {
		clauses = append(clauses, "damage_dealt > 0")
	}
	if f.NonKill {
		clauses = append(clauses, "remaining_hp != 0")
	}
	if f.EncounterID != nil {
		clauses = append(clauses, "encounter_id = ?")
		args = append(args, *f.EncounterID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
