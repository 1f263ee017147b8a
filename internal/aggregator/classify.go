// Package aggregator derives per-hit labels and scores from raw raid events
// and rolls them up into player, boss, guild and cluster aggregates.
package aggregator

import (
	"github.com/pable/go-raid-metrics/internal/model"
)

// encounterKey identifies one boss encounter: every hit in a season loop
// against the same boss at the same tier.
type encounterKey struct {
	season string
	loop   int
	name   string
	tier   int
}

func encounterOf(r *model.RaidEventRecord) encounterKey {
	return encounterKey{season: r.Season, loop: r.LoopIndex, name: r.Name, tier: r.Tier}
}

// encounterStats is the part of an encounter's sibling set the classifier needs.
type encounterStats struct {
	minRemaining float64
	qualifying   int // siblings with damage > 0 and remainingHp >= 0
}

// EncounterIndex holds precomputed sibling statistics per encounter.
type EncounterIndex struct {
	byKey map[encounterKey]*encounterStats
}

// BuildEncounterIndex scans records once and indexes them by encounter.
func BuildEncounterIndex(records []model.RaidEventRecord) *EncounterIndex {
	idx := &EncounterIndex{byKey: make(map[encounterKey]*encounterStats)}
	for i := range records {
		idx.add(&records[i])
	}
	return idx
}

func (idx *EncounterIndex) add(r *model.RaidEventRecord) {
	if r.DamageDealt <= 0 || r.RemainingHP < 0 {
		return
	}
	k := encounterOf(r)
	st := idx.byKey[k]
	if st == nil {
		idx.byKey[k] = &encounterStats{minRemaining: r.RemainingHP, qualifying: 1}
		return
	}
	if r.RemainingHP < st.minRemaining {
		st.minRemaining = r.RemainingHP
	}
	st.qualifying++
}

// Classify labels one record against the given sibling set, which must hold
// every record of the same (season, loopIndex, name, tier) encounter.
func Classify(record model.RaidEventRecord, siblings []model.RaidEventRecord) model.SpecialCase {
	idx := &EncounterIndex{byKey: make(map[encounterKey]*encounterStats)}
	k := encounterOf(&record)
	for i := range siblings {
		if encounterOf(&siblings[i]) == k {
			idx.add(&siblings[i])
		}
	}
	return idx.Classify(&record)
}

// Classify labels a record using the precomputed sibling statistics.
//
// Every record sharing the encounter's minimum remaining HP is a last hit;
// simultaneous finishes are not disambiguated.
func (idx *EncounterIndex) Classify(r *model.RaidEventRecord) model.SpecialCase {
	if r.DamageDealt <= 0 {
		return model.Crash
	}
	if !r.HasEncounterKey() {
		return model.Standard
	}
	st := idx.byKey[encounterOf(r)]
	if st == nil || st.qualifying == 0 {
		return model.Standard
	}

	isLastHit := r.RemainingHP == st.minRemaining && r.IsBattle()
	isOneShot := isLastHit && st.qualifying == 1

	switch {
	case isOneShot:
		return model.OneShot
	case isLastHit:
		return model.LastHit
	default:
		return model.Standard
	}
}

// ClassifyDataset tags and classifies every record. The input is not modified.
func ClassifyDataset(records []model.RaidEventRecord) []model.ClassifiedRecord {
	idx := BuildEncounterIndex(records)
	out := make([]model.ClassifiedRecord, len(records))
	for i := range records {
		r := &records[i]
		out[i] = model.ClassifiedRecord{
			RaidEventRecord: *r,
			TokenCategory:   TokenCategory(*r),
			SpecialCase:     idx.Classify(r),
		}
	}
	return out
}
