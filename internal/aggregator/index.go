package aggregator

import (
	"sort"
	"strings"

	"github.com/pable/go-raid-metrics/internal/model"
)

type seasonLoopBoss struct {
	season string
	loop   int
	name   string
}

// newerFirst orders two records most recent first: season, loop, timestamp,
// then ID, all descending.
func newerFirst(a, b *model.ScoredRecord) bool {
	if c := model.CompareSeasons(a.Season, b.Season); c != 0 {
		return c > 0
	}
	if a.LoopIndex != b.LoopIndex {
		return a.LoopIndex > b.LoopIndex
	}
	if c := strings.Compare(a.Timestamp, b.Timestamp); c != 0 {
		return c > 0
	}
	return a.ID > b.ID
}

// IndexRecords attaches display-order ranks to every record. Both indices are
// 1-based with the most recent group or token first. Output keeps input order.
func IndexRecords(records []model.ScoredRecord) []model.IndexedRecord {
	groups := make(map[seasonLoopBoss]struct{})
	for i := range records {
		r := &records[i]
		groups[seasonLoopBoss{r.Season, r.LoopIndex, r.Name}] = struct{}{}
	}
	ordered := make([]seasonLoopBoss, 0, len(groups))
	for g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if c := model.CompareSeasons(a.season, b.season); c != 0 {
			return c > 0
		}
		if a.loop != b.loop {
			return a.loop > b.loop
		}
		return a.name < b.name
	})
	groupRank := make(map[seasonLoopBoss]int, len(ordered))
	for i, g := range ordered {
		groupRank[g] = i + 1
	}

	byPlayer := make(map[string][]int)
	for i := range records {
		p := records[i].DisplayName
		byPlayer[p] = append(byPlayer[p], i)
	}
	tokenRank := make([]int, len(records))
	for _, idxs := range byPlayer {
		sort.SliceStable(idxs, func(i, j int) bool {
			return newerFirst(&records[idxs[i]], &records[idxs[j]])
		})
		for rank, i := range idxs {
			tokenRank[i] = rank + 1
		}
	}

	out := make([]model.IndexedRecord, len(records))
	for i := range records {
		r := &records[i]
		out[i] = model.IndexedRecord{
			ScoredRecord:        *r,
			SeasonLoopBossIndex: groupRank[seasonLoopBoss{r.Season, r.LoopIndex, r.Name}],
			PlayerTokenIndex:    tokenRank[i],
		}
	}
	return out
}
