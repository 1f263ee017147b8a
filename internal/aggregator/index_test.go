package aggregator

import (
	"testing"

	"github.com/pable/go-raid-metrics/internal/model"
)

func TestIndexRecords(t *testing.T) {
	mk := func(id int64, player, season string, loop int, boss, ts string) model.RaidEventRecord {
		r := hit(id, player, 100, 500)
		r.Season, r.LoopIndex, r.Name, r.Timestamp = season, loop, boss, ts
		return r
	}
	records := []model.RaidEventRecord{
		mk(1, "alice", "9", 3, "Ghazghkull", "2024-01-01T10:00:00Z"),
		mk(2, "alice", "10", 1, "Ghazghkull", "2024-02-01T10:00:00Z"),
		mk(3, "alice", "10", 1, "Avatar", "2024-02-01T11:00:00Z"),
		mk(4, "bob", "10", 2, "Ghazghkull", "2024-02-03T10:00:00Z"),
	}
	indexed := IndexRecords(Prepare(records))
	if len(indexed) != len(records) {
		t.Fatalf("got %d records, want %d", len(indexed), len(records))
	}

	// season 10 sorts after 9 numerically, so it comes first
	wantGroup := map[int64]int{4: 1, 3: 2, 2: 3, 1: 4}
	wantToken := map[int64]int{3: 1, 2: 2, 1: 3, 4: 1}
	for i, r := range indexed {
		if r.ID != records[i].ID {
			t.Errorf("position %d: got ID %d, want input order", i, r.ID)
		}
		if r.SeasonLoopBossIndex != wantGroup[r.ID] {
			t.Errorf("record %d group index: got %d, want %d", r.ID, r.SeasonLoopBossIndex, wantGroup[r.ID])
		}
		if r.PlayerTokenIndex != wantToken[r.ID] {
			t.Errorf("record %d token index: got %d, want %d", r.ID, r.PlayerTokenIndex, wantToken[r.ID])
		}
	}
}

func TestCompareSeasons(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"9", "10", -1},
		{"70", "70", 0},
		{"71", "70", 1},
		{"alpha", "beta", -1},
	}
	for _, tt := range tests {
		if got := model.CompareSeasons(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareSeasons(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
