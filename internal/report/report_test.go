package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pable/go-raid-metrics/internal/leaderboard"
	"github.com/pable/go-raid-metrics/internal/model"
)

func TestFmtPct(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "—"},
		{12.345, "+12.3%"},
		{-50, "-50.0%"},
	}
	for _, tt := range tests {
		if got := fmtPct(tt.in); got != tt.want {
			t.Errorf("fmtPct(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFmtAwardCounts(t *testing.T) {
	got := fmtAwardCounts(map[string]int{"Top Killer": 1, "Gold": 2})
	if got != "2x Gold, Top Killer" {
		t.Errorf("got %q", got)
	}
	if got := fmtAwardCounts(nil); got != "" {
		t.Errorf("nil awards: got %q", got)
	}
}

func TestPrintComparisonTable_MarksFocus(t *testing.T) {
	var buf bytes.Buffer
	rows := []model.ComparisonRow{
		{PlayerBossStat: model.PlayerBossStat{Player: "alice", Boss: "Ghazghkull", TokenCategory: "L1 Ghazghkull", Count: 2, AvgDamage: 100}},
		{PlayerBossStat: model.PlayerBossStat{Player: "bob", Boss: "Ghazghkull", TokenCategory: "L1 Ghazghkull", Count: 3, AvgDamage: 90}},
	}
	PrintComparisonTable(&buf, rows, "bob")
	out := buf.String()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "bob") && !strings.Contains(line, ">") {
			t.Errorf("focused row not marked: %q", line)
		}
		if strings.Contains(line, "alice") && strings.Contains(line, ">") {
			t.Errorf("unfocused row marked: %q", line)
		}
	}
}

func TestPrintTokenTable(t *testing.T) {
	var buf bytes.Buffer
	usage := []model.TokenUsage{
		{Player: "alice", Tokens: 3, Bombs: 1, ByCategory: map[string]int{"L1 Ghazghkull": 3}},
	}
	PrintTokenTable(&buf, usage, []string{"L1 Ghazghkull", "Non-Leg."}, 4)
	out := buf.String()
	for _, c := range []string{"L1 Ghazghkull", "Non-Leg."} {
		if !strings.Contains(out, c) {
			t.Errorf("category %q not printed verbatim:\n%s", c, out)
		}
	}
	if !strings.Contains(out, "Lost tokens: 4") {
		t.Errorf("missing lost tokens line:\n%s", out)
	}
}

func TestPrintSetWinners_EmptyAwards(t *testing.T) {
	var buf bytes.Buffer
	PrintSetWinners(&buf, []leaderboard.SetWinners{{Set: 0}})
	if !strings.Contains(buf.String(), "L1") {
		t.Errorf("missing level:\n%s", buf.String())
	}
}

func TestPrintAggregateTable_KeepsDataHeaders(t *testing.T) {
	var buf bytes.Buffer
	rows := []model.AggregateRow{{Key: []string{"Leg. Primes"}, Count: 2, Total: 300, Avg: 150, Max: 200}}
	PrintAggregateTable(&buf, []string{"category"}, rows)
	out := buf.String()
	for _, want := range []string{"CATEGORY", "W AVG", "Leg. Primes"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}
}
