package aggregator

import (
	"testing"

	"github.com/pable/go-raid-metrics/internal/model"
)

func TestTokenCategory(t *testing.T) {
	tests := []struct {
		name        string
		tier        int
		encounterID int
		set         int
		want        string
	}{
		{"legendary main boss", 5, 0, 2, "L3 Ghazghkull"},
		{"legendary first set", 4, 0, 0, "L1 Ghazghkull"},
		{"legendary prime", 5, 3, 2, "Leg. Primes"},
		{"low tier", 2, 0, 1, "Non-Leg."},
		{"low tier prime", 3, 1, 0, "Non-Leg."},
	}
	for _, tt := range tests {
		r := hit(1, "alice", 100, 50)
		r.Tier, r.EncounterID, r.Set = tt.tier, tt.encounterID, tt.set
		if got := TokenCategory(r); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCalculateLostTokens(t *testing.T) {
	tests := []struct {
		name   string
		tokens map[string]int
		want   int
	}{
		{"three players", map[string]int{"A": 10, "B": 7, "C": 3}, 4},
		{"within free slots", map[string]int{"A": 5, "B": 3, "C": 2}, 0},
		{"single player", map[string]int{"A": 12}, 0},
		{"empty", nil, 0},
		{"several short", map[string]int{"A": 12, "B": 0, "C": 4}, 9 + 5},
	}
	for _, tt := range tests {
		if got := CalculateLostTokens(tt.tokens); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestTokenUsage_CountsCrashesAndBombsSeparately(t *testing.T) {
	bomb := hit(4, "alice", 800, 100)
	bomb.DamageType = model.DamageBomb
	prime := hit(5, "bob", 300, 1000)
	prime.EncounterID = 2
	prime.EncounterIndex = 2
	records := []model.RaidEventRecord{
		hit(1, "alice", 1000, 5000),
		hit(2, "alice", 0, 5000), // crash still spends a token
		hit(3, "bob", 2000, 0),
		bomb,
		prime,
	}
	usage := TokenUsage(ClassifyDataset(records))
	if len(usage) != 2 {
		t.Fatalf("got %d rows, want 2", len(usage))
	}

	// alice and bob both spent 2 tokens; name breaks the tie.
	alice, bob := usage[0], usage[1]
	if alice.Player != "alice" || bob.Player != "bob" {
		t.Fatalf("unexpected order: %s, %s", alice.Player, bob.Player)
	}
	if alice.Tokens != 2 || alice.Bombs != 1 {
		t.Errorf("alice: tokens=%d bombs=%d, want 2 and 1", alice.Tokens, alice.Bombs)
	}
	if alice.ByCategory["L1 Ghazghkull"] != 2 {
		t.Errorf("alice L1 tokens: got %d, want 2", alice.ByCategory["L1 Ghazghkull"])
	}
	if bob.ByCategory[CategoryLegendaryPrime] != 1 || bob.ByCategory["L1 Ghazghkull"] != 1 {
		t.Errorf("bob categories: %v", bob.ByCategory)
	}

	cats := Categories(usage)
	want := []string{"L1 Ghazghkull", CategoryLegendaryPrime}
	if len(cats) != len(want) {
		t.Fatalf("categories: got %v, want %v", cats, want)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Errorf("categories[%d]: got %q, want %q", i, cats[i], want[i])
		}
	}

	if lost := CalculateLostTokens(TokenCounts(usage)); lost != 0 {
		t.Errorf("lost tokens: got %d, want 0", lost)
	}
}
