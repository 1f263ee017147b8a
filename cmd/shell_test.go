package cmd

import (
	"testing"

	"github.com/pable/go-raid-metrics/internal/views"
)

func TestShellSession_UseAndPrompt(t *testing.T) {
	s := &shellSession{sel: views.Selection{Guild: "G1", Season: "70"}}
	if got := s.prompt(); got != "G1/70" {
		t.Errorf("prompt = %q, want G1/70", got)
	}

	s.use([]string{"G2", "69"})
	if s.sel != (views.Selection{Guild: "G2", Season: "69"}) {
		t.Errorf("after use G2 69: %+v", s.sel)
	}

	// "-" clears the guild and keeps the season
	s.use([]string{"-"})
	if s.sel != (views.Selection{Season: "69"}) {
		t.Errorf("after use -: %+v", s.sel)
	}
	if got := s.prompt(); got != "*/69" {
		t.Errorf("prompt = %q, want */69", got)
	}

	// no arguments leaves the selection alone
	s.use(nil)
	if s.sel != (views.Selection{Season: "69"}) {
		t.Errorf("after bare use: %+v", s.sel)
	}
}
