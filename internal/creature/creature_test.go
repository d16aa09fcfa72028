package creature

import (
	"strings"
	"testing"
)

func TestSpecWithMovesDoesNotMutate(t *testing.T) {
	base := Spec{Species: "Pikachu", Level: 5, Moves: []string{"thundershock"}}

	built := base.WithMoves([]string{"thunderbolt", "quickattack"})

	if len(base.Moves) != 1 || base.Moves[0] != "thundershock" {
		t.Errorf("original moves changed: %v", base.Moves)
	}
	if len(built.Moves) != 2 {
		t.Errorf("expected 2 moves, got %v", built.Moves)
	}
	if built.Equal(base) {
		t.Error("built spec should differ from original")
	}
}

func TestSpecWithMovesCapsAtFour(t *testing.T) {
	s := Spec{Species: "Mew"}.WithMoves([]string{"a", "b", "c", "d", "e"})
	if len(s.Moves) != MaxMoves {
		t.Errorf("expected %d moves, got %d", MaxMoves, len(s.Moves))
	}
}

func TestSpecCloneIndependentStats(t *testing.T) {
	base := Spec{Species: "Onix", EVs: map[string]int{"Def": 252}}
	c := base.Clone()
	c.EVs["Def"] = 4

	if base.EVs["Def"] != 252 {
		t.Errorf("clone shares EV map with original")
	}
}

func TestNewInstance(t *testing.T) {
	a := NewInstance(Spec{Species: "Eevee", Level: 5})
	b := NewInstance(Spec{Species: "Eevee", Level: 5})

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
	if !a.Alive || a.InParty || a.HP != 1 {
		t.Errorf("unexpected initial state: %+v", a)
	}

	a.InParty = true
	a.Faint()
	if a.Alive || a.InParty {
		t.Errorf("fainted instance must be dead and out of party: %+v", a)
	}
}

func TestShowdownSpecies(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Vulpix-A", "Vulpix-Alola"},
		{"Ponyta-G", "Ponyta-Galar"},
		{"Growlithe-H", "Growlithe-Hisui"},
		{"Tauros-P", "Tauros-Paldea"},
		{"Kyogre-P", "Kyogre-Primal"},
		{"Ogerpon-W", "Ogerpon-Wellspring"},
		{"Pikachu", "Pikachu"},
	}

	for _, tt := range tests {
		if got := ShowdownSpecies(tt.in); got != tt.want {
			t.Errorf("ShowdownSpecies(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShowdownFormat(t *testing.T) {
	s := Spec{
		Species: "Gyarados",
		Level:   30,
		Item:    "Well. Mask",
		Ability: "intimidateboth\nmoxie",
		Nature:  "Adamant",
		EVs:     map[string]int{"Spe": 252, "Atk": 252},
		Moves:   []string{"waterfall", "bite"},
	}

	want := strings.Join([]string{
		"Gyarados @ Wellspring Mask",
		"Level: 30",
		"Ability: Intimidate",
		"Adamant Nature",
		"EVs: 252 Atk / 252 Spe",
		"- waterfall",
		"- bite",
	}, "\n")

	if got := s.Showdown(); got != want {
		t.Errorf("Showdown() =\n%s\nwant\n%s", got, want)
	}
}

func TestShowdownTeam(t *testing.T) {
	team := []Spec{
		{Species: "Bulbasaur", Level: 5},
		{Species: "Charmander", Level: 5},
	}
	got := ShowdownTeam(team)
	if !strings.Contains(got, "Level: 5\n\nCharmander") {
		t.Errorf("members should be separated by a blank line:\n%s", got)
	}
}
