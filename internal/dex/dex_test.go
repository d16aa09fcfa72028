package dex

import (
	"slices"
	"testing"
)

func mustDefault(t *testing.T) *Dex {
	t.Helper()
	d, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}
	return d
}

func TestDefaultLoads(t *testing.T) {
	d := mustDefault(t)

	if d.SpeciesCount() < 27 {
		t.Errorf("expected at least the starter catalogue, got %d species", d.SpeciesCount())
	}
	if d.MoveCount() == 0 {
		t.Error("expected a non-empty move vocabulary")
	}
}

func TestLearnableMovesByLevel(t *testing.T) {
	d := mustDefault(t)

	at5 := d.LearnableMoves("Bulbasaur", 5)
	if !slices.Equal(at5, []MoveID{"growl", "tackle", "vinewhip"}) {
		t.Errorf("Bulbasaur@5 = %v", at5)
	}

	at12 := d.LearnableMoves("Bulbasaur", 12)
	if len(at12) <= len(at5) {
		t.Errorf("higher level should unlock more moves: %v vs %v", at12, at5)
	}
	if !slices.Contains(at12, "razorleaf") {
		t.Errorf("Bulbasaur@12 should know razorleaf: %v", at12)
	}
}

func TestBaseSpeciesFallback(t *testing.T) {
	d := mustDefault(t)

	if got := d.Types("Vulpix-A"); !slices.Equal(got, []string{"Fire"}) {
		t.Errorf("Types(Vulpix-A) = %v, want fallback to Vulpix", got)
	}
	if got := d.DefaultAbility("Vulpix-A"); got != "flashfire" {
		t.Errorf("DefaultAbility(Vulpix-A) = %q", got)
	}
	if !d.Known("Tauros-P") {
		t.Error("Tauros-P should resolve through its base species")
	}
}

func TestUnknownSpeciesDefaults(t *testing.T) {
	d := mustDefault(t)

	if moves := d.LearnableMoves("Missingno", 100); len(moves) != 0 {
		t.Errorf("unknown species should have no moves, got %v", moves)
	}
	if stats := d.BaseStats("Missingno"); stats != [6]int{} {
		t.Errorf("unknown species should have zero stats, got %v", stats)
	}
	if got := d.DefaultAbility("Missingno"); got != NoAbility {
		t.Errorf("DefaultAbility = %q, want %q", got, NoAbility)
	}
	if got := d.Types("Missingno"); len(got) != 0 {
		t.Errorf("unknown species should have no types, got %v", got)
	}
}

func TestTags(t *testing.T) {
	d := mustDefault(t)

	if d.MoveTag("") != 0 {
		t.Error("empty move must encode to 0")
	}
	if d.MoveTag("Vine Whip") == 0 || d.MoveTag("Vine Whip") != d.MoveTag("vinewhip") {
		t.Error("move tags should be stable across display and id forms")
	}
	if d.MoveTag("absorb") >= d.MoveTag("tackle") {
		t.Error("move tags should follow sorted order")
	}
	if d.TypeTag("Normal") != 1 || d.TypeTag("Fairy") != TypeCount {
		t.Errorf("type tags out of order: Normal=%d Fairy=%d", d.TypeTag("Normal"), d.TypeTag("Fairy"))
	}
	if d.AbilityTag("overgrow") == 0 {
		t.Error("known ability should have a tag")
	}
	if d.AbilityTag(NoAbility) != 0 {
		t.Error("noability should encode to 0")
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	data := []byte(`
species:
  foo: {name: Foo, types: [Plasma], stats: [1, 1, 1, 1, 1, 1], abilities: [x], learnset: {tackle: 1}}
`)
	if _, err := Parse(data); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestToID(t *testing.T) {
	tests := map[string]string{
		"Mr. Mime":   "mrmime",
		"Nidoran-F":  "nidoranf",
		"Vine Whip":  "vinewhip",
		"U-turn":     "uturn",
		"  Tackle  ": "tackle",
	}
	for in, want := range tests {
		if got := ToID(in); got != want {
			t.Errorf("ToID(%q) = %q, want %q", in, got, want)
		}
	}
}
