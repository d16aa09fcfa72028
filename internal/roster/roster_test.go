package roster

import (
	"errors"
	"testing"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
)

func newRoster(t *testing.T, species ...string) (*Store, []*creature.Instance) {
	t.Helper()
	s := New()
	var out []*creature.Instance
	for _, sp := range species {
		inst := creature.NewInstance(creature.Spec{Species: sp, Level: 5})
		if err := s.Add(inst); err != nil {
			t.Fatalf("Add(%s) failed: %v", sp, err)
		}
		out = append(out, inst)
	}
	return s, out
}

func TestAddRejectsDuplicateID(t *testing.T) {
	s, insts := newRoster(t, "Pidgey")
	if err := s.Add(insts[0]); err == nil {
		t.Error("expected error on duplicate id")
	}
	if err := s.Add(nil); err == nil {
		t.Error("expected error on nil instance")
	}
}

func TestAliveRosterExcludesDead(t *testing.T) {
	s, insts := newRoster(t, "Pidgey", "Rattata", "Caterpie")
	insts[1].Faint()

	alive := s.AliveRoster()
	if len(alive) != 2 {
		t.Fatalf("expected 2 alive, got %d", len(alive))
	}
	for _, inst := range alive {
		if !inst.Alive {
			t.Errorf("dead instance %s in alive roster", inst.Spec.Species)
		}
	}
	if s.Len() != 3 {
		t.Errorf("dead instances must stay in the graveyard, Len() = %d", s.Len())
	}
}

func TestAliveAtInvalidIndex(t *testing.T) {
	s, _ := newRoster(t, "Pidgey")

	for _, i := range []int{-1, 1, 5} {
		if _, err := s.AliveAt(i); !errors.Is(err, ErrInvalidIndex) {
			t.Errorf("AliveAt(%d) error = %v, want ErrInvalidIndex", i, err)
		}
	}
	inst, err := s.AliveAt(0)
	if err != nil || inst.Spec.Species != "Pidgey" {
		t.Errorf("AliveAt(0) = %v, %v", inst, err)
	}
}

func TestApplyBattleResult(t *testing.T) {
	s, insts := newRoster(t, "Pidgey", "Rattata", "Caterpie")
	party := []string{insts[0].ID, insts[1].ID, insts[2].ID}
	for _, inst := range insts {
		inst.InParty = true
	}

	deaths, err := s.ApplyBattleResult("b1", party, []bool{true, false, true})
	if err != nil {
		t.Fatalf("ApplyBattleResult failed: %v", err)
	}
	if deaths != 1 {
		t.Errorf("deaths = %d, want 1", deaths)
	}
	if insts[1].Alive || insts[1].InParty {
		t.Errorf("fallen member must be dead and out of party: %+v", insts[1])
	}
	if !insts[0].Alive || !insts[2].Alive {
		t.Error("survivors must stay alive")
	}
}

func TestApplyBattleResultIdempotent(t *testing.T) {
	s, insts := newRoster(t, "Pidgey", "Rattata")
	party := []string{insts[0].ID, insts[1].ID}

	if _, err := s.ApplyBattleResult("b1", party, []bool{false, true}); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	deaths, err := s.ApplyBattleResult("b1", party, []bool{false, false})
	if err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if deaths != 0 || !insts[1].Alive {
		t.Errorf("replaying a battle must not change state (deaths=%d)", deaths)
	}
}

func TestApplyBattleResultErrors(t *testing.T) {
	s, insts := newRoster(t, "Pidgey")

	if _, err := s.ApplyBattleResult("b1", []string{insts[0].ID}, nil); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := s.ApplyBattleResult("b2", []string{"nope"}, []bool{false}); !errors.Is(err, ErrUnknownInstance) {
		t.Errorf("expected ErrUnknownInstance, got %v", err)
	}
	if !insts[0].Alive {
		t.Error("failed apply must not change state")
	}
}

func TestRaiseLevelNeverLowers(t *testing.T) {
	s, insts := newRoster(t, "Pidgey")
	id := insts[0].ID

	if changed, _ := s.RaiseLevel(id, 12); !changed || insts[0].Spec.Level != 12 {
		t.Errorf("expected level 12, got %d", insts[0].Spec.Level)
	}
	if changed, _ := s.RaiseLevel(id, 8); changed || insts[0].Spec.Level != 12 {
		t.Errorf("level must not drop, got %d", insts[0].Spec.Level)
	}
}

func TestReplaceSpecCopies(t *testing.T) {
	s, insts := newRoster(t, "Pidgey")
	spec := insts[0].Spec.WithMoves([]string{"gust"})

	if err := s.ReplaceSpec(insts[0].ID, spec); err != nil {
		t.Fatalf("ReplaceSpec failed: %v", err)
	}
	spec.Moves[0] = "tackle"
	if insts[0].Spec.Moves[0] != "gust" {
		t.Error("roster must hold its own copy of the spec")
	}
}

func TestHasSpeciesIncludesDead(t *testing.T) {
	s, insts := newRoster(t, "Pidgey")
	insts[0].Faint()
	if !s.HasSpecies("Pidgey") {
		t.Error("dead species still count for the dupe clause")
	}
}
