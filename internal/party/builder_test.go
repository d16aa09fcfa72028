package party

import (
	"errors"
	"testing"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/dex"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/roster"
)

const testDex = `
species:
  pidgey: {name: Pidgey, types: [Normal, Flying], stats: [40, 45, 40, 35, 35, 56], abilities: [keeneye], learnset: {tackle: 1, sandattack: 5, gust: 9, quickattack: 13, wingattack: 25}}
  magikarp: {name: Magikarp, types: [Water], stats: [20, 10, 55, 15, 20, 80], abilities: [swiftswim], learnset: {splash: 1}}
  ditto: {name: Ditto, types: [Normal], stats: [48, 48, 48, 48, 48, 48], abilities: [limber], learnset: {}}
`

func setup(t *testing.T, species ...string) (*Builder, *roster.Store, []*creature.Instance) {
	t.Helper()
	d, err := dex.Parse([]byte(testDex))
	if err != nil {
		t.Fatalf("dex.Parse failed: %v", err)
	}
	r := roster.New()
	var insts []*creature.Instance
	for _, sp := range species {
		inst := creature.NewInstance(creature.Spec{Species: sp, Level: 5})
		if err := r.Add(inst); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		insts = append(insts, inst)
	}
	return NewBuilder(r, d, ""), r, insts
}

func TestBeginClearsPartyFlags(t *testing.T) {
	b, _, insts := setup(t, "Pidgey", "Pidgey")
	insts[0].InParty = true

	b.Begin(0)
	if insts[0].InParty {
		t.Error("Begin must clear in-party flags")
	}
	if b.Slot() != 0 || b.Building() {
		t.Error("Begin must reset the buffer")
	}
}

func TestSelectMemberRejectsDuplicate(t *testing.T) {
	b, _, _ := setup(t, "Pidgey", "Magikarp")
	b.Begin(0)

	if _, err := b.SelectMember(0); err != nil {
		t.Fatalf("SelectMember(0) failed: %v", err)
	}
	if err := b.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if _, err := b.SelectMember(0); !errors.Is(err, ErrAlreadySelected) {
		t.Errorf("expected ErrAlreadySelected, got %v", err)
	}
	if sel := b.Selectable(); sel[0] || !sel[1] {
		t.Errorf("Selectable() = %v, want [false true]", sel)
	}
}

func TestSelectMemberInvalidIndex(t *testing.T) {
	b, _, _ := setup(t, "Pidgey")
	b.Begin(0)

	if _, err := b.SelectMember(3); !errors.Is(err, roster.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
}

func TestWindowLimitsPicks(t *testing.T) {
	b, _, _ := setup(t, "Ditto", "Ditto", "Ditto")
	b.SetWindow(2)
	b.Begin(0)

	if got := len(b.Selectable()); got != 2 {
		t.Fatalf("selectable = %d entries, want 2", got)
	}
	for i := 0; i < 2; i++ {
		if _, err := b.SelectMember(i); err != nil {
			t.Fatalf("SelectMember(%d) failed: %v", i, err)
		}
	}
	if !b.Complete() {
		t.Error("party should be complete once the window is used up")
	}
	if _, err := b.SelectMember(2); !errors.Is(err, roster.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex outside the window, got %v", err)
	}
}

func TestSelectMemberSkipsDead(t *testing.T) {
	b, _, insts := setup(t, "Pidgey", "Magikarp")
	insts[0].Faint()
	b.Begin(0)

	if _, err := b.SelectMember(0); err != nil {
		t.Fatalf("SelectMember failed: %v", err)
	}
	if b.Current() != insts[1] {
		t.Error("index 0 of the alive roster should be the living Magikarp")
	}
}

func TestBuildLevelUsesCap(t *testing.T) {
	b, _, insts := setup(t, "Pidgey")
	b.Begin(14)

	if _, err := b.SelectMember(0); err != nil {
		t.Fatalf("SelectMember failed: %v", err)
	}
	if b.BuildLevel() != 14 {
		t.Errorf("BuildLevel() = %d, want 14", b.BuildLevel())
	}
	if len(b.LegalMoves()) != 4 {
		t.Errorf("expected 4 moves legal at 14, got %v", b.LegalMoves())
	}

	if _, err := b.SelectMove("wingattack"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("wingattack is level 25, expected ErrIllegalMove, got %v", err)
	}
	if err := b.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if insts[0].Spec.Level != 14 {
		t.Errorf("built member level = %d, want 14", insts[0].Spec.Level)
	}
}

func TestBuildLevelNeverLowers(t *testing.T) {
	b, _, insts := setup(t, "Pidgey")
	insts[0].Spec = insts[0].Spec.WithLevel(30)
	b.Begin(10)

	if _, err := b.SelectMember(0); err != nil {
		t.Fatalf("SelectMember failed: %v", err)
	}
	if b.BuildLevel() != 30 {
		t.Errorf("BuildLevel() = %d, want 30", b.BuildLevel())
	}
}

func TestFourthMoveFinalizes(t *testing.T) {
	b, _, insts := setup(t, "Pidgey")
	b.Begin(30)
	original := insts[0].Spec

	if _, err := b.SelectMember(0); err != nil {
		t.Fatalf("SelectMember failed: %v", err)
	}
	for i, m := range []dex.MoveID{"gust", "tackle", "quickattack"} {
		done, err := b.SelectMove(m)
		if err != nil || done {
			t.Fatalf("move %d: done=%v err=%v", i, done, err)
		}
	}
	if _, err := b.SelectMove("gust"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("repeated move should be illegal, got %v", err)
	}
	done, err := b.SelectMove("wingattack")
	if err != nil || !done {
		t.Fatalf("fourth move should finalize: done=%v err=%v", done, err)
	}

	if len(insts[0].Spec.Moves) != 4 {
		t.Errorf("expected 4 moves, got %v", insts[0].Spec.Moves)
	}
	if len(original.Moves) != 0 {
		t.Error("original spec value must not change")
	}
	if !b.Complete() {
		t.Error("single-instance roster should be complete after one build")
	}
}

func TestStopWithNoMovesUsesFiller(t *testing.T) {
	b, _, insts := setup(t, "Pidgey")
	b.Begin(0)

	if _, err := b.SelectMember(0); err != nil {
		t.Fatalf("SelectMember failed: %v", err)
	}
	if err := b.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if got := insts[0].Spec.Moves; len(got) != 1 || got[0] != DefaultFiller {
		t.Errorf("moves = %v, want [%s]", got, DefaultFiller)
	}
}

func TestExhaustedLearnsetFinalizes(t *testing.T) {
	b, _, insts := setup(t, "Magikarp", "Ditto")
	b.Begin(0)

	done, err := b.SelectMove("splash")
	if !errors.Is(err, ErrNoMember) || done {
		t.Errorf("SelectMove without a member: done=%v err=%v", done, err)
	}

	if _, err := b.SelectMember(0); err != nil {
		t.Fatalf("SelectMember failed: %v", err)
	}
	done, err = b.SelectMove("splash")
	if err != nil || !done {
		t.Fatalf("last legal move should finalize: done=%v err=%v", done, err)
	}

	// Ditto has no learnset and is finalized on selection.
	done, err = b.SelectMember(1)
	if err != nil || !done {
		t.Fatalf("empty learnset should finalize at once: done=%v err=%v", done, err)
	}
	if got := insts[1].Spec.Moves; len(got) != 1 || got[0] != DefaultFiller {
		t.Errorf("moves = %v, want filler", got)
	}
	if len(b.Members()) != 2 || !b.Complete() {
		t.Errorf("expected complete party of 2, got %v", b.Members())
	}
}

func TestPartyCapsAtSix(t *testing.T) {
	b, _, _ := setup(t, "Ditto", "Ditto", "Ditto", "Ditto", "Ditto", "Ditto", "Ditto")
	b.Begin(0)

	for i := 0; i < 6; i++ {
		if _, err := b.SelectMember(i); err != nil {
			t.Fatalf("SelectMember(%d) failed: %v", i, err)
		}
	}
	if !b.Complete() {
		t.Error("six members should complete the party")
	}
	if _, err := b.SelectMember(6); !errors.Is(err, ErrComplete) {
		t.Errorf("expected ErrComplete, got %v", err)
	}
}

func TestCustomFiller(t *testing.T) {
	d, _ := dex.Parse([]byte(testDex))
	r := roster.New()
	inst := creature.NewInstance(creature.Spec{Species: "Ditto", Level: 5})
	_ = r.Add(inst)

	b := NewBuilder(r, d, "struggle")
	b.Begin(0)
	if _, err := b.SelectMember(0); err != nil {
		t.Fatalf("SelectMember failed: %v", err)
	}
	if inst.Spec.Moves[0] != "struggle" {
		t.Errorf("filler = %v, want struggle", inst.Spec.Moves)
	}
}
