package data

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/dex"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/graph"
)

func TestEmbeddedGauntlets(t *testing.T) {
	defs, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded failed: %v", err)
	}
	var ids []string
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	want := []string{"indigo_league", "kanto_leaders", "team_rocket"}
	if !slices.Equal(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}

	d, _ := dex.Default()
	table, _ := Encounters()
	for _, def := range defs {
		for _, n := range def.Graph.Nodes() {
			for _, s := range n.Team {
				if !d.Known(s.Species) {
					t.Errorf("%s/%s: unknown species %s", def.ID, n.ID, s.Species)
				}
			}
			for _, loc := range n.Unlocks {
				if len(table[loc]) == 0 {
					t.Errorf("%s/%s: location %q has no encounters", def.ID, n.ID, loc)
				}
			}
		}
	}
}

func TestKantoLeaders(t *testing.T) {
	defs, _ := Embedded()
	kanto := defs[1]
	if kanto.Graph.Len() != 13 || kanto.Graph.Start() != "rival_lab" {
		t.Errorf("unexpected graph: len=%d start=%s", kanto.Graph.Len(), kanto.Graph.Start())
	}
	if kanto.Rules.Len() != 2 {
		t.Errorf("expected 2 rules, got %d", kanto.Rules.Len())
	}
	brock, ok := kanto.Graph.Node("brock")
	if !ok || brock.Kind != graph.KindGym || brock.Cap() != 14 {
		t.Errorf("unexpected brock node: %+v", brock)
	}
}

func TestTeamRocketBranches(t *testing.T) {
	defs, _ := Embedded()
	rocket := defs[2]

	next := rocket.Graph.Successors("grunt_mt_moon")
	if !slices.Equal(next, []string{"proton_nugget_bridge", "archer_game_corner"}) {
		t.Errorf("successors = %v", next)
	}
	proton, _ := rocket.Graph.Node("proton_nugget_bridge")
	if !proton.Optional() {
		t.Error("proton should be optional")
	}
}

func TestEncounters(t *testing.T) {
	table, err := Encounters()
	if err != nil {
		t.Fatalf("Encounters failed: %v", err)
	}
	route1 := table["ROUTE 1"]
	if len(route1) != 2 || route1[0].Species != "Pidgey" || route1[0].Level != "2-4" {
		t.Errorf("unexpected ROUTE 1: %+v", route1)
	}
	if _, err := ParseEncounters([]byte("locations:\n  X:\n    - {rate: 5}\n")); err == nil {
		t.Error("expected error for option without species")
	}
}

const linearYAML = `
id: mini
nodes:
  - id: a
    team: [{species: Pidgey, level: 5}]
  - id: b
    kind: event
    team: [{species: Rattata, level: 6}]
rules:
  - when: "wins >= 1"
    unlock: ["ROUTE 1"]
`

func TestParseLinear(t *testing.T) {
	def, err := Parse([]byte(linearYAML), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if def.Title != "mini" {
		t.Errorf("title should default to id, got %q", def.Title)
	}
	if got := def.Graph.Successors("a"); !slices.Equal(got, []string{"b"}) {
		t.Errorf("successors(a) = %v", got)
	}
	if def.Rules.Len() != 1 {
		t.Errorf("expected 1 rule, got %d", def.Rules.Len())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{name: "no id", yaml: "nodes: [{id: a, team: [{species: Pidgey, level: 5}]}]"},
		{name: "no nodes", yaml: "id: x"},
		{name: "empty team", yaml: "id: x\nnodes: [{id: a}]"},
		{
			name:    "unknown edge",
			yaml:    "id: x\nnodes: [{id: a, team: [{species: Pidgey, level: 5}]}]\nedges: [[a, z]]",
			wantErr: graph.ErrUnknownNode,
		},
		{
			name: "cycle",
			yaml: `id: x
nodes:
  - {id: a, team: [{species: Pidgey, level: 5}]}
  - {id: b, team: [{species: Pidgey, level: 5}]}
edges: [[a, b], [b, a]]`,
		},
		{
			name: "bad edge",
			yaml: "id: x\nnodes: [{id: a, team: [{species: Pidgey, level: 5}]}]\nedges: [[a]]",
		},
		{
			name: "bad rule",
			yaml: "id: x\nnodes: [{id: a, team: [{species: Pidgey, level: 5}]}]\nrules: [{when: 'wins +', unlock: [A]}]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseExplicitStart(t *testing.T) {
	src := `id: x
start: b
nodes:
  - {id: a, team: [{species: Pidgey, level: 5}]}
  - {id: b, team: [{species: Pidgey, level: 5}]}
edges: [[b, a]]`
	def, err := Parse([]byte(src), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if def.Graph.Start() != "b" {
		t.Errorf("start = %s, want b", def.Graph.Start())
	}
}

// bossGrid lays out trainers the way boss sheets do.
func bossGrid() [][]string {
	rows := make([][]string, 40)
	for i := range rows {
		rows[i] = make([]string, 30)
	}
	rows[0][2] = "GYM LEADER\nBROCK"
	rows[0][4], rows[0][9] = "Geodude", "Onix"
	rows[1][4], rows[1][9] = "12", "lv?"
	rows[4][4] = "Impish"
	rows[5][4], rows[5][9] = "Sturdy", "Rock Head"
	rows[6][9] = "Oran Berry"
	rows[7][4], rows[8][4], rows[9][4], rows[10][4] = "Tackle", "Rock Throw", "-", ""
	rows[7][9] = "Bind"

	rows[3][2] = "GYM LEADER\nNOT A BLOCK" // inside the skipped rows

	rows[20][2] = "RIVAL\nBLUE"
	rows[20][14] = "Squirtle"
	rows[21][14] = "5"

	rows[36][2] = "BOSS\nEMPTY"
	return rows
}

func checkBossTrainers(t *testing.T, got []Trainer) {
	t.Helper()
	if len(got) != 2 {
		t.Fatalf("expected 2 trainers, got %d: %+v", len(got), got)
	}
	brock := got[0]
	if brock.Name != "BROCK" || brock.Role != "GYM LEADER" || len(brock.Team) != 2 {
		t.Fatalf("unexpected first trainer: %+v", brock)
	}
	geo := brock.Team[0]
	if geo.Level != 12 || geo.Nature != "Impish" || geo.Ability != "Sturdy" {
		t.Errorf("unexpected Geodude: %+v", geo)
	}
	if !slices.Equal(geo.Moves, []string{"Tackle", "Rock Throw"}) {
		t.Errorf("Geodude moves = %v", geo.Moves)
	}
	onix := brock.Team[1]
	if onix.Level != SheetFallbackLevel || onix.Item != "Oran Berry" {
		t.Errorf("unexpected Onix: %+v", onix)
	}
	if got[1].Name != "BLUE" || got[1].Team[0].Level != 5 {
		t.Errorf("unexpected rival: %+v", got[1])
	}
}

func TestParseBossGrid(t *testing.T) {
	checkBossTrainers(t, ParseBossGrid(bossGrid()))
}

func TestReadBossCSV(t *testing.T) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(bossGrid()); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	got, err := ReadBossCSV(&buf)
	if err != nil {
		t.Fatalf("ReadBossCSV failed: %v", err)
	}
	checkBossTrainers(t, got)
}

func TestReadBossXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bosses.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range bossGrid() {
		for c, v := range row {
			if v == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName failed: %v", err)
			}
			if err := f.SetCellStr(sheet, name, v); err != nil {
				t.Fatalf("SetCellStr failed: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	_ = f.Close()

	got, err := ReadBossSheet(path, "")
	if err != nil {
		t.Fatalf("ReadBossSheet failed: %v", err)
	}
	checkBossTrainers(t, got)

	if _, err := ReadBossSheet(filepath.Join(t.TempDir(), "x.txt"), ""); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFromTrainers(t *testing.T) {
	trainers := ParseBossGrid(bossGrid())
	trainers = append(trainers, Trainer{Name: "Blue", Role: "RIVAL", Team: trainers[1].Team})

	f := FromTrainers("sheet", "Sheet", trainers, DefaultUnlocks)
	var ids []string
	for _, n := range f.Nodes {
		ids = append(ids, n.ID)
	}
	if !slices.Equal(ids, []string{"brock", "blue", "blue_2"}) {
		t.Errorf("node ids = %v", ids)
	}
	if f.Nodes[0].Kind != graph.KindGym || f.Nodes[1].Kind != graph.KindBoss {
		t.Errorf("unexpected kinds: %s %s", f.Nodes[0].Kind, f.Nodes[1].Kind)
	}
	if len(f.Nodes[0].Unlocks) != 4 {
		t.Errorf("first trainer should unlock the opening routes, got %v", f.Nodes[0].Unlocks)
	}

	raw, err := Marshal(f)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	def, err := Parse(raw, nil)
	if err != nil {
		t.Fatalf("Parse of marshalled file failed: %v", err)
	}
	if def.Graph.Len() != 3 || def.Graph.Start() != "brock" {
		t.Errorf("unexpected round trip graph: len=%d start=%s", def.Graph.Len(), def.Graph.Start())
	}
}

func TestFromTrainersUniqueIDs(t *testing.T) {
	team := ParseBossGrid(bossGrid())[0].Team
	trainers := []Trainer{
		{Name: "Grunt 2", Role: "BOSS", Team: team},
		{Name: "Grunt", Role: "BOSS", Team: team},
		{Name: "Grunt", Role: "BOSS", Team: team},
		{Name: "Grunt", Role: "BOSS", Team: team},
	}

	f := FromTrainers("rocket", "Rocket", trainers, nil)
	var ids []string
	for _, n := range f.Nodes {
		ids = append(ids, n.ID)
	}
	if !slices.Equal(ids, []string{"grunt_2", "grunt", "grunt_3", "grunt_4"}) {
		t.Errorf("node ids = %v", ids)
	}
	if _, err := f.Build(nil); err != nil {
		t.Errorf("Build failed: %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	defs, err := LoadDir(filepath.Join(dir, "missing"), nil)
	if err != nil || defs != nil {
		t.Fatalf("missing dir should yield nothing, got %v %v", defs, err)
	}

	raw, _ := Marshal(FromTrainers("imported", "Imported", ParseBossGrid(bossGrid()), nil))
	if err := os.WriteFile(filepath.Join(dir, "imported.yaml"), raw, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	defs, err = LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(defs) != 1 || defs[0].ID != "imported" {
		t.Errorf("unexpected defs: %v", defs)
	}
}
