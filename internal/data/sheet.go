package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/graph"
)

// Boss sheet grid layout. A trainer block starts on the row whose name
// column holds a role keyword; each creature occupies one column and its
// fields sit at fixed row offsets below the block header.
const (
	sheetNameCol      = 2
	sheetLevelRow     = 1
	sheetNatureRow    = 4
	sheetAbilityRow   = 5
	sheetItemRow      = 6
	sheetFirstMoveRow = 7
	sheetBlockSkip    = 15

	// SheetFallbackLevel is used when a level cell cannot be read.
	SheetFallbackLevel = 50
)

var (
	sheetCreatureCols = []int{4, 9, 14, 19, 24, 29}
	sheetRoles        = []string{"GYM LEADER", "BOSS", "RIVAL", "ROCKET", "ELITE FOUR", "CHAMPION"}
)

// DefaultUnlocks maps the index of a trainer in a full Kanto boss sheet to
// the locations its defeat opens.
var DefaultUnlocks = map[int][]string{
	0:  {"ROUTE 1", "ROUTE 22", "ROUTE 2", "VIRIDIAN FOREST"},
	5:  {"ROUTE 3", "MT MOON 1F"},
	7:  {"MT MOON B1F", "MT MOON B2F", "ROUTE 4"},
	15: {"ROUTE 24", "ROUTE 25"},
	16: {"ROUTE 5", "ROUTE 6", "DIGLETT CAVE", "DIGLETT CAVE B1F"},
	20: {"ROUTE 9", "ROUTE 10", "ROCK TUNNEL 1F", "ROCK TUNNEL B1F", "ROUTE 11"},
	23: {"ROUTE 16", "ROUTE 17", "ROUTE 18"},
	27: {"PKMN TOWER 3&5F", "PKMN TOWER 4F", "PKMN TOWER 6F", "PKMN TOWER 7F"},
	30: {"ROUTE 12", "ROUTE 13", "ROUTE 14", "ROUTE 15"},
	48: {"SEAFOAM 1F", "SEAFOAM B1F", "SEAFOAM B2F", "SEAFOAM B3F", "SEAFOAM B4F", "ROUTE 21A"},
	50: {"MANSION 1F", "MANSION 2F", "MANSION 3F", "MANSION B1F", "POWER PLANT"},
	52: {"ROUTE 23", "VICTORY ROAD 1F", "VICTORY ROAD 2F", "VICTORY ROAD 3F", "CERULEAN CAVE 1F"},
}

// Trainer is one block read from a boss sheet.
type Trainer struct {
	Name string
	Role string // header line above the name, e.g. "GYM LEADER"
	Team []creature.Spec
}

// ParseBossGrid extracts trainers from a boss sheet grid. Blocks without
// any creature are dropped.
func ParseBossGrid(rows [][]string) []Trainer {
	var trainers []Trainer

	for i := 0; i < len(rows); {
		header := cell(rows, i, sheetNameCol)
		role, ok := sheetRole(header)
		if !ok {
			i++
			continue
		}

		lines := strings.Split(header, "\n")
		t := Trainer{
			Name: strings.TrimSpace(lines[len(lines)-1]),
			Role: role,
		}
		for _, col := range sheetCreatureCols {
			species := strings.TrimSpace(cell(rows, i, col))
			if species == "" {
				continue
			}
			t.Team = append(t.Team, creature.Spec{
				Species: species,
				Level:   sheetLevel(cell(rows, i+sheetLevelRow, col)),
				Nature:  strings.TrimSpace(cell(rows, i+sheetNatureRow, col)),
				Ability: strings.TrimSpace(cell(rows, i+sheetAbilityRow, col)),
				Item:    strings.TrimSpace(cell(rows, i+sheetItemRow, col)),
				Moves:   sheetMoves(rows, i, col),
			})
		}
		if len(t.Team) > 0 {
			trainers = append(trainers, t)
		}
		i += sheetBlockSkip
	}
	return trainers
}

func sheetRole(header string) (string, bool) {
	for _, r := range sheetRoles {
		if strings.Contains(header, r) {
			return r, true
		}
	}
	return "", false
}

func sheetLevel(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return SheetFallbackLevel
}

func sheetMoves(rows [][]string, row, col int) []string {
	var moves []string
	for r := sheetFirstMoveRow; r < sheetFirstMoveRow+creature.MaxMoves; r++ {
		m := strings.TrimSpace(cell(rows, row+r, col))
		if m == "" || m == "-" {
			continue
		}
		moves = append(moves, m)
	}
	return moves
}

func cell(rows [][]string, r, c int) string {
	if r < 0 || r >= len(rows) || c < 0 || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

// ReadBossCSV parses a boss sheet exported as CSV.
func ReadBossCSV(r io.Reader) ([]Trainer, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("data: cannot read boss csv: %w", err)
	}
	return ParseBossGrid(rows), nil
}

// ReadBossXLSX parses one sheet of a boss workbook. An empty sheet name
// reads the first sheet.
func ReadBossXLSX(path, sheet string) ([]Trainer, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("data: cannot open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("data: cannot read sheet %q: %w", sheet, err)
	}
	return ParseBossGrid(rows), nil
}

// ReadBossSheet reads a boss sheet, choosing the format by extension.
func ReadBossSheet(path, sheet string) ([]Trainer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadBossXLSX(path, sheet)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("data: cannot open %s: %w", path, err)
		}
		defer f.Close()
		return ReadBossCSV(f)
	default:
		return nil, fmt.Errorf("data: unsupported sheet format %q", filepath.Ext(path))
	}
}

// FromTrainers builds a linear gauntlet file from sheet trainers. unlocks
// is keyed by trainer index; gym leaders become gyms and the rest bosses.
func FromTrainers(id, title string, trainers []Trainer, unlocks map[int][]string) *File {
	f := &File{ID: id, Title: title}
	taken := make(map[string]bool)

	for i, t := range trainers {
		base := slug(t.Name)
		if base == "" {
			base = "trainer"
		}
		nodeID := base
		for n := 2; taken[nodeID]; n++ {
			nodeID = fmt.Sprintf("%s_%d", base, n)
		}
		taken[nodeID] = true

		kind := graph.KindBoss
		if t.Role == "GYM LEADER" {
			kind = graph.KindGym
		}
		team := make([]creature.Spec, len(t.Team))
		for j, s := range t.Team {
			team[j] = s.Clone()
		}
		f.Nodes = append(f.Nodes, &graph.Node{
			ID:      nodeID,
			Name:    t.Name,
			Kind:    kind,
			Team:    team,
			Unlocks: slices.Clone(unlocks[i]),
		})
	}
	return f
}

func slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
