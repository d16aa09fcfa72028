package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/data"
)

var (
	flagImportID    string
	flagImportTitle string
	flagImportSheet string
	flagImportOut   string
)

var importCmd = &cobra.Command{
	Use:   "import <sheet>",
	Short: "Build a gauntlet from a boss sheet",
	Long: `Read a boss sheet (.xlsx or .csv) laid out as trainer blocks and write
a linear gauntlet YAML file. Gym leaders become gym nodes, every other
trainer a boss node.

The file is written to ~/.nuzlocke/gauntlets/<id>.yaml unless --out is
given, so it is picked up by every command on the next start. Use
--out - to print it instead.

Examples:
  gauntlet import ./bosses.xlsx --id emerald --title "Emerald Bosses"
  gauntlet import ./bosses.xlsx --sheet "Hard Mode"
  gauntlet import ./bosses.csv --out -`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagImportID, "id", "", "Gauntlet id (default: sheet file name)")
	importCmd.Flags().StringVar(&flagImportTitle, "title", "", "Gauntlet title (default: id)")
	importCmd.Flags().StringVar(&flagImportSheet, "sheet", "", "Workbook sheet to read (default: first)")
	importCmd.Flags().StringVar(&flagImportOut, "out", "", "Output path, or - for stdout")
}

func runImport(_ *cobra.Command, args []string) {
	a := setup()
	path := args[0]

	trainers, err := data.ReadBossSheet(path, flagImportSheet)
	if err != nil {
		fatalf("%v", err)
	}
	if len(trainers) == 0 {
		fatalf("no trainers found in %s", path)
	}

	id := flagImportID
	if id == "" {
		id = strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		id = strings.ReplaceAll(id, " ", "_")
	}
	title := flagImportTitle
	if title == "" {
		title = id
	}

	f := data.FromTrainers(id, title, trainers, nil)

	// Build once so a broken sheet fails here rather than at startup.
	table, err := data.Encounters()
	if err != nil {
		fatalf("%v", err)
	}
	if _, err := f.Build(table); err != nil {
		fatalf("%v", err)
	}
	for _, n := range f.Nodes {
		for _, s := range n.Team {
			if !a.dex.Known(s.Species) {
				a.logger.Warn("unknown species", "trainer", n.Name, "species", s.Species)
			}
		}
	}

	out, err := data.Marshal(f)
	if err != nil {
		fatalf("%v", err)
	}

	dest := flagImportOut
	if dest == "-" {
		os.Stdout.Write(out)
		return
	}
	if dest == "" {
		dir := data.UserDir()
		if dir == "" {
			fatalf("cannot locate home directory, use --out")
		}
		dest = filepath.Join(dir, id+".yaml")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		fatalf("cannot create %s: %v", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		fatalf("cannot write %s: %v", dest, err)
	}

	fmt.Printf("Imported %d trainers into %s\n", len(f.Nodes), dest)
	fmt.Printf("Run 'gauntlet show %s' to check it.\n", id)
}
