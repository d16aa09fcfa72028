package creature

import (
	"fmt"
	"strings"
)

var speciesAliases = map[string]string{
	"Kyogre-P":  "Kyogre-Primal",
	"Groudon-P": "Groudon-Primal",
	"Ogerpon-W": "Ogerpon-Wellspring",
	"Ogerpon-H": "Ogerpon-Hearthflame",
	"Ogerpon-C": "Ogerpon-Cornerstone",
}

// Regional suffixes used by trainer sheets; checked in order.
var regionSuffixes = []struct{ short, long string }{
	{"-A", "-Alola"},
	{"-G", "-Galar"},
	{"-H", "-Hisui"},
	{"-P", "-Paldea"},
}

var itemAliases = map[string]string{
	"Well. Mask":    "Wellspring Mask",
	"Hear. Mask":    "Hearthflame Mask",
	"Corn. Mask":    "Cornerstone Mask",
	"terrainextend": "Terrain Extender",
}

var abilityAliases = map[string]string{
	"intimidateboth": "Intimidate",
}

// ShowdownSpecies maps sheet shorthand to the simulator's species names.
func ShowdownSpecies(species string) string {
	if alias, ok := speciesAliases[species]; ok {
		return alias
	}
	for _, r := range regionSuffixes {
		if strings.HasSuffix(species, r.short) {
			return strings.TrimSuffix(species, r.short) + r.long
		}
	}
	return species
}

func showdownItem(item string) string {
	if alias, ok := itemAliases[item]; ok {
		return alias
	}
	return item
}

func showdownAbility(ability string) string {
	ability, _, _ = strings.Cut(ability, "\n")
	ability = strings.TrimSpace(ability)
	if alias, ok := abilityAliases[ability]; ok {
		return alias
	}
	return ability
}

// Showdown renders the spec in Showdown team-builder text.
func (s Spec) Showdown() string {
	var b strings.Builder

	b.WriteString(ShowdownSpecies(s.Species))
	if s.Item != "" {
		b.WriteString(" @ ")
		b.WriteString(showdownItem(s.Item))
	}
	fmt.Fprintf(&b, "\nLevel: %d", s.Level)

	if ability := showdownAbility(s.Ability); ability != "" {
		fmt.Fprintf(&b, "\nAbility: %s", ability)
	}
	if s.Nature != "" {
		fmt.Fprintf(&b, "\n%s Nature", s.Nature)
	}
	if line := statLine(s.EVs); line != "" {
		fmt.Fprintf(&b, "\nEVs: %s", line)
	}
	if line := statLine(s.IVs); line != "" {
		fmt.Fprintf(&b, "\nIVs: %s", line)
	}
	for _, m := range s.Moves {
		fmt.Fprintf(&b, "\n- %s", m)
	}
	return b.String()
}

// ShowdownTeam renders a whole team, members separated by a blank line.
func ShowdownTeam(team []Spec) string {
	parts := make([]string, len(team))
	for i, s := range team {
		parts[i] = s.Showdown()
	}
	return strings.Join(parts, "\n\n")
}

func statLine(stats map[string]int) string {
	if len(stats) == 0 {
		return ""
	}
	parts := make([]string, 0, len(stats))
	for _, k := range StatKeys {
		if v, ok := stats[k]; ok {
			parts = append(parts, fmt.Sprintf("%d %s", v, k))
		}
	}
	return strings.Join(parts, " / ")
}
