package gauntlet

import "github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"

// FallbackStarter is the catalogue index used for out-of-range choices.
const FallbackStarter = 1

// starterCatalogue lists the Gen 1-9 starters in grass, fire, water order.
var starterCatalogue = []creature.Spec{
	{Species: "Bulbasaur", Level: 5, Moves: []string{"tackle", "growl"}, Ability: "overgrow"},
	{Species: "Charmander", Level: 5, Moves: []string{"scratch", "growl"}, Ability: "blaze"},
	{Species: "Squirtle", Level: 5, Moves: []string{"tackle", "tailwhip"}, Ability: "torrent"},
	{Species: "Chikorita", Level: 5, Moves: []string{"tackle", "growl"}, Ability: "overgrow"},
	{Species: "Cyndaquil", Level: 5, Moves: []string{"tackle", "leer"}, Ability: "blaze"},
	{Species: "Totodile", Level: 5, Moves: []string{"scratch", "leer"}, Ability: "torrent"},
	{Species: "Treecko", Level: 5, Moves: []string{"pound", "leer"}, Ability: "overgrow"},
	{Species: "Torchic", Level: 5, Moves: []string{"scratch", "growl"}, Ability: "blaze"},
	{Species: "Mudkip", Level: 5, Moves: []string{"tackle", "growl"}, Ability: "torrent"},
	{Species: "Turtwig", Level: 5, Moves: []string{"tackle", "withdraw"}, Ability: "overgrow"},
	{Species: "Chimchar", Level: 5, Moves: []string{"scratch", "leer"}, Ability: "blaze"},
	{Species: "Piplup", Level: 5, Moves: []string{"pound", "growl"}, Ability: "torrent"},
	{Species: "Snivy", Level: 5, Moves: []string{"tackle", "leer"}, Ability: "overgrow"},
	{Species: "Tepig", Level: 5, Moves: []string{"tackle", "tailwhip"}, Ability: "blaze"},
	{Species: "Oshawott", Level: 5, Moves: []string{"tackle", "tailwhip"}, Ability: "torrent"},
	{Species: "Chespin", Level: 5, Moves: []string{"tackle", "growl"}, Ability: "overgrow"},
	{Species: "Fennekin", Level: 5, Moves: []string{"scratch", "tailwhip"}, Ability: "blaze"},
	{Species: "Froakie", Level: 5, Moves: []string{"pound", "growl"}, Ability: "torrent"},
	{Species: "Rowlet", Level: 5, Moves: []string{"tackle", "growl"}, Ability: "overgrow"},
	{Species: "Litten", Level: 5, Moves: []string{"scratch", "growl"}, Ability: "blaze"},
	{Species: "Popplio", Level: 5, Moves: []string{"pound", "growl"}, Ability: "torrent"},
	{Species: "Grookey", Level: 5, Moves: []string{"scratch", "growl"}, Ability: "overgrow"},
	{Species: "Scorbunny", Level: 5, Moves: []string{"tackle", "growl"}, Ability: "blaze"},
	{Species: "Sobble", Level: 5, Moves: []string{"pound", "growl"}, Ability: "torrent"},
	{Species: "Sprigatito", Level: 5, Moves: []string{"scratch", "tailwhip"}, Ability: "overgrow"},
	{Species: "Fuecoco", Level: 5, Moves: []string{"tackle", "leer"}, Ability: "blaze"},
	{Species: "Quaxly", Level: 5, Moves: []string{"pound", "growl"}, Ability: "torrent"},
}

// Starters returns a copy of the starter catalogue.
func Starters() []creature.Spec {
	out := make([]creature.Spec, len(starterCatalogue))
	for i, s := range starterCatalogue {
		out[i] = s.Clone()
	}
	return out
}

// Starter returns the i-th starter, falling back to FallbackStarter when
// i is out of range. starters must not be empty.
func Starter(starters []creature.Spec, i int) creature.Spec {
	if i < 0 || i >= len(starters) {
		i = min(FallbackStarter, len(starters)-1)
	}
	return starters[i].Clone()
}
