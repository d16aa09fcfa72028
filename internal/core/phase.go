package core

// Phase is the closed set of decision phases of a gauntlet run.
// The numeric tags are part of the observation contract and must stay stable.
type Phase int

const (
	PhaseDecision      Phase = 0 // fight with the current party or rebuild it
	PhaseBuildSpecies  Phase = 1 // pick the next party member from the alive roster
	PhaseBuildMove     Phase = 2 // pick moves for the member being built
	PhaseSelectStarter Phase = 3 // run start: choose a starter species
	PhaseStrategist    Phase = 4 // arrived at a node: engage or skip
	PhaseDone          Phase = 5 // terminal
)

var phaseNames = map[Phase]string{
	PhaseDecision:      "DECISION",
	PhaseBuildSpecies:  "BUILD_SPECIES",
	PhaseBuildMove:     "BUILD_MOVE",
	PhaseSelectStarter: "SELECT_STARTER",
	PhaseStrategist:    "STRATEGIST",
	PhaseDone:          "DONE",
}

// String returns the phase tag name.
func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "UNKNOWN"
}

// Terminal reports whether no further actions are accepted.
func (p Phase) Terminal() bool {
	return p == PhaseDone
}
