package core

// Observation layout constants.
const (
	PartySize = 6 // max party members and opponent preview slots
	MaxMoves  = 4 // moves per combatant
	StatCount = 6 // HP, Atk, Def, SpA, SpD, Spe
	MaxTypes  = 2 // type tags per species
)

// OpponentSlot is the preview of one opposing team member.
// All tags are small-integer encodings; 0 means empty.
type OpponentSlot struct {
	Types     [MaxTypes]int  `json:"types"`
	BaseStats [StatCount]int `json:"base_stats"`
	Level     int            `json:"level"`
	Ability   int            `json:"ability"`
	Moves     [MaxMoves]int  `json:"moves"`
}

// Observation is the structured bundle returned by Reset and Step.
type Observation struct {
	Phase       Phase                   `json:"phase"`
	BuildSlot   int                     `json:"build_slot"`
	NodeIndex   int                     `json:"node_index"`
	NodeCount   int                     `json:"node_count"`
	AliveCount  int                     `json:"alive_count"`
	PartyLevels [PartySize]int          `json:"party_levels"`
	Opponent    [PartySize]OpponentSlot `json:"opponent_preview"`
	Mask        ActionMask              `json:"action_mask"`
}

// phaseCount is the one-hot width of the phase tag in Vector.
const phaseCount = int(PhaseDone) + 1

// VectorSize is the length of Observation.Vector.
const VectorSize = phaseCount + 4 + PartySize + PartySize*(MaxTypes+StatCount+2+MaxMoves)

// Vector flattens the observation into a fixed-size numeric array.
// Levels are scaled by 1/100 and base stats by 1/255; categorical tags are
// passed through as-is for the consumer to embed.
func (o Observation) Vector() []float32 {
	v := make([]float32, 0, VectorSize)

	for p := 0; p < phaseCount; p++ {
		if Phase(p) == o.Phase {
			v = append(v, 1)
		} else {
			v = append(v, 0)
		}
	}

	v = append(v,
		float32(o.BuildSlot)/float32(PartySize),
		float32(o.NodeIndex),
		float32(o.NodeCount),
		float32(o.AliveCount),
	)

	for _, lvl := range o.PartyLevels {
		v = append(v, float32(lvl)/100)
	}

	for _, slot := range o.Opponent {
		for _, t := range slot.Types {
			v = append(v, float32(t))
		}
		for _, s := range slot.BaseStats {
			v = append(v, float32(s)/255)
		}
		v = append(v, float32(slot.Level)/100, float32(slot.Ability))
		for _, m := range slot.Moves {
			v = append(v, float32(m))
		}
	}

	return v
}
