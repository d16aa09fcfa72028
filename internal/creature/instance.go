package creature

import "github.com/google/uuid"

// Instance is a creature owned during one run. Instances are never removed;
// dead ones stay in the roster as a graveyard.
type Instance struct {
	ID      string  `json:"id"`
	Spec    Spec    `json:"spec"`
	HP      float64 `json:"hp"` // fraction of max HP, 1 is full
	Alive   bool    `json:"alive"`
	Status  string  `json:"status,omitempty"`
	InParty bool    `json:"in_party"`
}

// NewInstance creates a healthy, living instance with a fresh id.
func NewInstance(spec Spec) *Instance {
	return &Instance{
		ID:    uuid.NewString(),
		Spec:  spec.Clone(),
		HP:    1,
		Alive: true,
	}
}

// Faint marks the instance dead. A dead instance can never be in the party.
func (i *Instance) Faint() {
	i.Alive = false
	i.InParty = false
	i.HP = 0
}
