package data

import "github.com/vovakirdan/nuzlocke-gauntlet/internal/registry"

func init() {
	defs, err := Embedded()
	if err != nil {
		panic(err.Error())
	}
	for _, d := range defs {
		registry.Register(d)
	}
}
