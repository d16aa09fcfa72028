// Package random provides seed helpers for reproducible runs.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Resolve returns requested unless it is 0, in which case a fresh seed is
// drawn. Falls back to the clock if crypto/rand is unavailable.
func Resolve(requested int64) int64 {
	if requested != 0 {
		return requested
	}
	seed, err := NewSeed()
	if err != nil || seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}

// Derive returns the i-th child seed of base, so parallel runs get
// distinct but reproducible streams.
func Derive(base int64, i int) int64 {
	// splitmix64 finaliser
	z := uint64(base) + uint64(i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}
