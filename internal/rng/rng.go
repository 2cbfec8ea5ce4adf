// Package rng provides the random source the engine draws from.
//
// Business logic never calls the global math/rand functions directly;
// it receives a Source so tests can substitute deterministic sequences.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand/v2"
)

// Source is a single abstract randomness capability. Every draw the
// engine makes (search roll, encounter gate, random-event gate, item
// pick, event pick) is one independent call on a Source.
type Source interface {
	// Float64 returns a uniform sample in [0, 1).
	Float64() float64
	// IntN returns a uniform sample in [0, n). It panics if n <= 0.
	IntN(n int) int
}

type pcgSource struct {
	r *mrand.Rand
}

func (s pcgSource) Float64() float64 { return s.r.Float64() }
func (s pcgSource) IntN(n int) int   { return s.r.IntN(n) }

// New returns a Source seeded from crypto/rand.
func New() Source {
	seed, err := NewSeed()
	if err != nil {
		// crypto/rand failing is not recoverable in any useful way;
		// fall back to a fixed seed rather than abort a game session.
		seed = 1
	}
	return NewSeeded(seed)
}

// NewSeeded returns a reproducible Source for the given seed.
func NewSeeded(seed int64) Source {
	return pcgSource{r: mrand.New(mrand.NewPCG(uint64(seed), uint64(seed)>>1))}
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Sequence is a scripted Source for tests. Float64 returns the queued
// samples in order and 1.0 once exhausted (so probabilistic gates fail
// closed); IntN returns the queued ints modulo n and 0 once exhausted.
type Sequence struct {
	Samples []float64
	Ints    []int
}

func (s *Sequence) Float64() float64 {
	if len(s.Samples) == 0 {
		return 1.0
	}
	v := s.Samples[0]
	s.Samples = s.Samples[1:]
	return v
}

func (s *Sequence) IntN(n int) int {
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	return v % n
}
