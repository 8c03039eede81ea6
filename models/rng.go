package models

import (
	crand "crypto/rand"
	"encoding/binary"
	"time"

	"golang.org/x/exp/rand"
)

// NewRand returns the random stream for one simulation call. A fixed seed reproduces the
// stream exactly; otherwise the stream is seeded from process entropy.
func NewRand(p SimulationParameters) *rand.Rand {
	seed := p.Seed
	if !p.HasSeed {
		seed = EntropySeed()
	}
	return rand.New(rand.NewSource(seed))
}

// EntropySeed draws a seed from the operating system, falling back to the clock.
func EntropySeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// DeriveSeed mixes a base seed with grid coordinates so that parallel workers get
// independent, reproducible streams. The same (base, coords...) always yields the same seed.
func DeriveSeed(base uint64, coords ...int) uint64 {
	s := splitmix64(base)
	for _, c := range coords {
		s = splitmix64(s ^ splitmix64(uint64(c)+0x9e3779b97f4a7c15))
	}
	return s
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
