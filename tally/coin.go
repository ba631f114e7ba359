package tally

import (
	"math/rand/v2"
	"time"
)

// Coin decides, per transition, whether the change tracker swaps the two labels of the move.
type Coin interface {
	Flip() bool
}

// RandCoin is a fair coin on a seeded PCG generator.
type RandCoin struct {
	seed uint64
	rng  *rand.Rand
}

// NewRandCoin seeds the coin; seed 0 draws a seed from the clock. The seed in use is available from Seed.
func NewRandCoin(seed uint64) *RandCoin {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandCoin{seed: seed, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (c *RandCoin) Flip() bool {
	return c.rng.Float64() < 0.5
}

func (c *RandCoin) Seed() uint64 {
	return c.seed
}
