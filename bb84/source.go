package bb84

import (
	"math/rand"

	"github.com/alan-christopher/bb84sim/bb84/photon"
)

// Entropy supplies every random draw made during a simulation.
type Entropy interface {
	photon.Rand
	// Bit returns a uniformly random bit.
	Bit() photon.Bit
	// Basis returns a uniformly random basis.
	Basis() photon.Basis
}

// A BitBasisSource draws bits and bases from a caller-owned *rand.Rand. It is
// not safe for concurrent use; concurrent simulations need their own sources.
type BitBasisSource struct {
	rand *rand.Rand
}

// NewBitBasisSource returns an Entropy backed by r.
func NewBitBasisSource(r *rand.Rand) *BitBasisSource {
	return &BitBasisSource{rand: r}
}

// NewSeededSource returns an Entropy seeded with seed.
func NewSeededSource(seed int64) *BitBasisSource {
	return NewBitBasisSource(rand.New(rand.NewSource(seed)))
}

// Bit implements Entropy.
func (s *BitBasisSource) Bit() photon.Bit {
	return photon.Bit(s.rand.Intn(2))
}

// Basis implements Entropy.
func (s *BitBasisSource) Basis() photon.Basis {
	return photon.Basis(s.rand.Intn(2))
}

// Float64 implements Entropy.
func (s *BitBasisSource) Float64() float64 {
	return s.rand.Float64()
}
