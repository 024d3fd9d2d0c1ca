package photon

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// amplitudeTol bounds the numerical drift tolerated in a state's norm, and the
// distance within which outcome probabilities are snapped to 0 or 1.
const amplitudeTol = 1e-9

// hadamard maps the computational basis onto the diagonal basis. It is its own
// inverse.
var hadamard = mat.NewDense(2, 2, []float64{
	1 / math.Sqrt2, 1 / math.Sqrt2,
	1 / math.Sqrt2, -1 / math.Sqrt2,
})

// NewPhysicsChannel returns a Channel which models each photon as a two-level
// state vector and computes outcomes from its probability amplitudes. All BB84
// states have real amplitudes, so a real vector suffices.
//
// Noise models an imperfect detector: the collapsed outcome is flipped with
// probability noise.
func NewPhysicsChannel(noise float64) Channel {
	return &PhysicsChannel{Noise: noise}
}

// Physics is a Backend producing PhysicsChannels.
var Physics Backend = NewPhysicsChannel

// A PhysicsChannel is the state-vector Channel implementation.
type PhysicsChannel struct {
	Noise float64
}

type qubit struct {
	amps     *mat.VecDense
	consumed bool
}

func (q *qubit) Consumed() bool { return q.consumed }

// Name implements the Channel interface.
func (pc *PhysicsChannel) Name() string { return "physics" }

// Prepare implements the Channel interface.
func (pc *PhysicsChannel) Prepare(bit Bit, basis Basis) (State, error) {
	if err := checkInput(bit, basis); err != nil {
		return nil, fmt.Errorf("preparing photon: %w", err)
	}
	amps := mat.NewVecDense(2, nil)
	amps.SetVec(int(bit), 1)
	if basis == X {
		amps = rotate(amps)
	}
	return &qubit{amps: amps}, nil
}

// Measure implements the Channel interface.
func (pc *PhysicsChannel) Measure(r Rand, s State, basis Basis) (Bit, error) {
	q, ok := s.(*qubit)
	if !ok {
		return 0, ErrForeignState
	}
	if q.consumed {
		return 0, ErrConsumed
	}
	if basis != Z && basis != X {
		return 0, fmt.Errorf("invalid basis %d", uint8(basis))
	}
	q.consumed = true

	amps := q.amps
	if basis == X {
		amps = rotate(amps)
	}
	p1, err := probOne(amps)
	if err != nil {
		return 0, err
	}
	var bit Bit
	if r.Float64() < p1 {
		bit = 1
	}
	return flip(r, bit, pc.Noise), nil
}

// rotate applies the Hadamard transform to amps, returning a new vector.
func rotate(amps *mat.VecDense) *mat.VecDense {
	var r mat.VecDense
	r.MulVec(hadamard, amps)
	return &r
}

// probOne returns the Born-rule probability of observing |1> for amps.
func probOne(amps *mat.VecDense) (float64, error) {
	p0 := amps.AtVec(0) * amps.AtVec(0)
	p1 := amps.AtVec(1) * amps.AtVec(1)
	if !scalar.EqualWithinAbs(p0+p1, 1, amplitudeTol) {
		return 0, fmt.Errorf("state not normalized: |a0|^2+|a1|^2 = %g", p0+p1)
	}
	switch {
	case scalar.EqualWithinAbs(p1, 0, amplitudeTol):
		return 0, nil
	case scalar.EqualWithinAbs(p1, 1, amplitudeTol):
		return 1, nil
	}
	return p1, nil
}
