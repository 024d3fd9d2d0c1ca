package photon

import "fmt"

// NewSimulatedChannel returns a Channel which reproduces BB84 measurement
// statistics directly from the probability rule, without modelling amplitudes.
// Outcomes measured in the preparation basis are flipped with probability
// noise. Mismatched-basis outcomes are already uniform and are not perturbed
// further.
func NewSimulatedChannel(noise float64) Channel {
	return &SimulatedChannel{Noise: noise}
}

// Simulated is a Backend producing SimulatedChannels.
var Simulated Backend = NewSimulatedChannel

// A SimulatedChannel is the probabilistic Channel implementation.
type SimulatedChannel struct {
	Noise float64
}

type simulatedState struct {
	bit      Bit
	basis    Basis
	consumed bool
}

func (s *simulatedState) Consumed() bool { return s.consumed }

// Name implements the Channel interface.
func (sc *SimulatedChannel) Name() string { return "probabilistic" }

// Prepare implements the Channel interface.
func (sc *SimulatedChannel) Prepare(bit Bit, basis Basis) (State, error) {
	if err := checkInput(bit, basis); err != nil {
		return nil, fmt.Errorf("preparing photon: %w", err)
	}
	return &simulatedState{bit: bit, basis: basis}, nil
}

// Measure implements the Channel interface.
func (sc *SimulatedChannel) Measure(r Rand, s State, basis Basis) (Bit, error) {
	ss, ok := s.(*simulatedState)
	if !ok {
		return 0, ErrForeignState
	}
	if ss.consumed {
		return 0, ErrConsumed
	}
	if basis != Z && basis != X {
		return 0, fmt.Errorf("invalid basis %d", uint8(basis))
	}
	ss.consumed = true
	if ss.basis != basis {
		if r.Float64() < 0.5 {
			return 1, nil
		}
		return 0, nil
	}
	return flip(r, ss.bit, sc.Noise), nil
}
