// Package photon provides utilities for preparing and measuring photon-encoded
// qubits.
package photon

import (
	"errors"
	"fmt"
)

// A Bit is a single logical bit value, 0 or 1.
type Bit uint8

// MarshalJSON encodes b as a number, so that []Bit encodes as an array rather
// than a base64 string.
func (b Bit) MarshalJSON() ([]byte, error) {
	if b > 1 {
		return nil, fmt.Errorf("invalid bit %d", uint8(b))
	}
	return []byte{'0' + byte(b)}, nil
}

// A Basis is one of the two conjugate BB84 encoding frames.
type Basis uint8

const (
	// Z is the rectilinear basis, {|0>, |1>}.
	Z Basis = iota
	// X is the diagonal basis, {|+>, |->}.
	X
)

func (b Basis) String() string {
	switch b {
	case Z:
		return "Z"
	case X:
		return "X"
	}
	return fmt.Sprintf("Basis(%d)", uint8(b))
}

// MarshalText implements encoding.TextMarshaler.
func (b Basis) MarshalText() ([]byte, error) {
	if b != Z && b != X {
		return nil, fmt.Errorf("invalid basis %d", uint8(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Basis) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Z":
		*b = Z
	case "X":
		*b = X
	default:
		return fmt.Errorf("invalid basis %q", text)
	}
	return nil
}

var (
	// ErrConsumed is returned when measuring a State a second time.
	ErrConsumed = errors.New("photon already measured")
	// ErrForeignState is returned when a Channel is handed a State prepared by
	// a different backend.
	ErrForeignState = errors.New("photon state prepared by another backend")
)

// A Rand provides uniform samples in [0, 1). *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// A State is an in-flight photon. States are single use: measuring one
// consumes it, and anything forwarded afterwards must be freshly prepared.
type State interface {
	// Consumed reports whether the state has been measured.
	Consumed() bool
}

// A Channel prepares and measures single photons.
type Channel interface {
	// Prepare encodes bit in basis.
	Prepare(bit Bit, basis Basis) (State, error)
	// Measure measures s in basis, consuming it. A matching basis yields the
	// encoded bit, subject to readout noise; a mismatched basis yields a
	// uniformly random bit.
	Measure(r Rand, s State, basis Basis) (Bit, error)
	// Name identifies the backend, e.g. for logging.
	Name() string
}

// A Backend builds a Channel whose detector flips outcomes with probability
// noise.
type Backend func(noise float64) Channel

func checkInput(bit Bit, basis Basis) error {
	if bit > 1 {
		return fmt.Errorf("invalid bit %d", bit)
	}
	if basis != Z && basis != X {
		return fmt.Errorf("invalid basis %d", uint8(basis))
	}
	return nil
}

// flip applies readout noise to an outcome.
func flip(r Rand, bit Bit, noise float64) Bit {
	if noise > 0 && r.Float64() < noise {
		return 1 - bit
	}
	return bit
}
