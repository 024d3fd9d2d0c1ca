package bb84

import (
	"github.com/alan-christopher/bb84sim/bb84/photon"
)

// An eavesdropper performs an intercept-resend attack on a fraction of the
// photons in flight.
type eavesdropper struct {
	// prob is the per-photon interception probability.
	prob float64
	// channel is Eve's own detector and source.
	channel photon.Channel
}

// An interception records what Eve learned from a single photon.
type interception struct {
	bit   photon.Bit
	basis photon.Basis
}

// intercept decides whether Eve attacks s. If she does, it returns her
// measurement and the freshly prepared photon she forwards in place of s.
// Otherwise it returns nil and s unchanged.
func (e *eavesdropper) intercept(rnd Entropy, s photon.State) (*interception, photon.State, error) {
	if rnd.Float64() >= e.prob {
		return nil, s, nil
	}
	basis := rnd.Basis()
	bit, err := e.channel.Measure(rnd, s, basis)
	if err != nil {
		return nil, nil, err
	}
	resent, err := e.channel.Prepare(bit, basis)
	if err != nil {
		return nil, nil, err
	}
	return &interception{bit: bit, basis: basis}, resent, nil
}
