// Package bb84 simulates the BB84 quantum key distribution protocol between
// Alice and Bob, optionally in the presence of an intercept-resend
// eavesdropper, and reports the sifted key along with channel metrics.
package bb84

import (
	"github.com/rs/zerolog"
)

// An EngineOpts packages together the arguments necessary to construct a new
// Engine. The zero value is usable: it selects the probabilistic backend for
// every run and discards log output.
type EngineOpts struct {
	// PhysicsAvailable reports whether the state-vector backend may be used.
	// Even when set, runs longer than PhysicsQubitCap photons use the
	// probabilistic backend.
	PhysicsAvailable bool

	// Logger receives debug output. Defaults to a disabled logger.
	Logger *zerolog.Logger
}

// An Engine runs BB84 simulations. It holds no per-run state, so a single
// Engine may serve concurrent Simulate calls as long as each call is given
// its own Entropy.
type Engine struct {
	physics bool
	log     zerolog.Logger
}

// NewEngine returns a new Engine configured in accordance with opts.
func NewEngine(opts EngineOpts) *Engine {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Engine{
		physics: opts.PhysicsAvailable,
		log:     log.With().Str("component", "bb84").Logger(),
	}
}

// Simulate runs one BB84 exchange as described by p, drawing all randomness
// from rnd. On error the returned Result is the zero value.
func (e *Engine) Simulate(p Parameters, rnd Entropy) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	backend := SelectBackend(e.physics, p.NumQubits)
	t := newTransmitter(backend, p)
	e.log.Debug().
		Str("backend", t.channel.Name()).
		Int("qubits", p.NumQubits).
		Bool("eve", p.IncludeEve).
		Float64("eve_probability", p.EveProbability()).
		Float64("noise", p.Noise()).
		Msg("starting simulation")

	records, err := t.transmit(rnd, p.NumQubits)
	if err != nil {
		e.log.Debug().Err(err).Msg("simulation failed")
		return Result{}, err
	}
	res := buildResult(records, p.IncludeEve)
	res.Backend = t.channel.Name()
	e.log.Debug().
		Int("key_bits", len(res.FinalKey)).
		Float64("error_rate", res.ErrorRate).
		Float64("efficiency", res.TransmissionEfficiency).
		Msg("simulation complete")
	return res, nil
}

// Simulate runs p on an Engine with the physics backend available, seeded
// with seed.
func Simulate(p Parameters, seed int64) (Result, error) {
	return NewEngine(EngineOpts{PhysicsAvailable: true}).Simulate(p, NewSeededSource(seed))
}
