package bb84

import (
	"github.com/alan-christopher/bb84sim/bb84/photon"
)

// PhysicsQubitCap is the largest run for which the state-vector backend is
// used; beyond it the probabilistic backend takes over.
const PhysicsQubitCap = 50

// SelectBackend returns the photon backend for a run of numQubits photons.
func SelectBackend(physicsAvailable bool, numQubits int) photon.Backend {
	if physicsAvailable && numQubits <= PhysicsQubitCap {
		return photon.Physics
	}
	return photon.Simulated
}

// A PhotonRecord describes the fate of a single transmitted photon. EveBit and
// EveBasis are non-nil iff EveIntercepted.
type PhotonRecord struct {
	AliceBit       photon.Bit
	AliceBasis     photon.Basis
	EveIntercepted bool
	EveBit         *photon.Bit
	EveBasis       *photon.Basis
	BobBit         photon.Bit
	BobBasis       photon.Basis
}

// BasesMatch reports whether Alice and Bob used the same basis.
func (r PhotonRecord) BasesMatch() bool {
	return r.AliceBasis == r.BobBasis
}

// A transmitter drives photons from Alice, past Eve, to Bob.
type transmitter struct {
	channel photon.Channel
	// eve is nil when no eavesdropper is present.
	eve *eavesdropper
}

func newTransmitter(backend photon.Backend, p Parameters) *transmitter {
	t := &transmitter{channel: backend(p.Noise())}
	if p.IncludeEve {
		t.eve = &eavesdropper{prob: p.EveProbability(), channel: backend(0)}
	}
	return t
}

// transmit sends n photons. Draws happen in a fixed order per photon: Alice's
// bit and basis, Eve's draws, Bob's basis, then Bob's measurement.
func (t *transmitter) transmit(rnd Entropy, n int) ([]PhotonRecord, error) {
	records := make([]PhotonRecord, 0, n)
	for i := 0; i < n; i++ {
		rec, err := t.send(rnd, i)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (t *transmitter) send(rnd Entropy, i int) (PhotonRecord, error) {
	rec := PhotonRecord{
		AliceBit:   rnd.Bit(),
		AliceBasis: rnd.Basis(),
	}
	state, err := t.channel.Prepare(rec.AliceBit, rec.AliceBasis)
	if err != nil {
		return PhotonRecord{}, t.fail(i, "alice prepare", err)
	}
	if t.eve != nil {
		var icpt *interception
		icpt, state, err = t.eve.intercept(rnd, state)
		if err != nil {
			return PhotonRecord{}, t.fail(i, "eve intercept", err)
		}
		if icpt != nil {
			rec.EveIntercepted = true
			rec.EveBit, rec.EveBasis = &icpt.bit, &icpt.basis
		}
	}
	rec.BobBasis = rnd.Basis()
	if rec.BobBit, err = t.channel.Measure(rnd, state, rec.BobBasis); err != nil {
		return PhotonRecord{}, t.fail(i, "bob measure", err)
	}
	return rec, nil
}

func (t *transmitter) fail(i int, stage string, err error) error {
	return &SimulationError{Photon: i, Stage: stage, Backend: t.channel.Name(), Err: err}
}
