package bb84

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alan-christopher/bb84sim/bb84/photon"
)

var errDetector = errors.New("detector offline")

// A brokenChannel wraps a working Channel but fails every measurement after
// the first failAfter.
type brokenChannel struct {
	photon.Channel
	failAfter int
	measured  int
}

func (b *brokenChannel) Measure(r photon.Rand, s photon.State, basis photon.Basis) (photon.Bit, error) {
	if b.measured >= b.failAfter {
		return 0, errDetector
	}
	b.measured++
	return b.Channel.Measure(r, s, basis)
}

func TestTransmitWrapsBackendFailures(t *testing.T) {
	ch := &brokenChannel{Channel: photon.Simulated(0), failAfter: 3}
	tr := newTransmitter(func(float64) photon.Channel { return ch }, Parameters{NumQubits: 10})

	records, err := tr.transmit(NewSeededSource(1), 10)
	require.Error(t, err)
	assert.Nil(t, records)
	assert.ErrorIs(t, err, errDetector)

	var serr *SimulationError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 3, serr.Photon)
	assert.Equal(t, "bob measure", serr.Stage)
	assert.Equal(t, "probabilistic", serr.Backend)
}

func TestEveFailureIsWrapped(t *testing.T) {
	ch := &brokenChannel{Channel: photon.Physics(0)}
	tr := newTransmitter(func(float64) photon.Channel { return ch },
		Parameters{NumQubits: 5, IncludeEve: true, EveInterceptionRate: 100})

	_, err := tr.transmit(NewSeededSource(1), 5)
	var serr *SimulationError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 0, serr.Photon)
	assert.Equal(t, "eve intercept", serr.Stage)
	assert.Equal(t, "physics", serr.Backend)
}

func TestEavesdropperResendsFreshPhoton(t *testing.T) {
	for name, backend := range map[string]photon.Backend{"physics": photon.Physics, "probabilistic": photon.Simulated} {
		t.Run(name, func(t *testing.T) {
			eve := &eavesdropper{prob: 1, channel: backend(0)}
			rnd := NewSeededSource(3)
			for i := 0; i < 50; i++ {
				orig, err := backend(0).Prepare(1, photon.Z)
				require.NoError(t, err)
				icpt, fwd, err := eve.intercept(rnd, orig)
				require.NoError(t, err)
				require.NotNil(t, icpt)
				assert.True(t, orig.Consumed())
				assert.False(t, fwd.Consumed())
				assert.NotSame(t, orig, fwd)
				if icpt.basis == photon.Z {
					assert.Equal(t, photon.Bit(1), icpt.bit)
				}
			}
		})
	}
}

func TestEavesdropperPassesThrough(t *testing.T) {
	eve := &eavesdropper{prob: 0, channel: photon.Simulated(0)}
	orig, err := photon.Simulated(0).Prepare(0, photon.X)
	require.NoError(t, err)
	icpt, fwd, err := eve.intercept(NewSeededSource(1), orig)
	require.NoError(t, err)
	assert.Nil(t, icpt)
	assert.Same(t, orig, fwd)
	assert.False(t, orig.Consumed())
}

func TestSift(t *testing.T) {
	z, x := photon.Z, photon.X
	tcs := []struct {
		name        string
		records     []PhotonRecord
		eMatching   string
		eKey        string
		eSifted     int
		eErrors     int
		eErrorRate  float64
		eFidelity   float64
		eEfficiency float64
	}{
		{
			name: "one error in four sifted",
			records: []PhotonRecord{
				{AliceBit: 1, AliceBasis: z, BobBit: 1, BobBasis: z},
				{AliceBit: 0, AliceBasis: x, BobBit: 1, BobBasis: z},
				{AliceBit: 1, AliceBasis: x, BobBit: 0, BobBasis: x},
				{AliceBit: 0, AliceBasis: z, BobBit: 0, BobBasis: z},
				{AliceBit: 1, AliceBasis: x, BobBit: 1, BobBasis: x},
			},
			eMatching:   "10111",
			eKey:        "101",
			eSifted:     4,
			eErrors:     1,
			eErrorRate:  0.25,
			eFidelity:   0.75,
			eEfficiency: 0.6,
		}, {
			name: "no matching bases",
			records: []PhotonRecord{
				{AliceBasis: z, BobBasis: x},
				{AliceBasis: x, BobBasis: z},
			},
			eMatching: "00",
		}, {
			name:      "empty",
			eMatching: "",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			s := sift(tc.records)
			if got := s.matching.String(); got != tc.eMatching {
				t.Errorf("sift matching == %s, want %s", got, tc.eMatching)
			}
			if got := s.key.String(); got != tc.eKey {
				t.Errorf("sift key == %s, want %s", got, tc.eKey)
			}
			if s.sifted != tc.eSifted || s.errors != tc.eErrors {
				t.Errorf("sift counted %d sifted, %d errors, want %d, %d", s.sifted, s.errors, tc.eSifted, tc.eErrors)
			}

			res := buildResult(tc.records, false)
			if got := res.Key().String(); got != tc.eKey {
				t.Errorf("FinalKey == %s, want %s", got, tc.eKey)
			}
			if len(res.MatchingBases) != len(tc.records) {
				t.Errorf("got %d matching flags, want %d", len(res.MatchingBases), len(tc.records))
			}
			if res.ErrorRate != tc.eErrorRate {
				t.Errorf("ErrorRate == %v, want %v", res.ErrorRate, tc.eErrorRate)
			}
			if res.QuantumFidelity != tc.eFidelity {
				t.Errorf("QuantumFidelity == %v, want %v", res.QuantumFidelity, tc.eFidelity)
			}
			if res.TransmissionEfficiency != tc.eEfficiency {
				t.Errorf("TransmissionEfficiency == %v, want %v", res.TransmissionEfficiency, tc.eEfficiency)
			}
		})
	}
}
