package bb84

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alan-christopher/bb84sim/bb84/photon"
)

// A scriptedEntropy replays fixed draws, for tests which need to pin down
// Alice's and Bob's choices exactly.
type scriptedEntropy struct {
	bits   []photon.Bit
	bases  []photon.Basis
	sample float64
}

func (s *scriptedEntropy) Bit() photon.Bit {
	b := s.bits[0]
	s.bits = s.bits[1:]
	return b
}

func (s *scriptedEntropy) Basis() photon.Basis {
	b := s.bases[0]
	s.bases = s.bases[1:]
	return b
}

func (s *scriptedEntropy) Float64() float64 { return s.sample }

func engines() map[string]*Engine {
	return map[string]*Engine{
		"physics":       NewEngine(EngineOpts{PhysicsAvailable: true}),
		"probabilistic": NewEngine(EngineOpts{}),
	}
}

func TestScriptedExchange(t *testing.T) {
	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			rnd := &scriptedEntropy{
				bits: []photon.Bit{0, 1, 0, 1},
				// Alice's and Bob's bases interleave: Alice draws first for
				// each photon.
				bases: []photon.Basis{
					photon.Z, photon.Z,
					photon.Z, photon.X,
					photon.X, photon.X,
					photon.X, photon.Z,
				},
				sample: 0.25,
			}
			res, err := e.Simulate(Parameters{NumQubits: 4}, rnd)
			require.NoError(t, err)

			assert.Equal(t, []photon.Bit{0, 1, 0, 1}, res.AliceBits)
			assert.Equal(t, []photon.Basis{photon.Z, photon.Z, photon.X, photon.X}, res.AliceBases)
			assert.Equal(t, []photon.Basis{photon.Z, photon.X, photon.X, photon.Z}, res.BobBases)
			assert.Equal(t, []bool{true, false, true, false}, res.MatchingBases)
			assert.Equal(t, photon.Bit(0), res.BobBits[0])
			assert.Equal(t, photon.Bit(0), res.BobBits[2])
			assert.Equal(t, []photon.Bit{0, 0}, res.FinalKey)
			assert.Equal(t, 0.0, res.ErrorRate)
			assert.Equal(t, 0.5, res.TransmissionEfficiency)
			assert.Equal(t, 1.0, res.QuantumFidelity)
			assert.Equal(t, name, res.Backend)
		})
	}
}

func TestResultInvariants(t *testing.T) {
	for name, e := range engines() {
		for _, n := range []int{0, 1, 7, 50, 51, 300} {
			for _, eve := range []bool{false, true} {
				t.Run(fmt.Sprintf("%s/n=%d/eve=%v", name, n, eve), func(t *testing.T) {
					p := Parameters{NumQubits: n, IncludeEve: eve, EveInterceptionRate: 50, NoiseLevel: 0.05}
					res, err := e.Simulate(p, NewSeededSource(int64(n)))
					require.NoError(t, err)

					for _, l := range []int{
						len(res.AliceBits), len(res.AliceBases), len(res.BobBits), len(res.BobBases),
						len(res.EveBits), len(res.EveBases), len(res.EveInterceptions), len(res.MatchingBases),
					} {
						assert.Equal(t, n, l)
					}
					assert.LessOrEqual(t, len(res.FinalKey), res.SiftedCount())
					assert.GreaterOrEqual(t, res.ErrorRate, 0.0)
					assert.LessOrEqual(t, res.ErrorRate, 1.0)
					assert.GreaterOrEqual(t, res.TransmissionEfficiency, 0.0)
					assert.LessOrEqual(t, res.TransmissionEfficiency, 1.0)
					if res.SiftedCount() > 0 {
						assert.Equal(t, 1-res.ErrorRate, res.QuantumFidelity)
					}
					for i := 0; i < n; i++ {
						assert.Equal(t, res.AliceBases[i] == res.BobBases[i], res.MatchingBases[i])
						assert.Equal(t, res.EveInterceptions[i], res.EveBits[i] != nil)
						assert.Equal(t, res.EveInterceptions[i], res.EveBases[i] != nil)
						if !eve {
							assert.False(t, res.EveInterceptions[i])
						}
					}
					assert.Equal(t, eve, res.IncludeEve)
				})
			}
		}
	}
}

func TestEmptyRun(t *testing.T) {
	res, err := Simulate(Parameters{NumQubits: 0, IncludeEve: true, EveInterceptionRate: 100}, 1)
	require.NoError(t, err)
	assert.Empty(t, res.AliceBits)
	assert.Empty(t, res.MatchingBases)
	assert.Empty(t, res.FinalKey)
	assert.Zero(t, res.ErrorRate)
	assert.Zero(t, res.TransmissionEfficiency)
	assert.Zero(t, res.QuantumFidelity)
}

func TestNegativeQubits(t *testing.T) {
	res, err := Simulate(Parameters{NumQubits: -1}, 1)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "numQubits", verr.Field)
	assert.Equal(t, Result{}, res)
}

func TestReproducible(t *testing.T) {
	p := Parameters{NumQubits: 40, IncludeEve: true, EveInterceptionRate: 60, NoiseLevel: 0.1}
	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			a, err := e.Simulate(p, NewSeededSource(99))
			require.NoError(t, err)
			b, err := e.Simulate(p, NewSeededSource(99))
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestEfficiencyWithoutEve(t *testing.T) {
	res, err := Simulate(Parameters{NumQubits: 10000, NoiseLevel: 0}, 2024)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.TransmissionEfficiency, 0.05)
	assert.Zero(t, res.ErrorRate)
}

func TestFullInterceptionErrorRate(t *testing.T) {
	p := Parameters{NumQubits: 10000, IncludeEve: true, EveInterceptionRate: 100, NoiseLevel: 0}
	res, err := Simulate(p, 7)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, res.ErrorRate, 0.05)
	for _, icpt := range res.EveInterceptions {
		require.True(t, icpt)
	}
}

func TestClamping(t *testing.T) {
	tcs := []struct {
		name       string
		params     Parameters
		eErrorRate float64
		eAllEve    bool
		eNoEve     bool
	}{
		{
			name:       "rate above 100 intercepts everything",
			params:     Parameters{NumQubits: 500, IncludeEve: true, EveInterceptionRate: 250},
			eErrorRate: -1,
			eAllEve:    true,
		}, {
			name:   "negative rate intercepts nothing",
			params: Parameters{NumQubits: 500, IncludeEve: true, EveInterceptionRate: -20},
			eNoEve: true,
		}, {
			name:       "noise above 1 flips every sifted bit",
			params:     Parameters{NumQubits: 500, NoiseLevel: 3},
			eErrorRate: 1,
			eNoEve:     true,
		}, {
			name:   "negative noise is noiseless",
			params: Parameters{NumQubits: 500, NoiseLevel: -0.5},
			eNoEve: true,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Simulate(tc.params, 5)
			if err != nil {
				t.Fatalf("Simulate(%+v): unexpected error: %v", tc.params, err)
			}
			if tc.eErrorRate >= 0 && res.ErrorRate != tc.eErrorRate {
				t.Errorf("Simulate(%+v).ErrorRate == %v, want %v", tc.params, res.ErrorRate, tc.eErrorRate)
			}
			for i, icpt := range res.EveInterceptions {
				if (tc.eAllEve && !icpt) || (tc.eNoEve && icpt) {
					t.Fatalf("Simulate(%+v).EveInterceptions[%d] == %v", tc.params, i, icpt)
				}
			}
		})
	}
}

func TestSelectBackend(t *testing.T) {
	tcs := []struct {
		name      string
		available bool
		n         int
		eName     string
	}{
		{name: "empty run", available: true, n: 0, eName: "physics"},
		{name: "at cap", available: true, n: PhysicsQubitCap, eName: "physics"},
		{name: "over cap", available: true, n: PhysicsQubitCap + 1, eName: "probabilistic"},
		{name: "unavailable", available: false, n: 10, eName: "probabilistic"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if got := SelectBackend(tc.available, tc.n)(0).Name(); got != tc.eName {
				t.Errorf("SelectBackend(%v, %d) == %q, want %q", tc.available, tc.n, got, tc.eName)
			}
		})
	}
}

func TestParametersJSONDefaults(t *testing.T) {
	var p Parameters
	require.NoError(t, p.UnmarshalJSON([]byte(`{"includeEve": true}`)))
	assert.Equal(t, Parameters{
		NumQubits:           DefaultNumQubits,
		IncludeEve:          true,
		EveInterceptionRate: DefaultEveInterceptionRate,
		NoiseLevel:          DefaultNoiseLevel,
	}, p)

	require.NoError(t, p.UnmarshalJSON([]byte(`{"numQubits": 8, "noiseLevel": 0}`)))
	assert.Equal(t, 8, p.NumQubits)
	assert.Equal(t, 0.0, p.NoiseLevel)
	assert.False(t, p.IncludeEve)
}
