package bb84

import (
	"encoding/json"
	"math"
)

var (
	DefaultNumQubits           = 20
	DefaultEveInterceptionRate = 30.0
	DefaultNoiseLevel          = 0.01
)

// Parameters configures a single simulation. Out-of-range rates are clamped
// rather than rejected, so a sweep over malformed values degrades instead of
// aborting; only a negative NumQubits is an error.
type Parameters struct {
	// NumQubits is the number of photons Alice sends. Must be non-negative.
	NumQubits int `json:"numQubits"`

	// IncludeEve enables the intercept-resend eavesdropper.
	IncludeEve bool `json:"includeEve"`

	// EveInterceptionRate is the percentage of photons Eve intercepts when
	// IncludeEve is set. Clamped to [0, 100].
	EveInterceptionRate float64 `json:"eveInterceptionRate"`

	// NoiseLevel is the probability that Bob's detector flips an outcome.
	// Clamped to [0, 1].
	NoiseLevel float64 `json:"noiseLevel"`
}

// DefaultParameters returns Parameters populated with the package defaults.
func DefaultParameters() Parameters {
	return Parameters{
		NumQubits:           DefaultNumQubits,
		EveInterceptionRate: DefaultEveInterceptionRate,
		NoiseLevel:          DefaultNoiseLevel,
	}
}

// UnmarshalJSON decodes p, leaving the defaults in place for absent fields.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	type plain Parameters
	v := plain(DefaultParameters())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Parameters(v)
	return nil
}

// Validate reports whether p can be simulated.
func (p Parameters) Validate() error {
	if p.NumQubits < 0 {
		return &ValidationError{Field: "numQubits", Value: p.NumQubits, Reason: "must be non-negative"}
	}
	return nil
}

// EveProbability returns the per-photon interception probability.
func (p Parameters) EveProbability() float64 {
	return clamp(p.EveInterceptionRate/100, 0, 1)
}

// Noise returns the clamped detector noise probability.
func (p Parameters) Noise() float64 {
	return clamp(p.NoiseLevel, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
