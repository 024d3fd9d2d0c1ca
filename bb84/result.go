package bb84

import (
	"encoding/json"
	"fmt"

	"github.com/alan-christopher/bb84sim/bb84/bitarray"
	"github.com/alan-christopher/bb84sim/bb84/photon"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// A Result packages together the transcript and metrics of one simulation.
// The per-photon slices all have length NumQubits. EveBits and EveBases are
// nil wherever Eve did not intercept.
type Result struct {
	AliceBits        []photon.Bit    `json:"aliceBits"`
	AliceBases       []photon.Basis  `json:"aliceBases"`
	BobBits          []photon.Bit    `json:"bobBits"`
	BobBases         []photon.Basis  `json:"bobBases"`
	EveBits          []*photon.Bit   `json:"eveBits"`
	EveBases         []*photon.Basis `json:"eveBases"`
	EveInterceptions []bool          `json:"eveInterceptions"`
	MatchingBases    []bool          `json:"matchingBases"`
	FinalKey         []photon.Bit    `json:"finalKey"`

	ErrorRate              float64 `json:"errorRate"`
	TransmissionEfficiency float64 `json:"transmissionEfficiency"`
	QuantumFidelity        float64 `json:"quantumFidelity"`
	IncludeEve             bool    `json:"includeEve"`

	// Backend names the photon backend which ran the simulation. It is
	// informational only.
	Backend string `json:"backend,omitempty"`
}

// SiftedCount returns the number of photons Alice and Bob measured in the same
// basis.
func (r Result) SiftedCount() int {
	n := 0
	for _, m := range r.MatchingBases {
		if m {
			n++
		}
	}
	return n
}

// Key returns the final key as a packed bit array.
func (r Result) Key() bitarray.Dense {
	vals := make([]bool, len(r.FinalKey))
	for i, b := range r.FinalKey {
		vals[i] = b == 1
	}
	return bitarray.FromBools(vals)
}

// An Encoding names a wire format for Results.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
	EncodingProto   Encoding = "proto"
)

// Encode serializes r in the given format. EncodingProto produces a
// binary google.protobuf.Struct whose fields mirror the JSON encoding.
func (r Result) Encode(enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingJSON:
		return json.Marshal(r)
	case EncodingMsgpack:
		return msgpack.Marshal(&r)
	case EncodingProto:
		s, err := r.ToProto()
		if err != nil {
			return nil, err
		}
		return protoMarshal(s)
	}
	return nil, fmt.Errorf("unknown encoding %q", enc)
}

// ToProto converts r into a google.protobuf.Struct with the same field names
// as its JSON encoding.
func (r Result) ToProto() (*structpb.Struct, error) {
	js, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	s := new(structpb.Struct)
	if err := protojson.Unmarshal(js, s); err != nil {
		return nil, fmt.Errorf("converting result to proto: %w", err)
	}
	return s, nil
}

// ResultFromProto is the inverse of Result.ToProto.
func ResultFromProto(s *structpb.Struct) (Result, error) {
	js, err := protojson.Marshal(s)
	if err != nil {
		return Result{}, err
	}
	var r Result
	if err := json.Unmarshal(js, &r); err != nil {
		return Result{}, fmt.Errorf("converting proto to result: %w", err)
	}
	return r, nil
}
