package bb84

import (
	"github.com/alan-christopher/bb84sim/bb84/photon"
	"github.com/vmihailenco/msgpack/v5"
)

// resultWire is the MessagePack layout of a Result. It matches the JSON
// encoding: bits are integer arrays and bases are "Z"/"X" strings. Left to
// itself msgpack packs uint8-backed slices as opaque bin blobs.
type resultWire struct {
	AliceBits        []int     `msgpack:"aliceBits"`
	AliceBases       []string  `msgpack:"aliceBases"`
	BobBits          []int     `msgpack:"bobBits"`
	BobBases         []string  `msgpack:"bobBases"`
	EveBits          []*int    `msgpack:"eveBits"`
	EveBases         []*string `msgpack:"eveBases"`
	EveInterceptions []bool    `msgpack:"eveInterceptions"`
	MatchingBases    []bool    `msgpack:"matchingBases"`
	FinalKey         []int     `msgpack:"finalKey"`

	ErrorRate              float64 `msgpack:"errorRate"`
	TransmissionEfficiency float64 `msgpack:"transmissionEfficiency"`
	QuantumFidelity        float64 `msgpack:"quantumFidelity"`
	IncludeEve             bool    `msgpack:"includeEve"`
	Backend                string  `msgpack:"backend,omitempty"`
}

var (
	_ msgpack.CustomEncoder = Result{}
	_ msgpack.CustomDecoder = (*Result)(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder.
func (r Result) EncodeMsgpack(enc *msgpack.Encoder) error {
	w := resultWire{
		AliceBits:              bitsOut(r.AliceBits),
		AliceBases:             basesOut(r.AliceBases),
		BobBits:                bitsOut(r.BobBits),
		BobBases:               basesOut(r.BobBases),
		EveInterceptions:       r.EveInterceptions,
		MatchingBases:          r.MatchingBases,
		FinalKey:               bitsOut(r.FinalKey),
		ErrorRate:              r.ErrorRate,
		TransmissionEfficiency: r.TransmissionEfficiency,
		QuantumFidelity:        r.QuantumFidelity,
		IncludeEve:             r.IncludeEve,
		Backend:                r.Backend,
	}
	if r.EveBits != nil {
		w.EveBits = make([]*int, len(r.EveBits))
		for i, b := range r.EveBits {
			if b != nil {
				v := int(*b)
				w.EveBits[i] = &v
			}
		}
	}
	if r.EveBases != nil {
		w.EveBases = make([]*string, len(r.EveBases))
		for i, b := range r.EveBases {
			if b != nil {
				v := b.String()
				w.EveBases[i] = &v
			}
		}
	}
	return enc.Encode(&w)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (r *Result) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w resultWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	out := Result{
		AliceBits:              bitsIn(w.AliceBits),
		BobBits:                bitsIn(w.BobBits),
		EveInterceptions:       w.EveInterceptions,
		MatchingBases:          w.MatchingBases,
		FinalKey:               bitsIn(w.FinalKey),
		ErrorRate:              w.ErrorRate,
		TransmissionEfficiency: w.TransmissionEfficiency,
		QuantumFidelity:        w.QuantumFidelity,
		IncludeEve:             w.IncludeEve,
		Backend:                w.Backend,
	}
	var err error
	if out.AliceBases, err = basesIn(w.AliceBases); err != nil {
		return err
	}
	if out.BobBases, err = basesIn(w.BobBases); err != nil {
		return err
	}
	if w.EveBits != nil {
		out.EveBits = make([]*photon.Bit, len(w.EveBits))
		for i, b := range w.EveBits {
			if b != nil {
				v := photon.Bit(*b)
				out.EveBits[i] = &v
			}
		}
	}
	if w.EveBases != nil {
		out.EveBases = make([]*photon.Basis, len(w.EveBases))
		for i, b := range w.EveBases {
			if b == nil {
				continue
			}
			var v photon.Basis
			if err := v.UnmarshalText([]byte(*b)); err != nil {
				return err
			}
			out.EveBases[i] = &v
		}
	}
	*r = out
	return nil
}

func bitsOut(bs []photon.Bit) []int {
	if bs == nil {
		return nil
	}
	out := make([]int, len(bs))
	for i, b := range bs {
		out[i] = int(b)
	}
	return out
}

func bitsIn(bs []int) []photon.Bit {
	if bs == nil {
		return nil
	}
	out := make([]photon.Bit, len(bs))
	for i, b := range bs {
		out[i] = photon.Bit(b)
	}
	return out
}

func basesOut(bs []photon.Basis) []string {
	if bs == nil {
		return nil
	}
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.String()
	}
	return out
}

func basesIn(bs []string) ([]photon.Basis, error) {
	if bs == nil {
		return nil, nil
	}
	out := make([]photon.Basis, len(bs))
	for i, b := range bs {
		if err := out[i].UnmarshalText([]byte(b)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
