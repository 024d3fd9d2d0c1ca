package bb84

import (
	"github.com/alan-christopher/bb84sim/bb84/bitarray"
	"github.com/alan-christopher/bb84sim/bb84/photon"
)

// A siftResult holds the outcome of public basis reconciliation.
type siftResult struct {
	matching bitarray.Dense
	key      bitarray.Dense
	sifted   int
	errors   int
}

// sift discards every photon Alice and Bob measured in different bases, then
// compares the remainder. Agreeing positions form the key; disagreeing ones are
// counted as errors and dropped.
func sift(records []PhotonRecord) siftResult {
	var aBits, aBases, bBits, bBases bitarray.Dense
	for _, r := range records {
		aBits.AppendBit(r.AliceBit == 1)
		aBases.AppendBit(r.AliceBasis == photon.X)
		bBits.AppendBit(r.BobBit == 1)
		bBases.AppendBit(r.BobBasis == photon.X)
	}
	mask := aBases.XNor(bBases)
	siftedA := aBits.Select(mask)
	errs := siftedA.XOr(bBits.Select(mask))
	return siftResult{
		matching: mask,
		key:      siftedA.Select(errs.Not()),
		sifted:   siftedA.Size(),
		errors:   errs.CountOnes(),
	}
}

// buildResult assembles the Result for records. Fidelity is derived from the
// error rate rather than counted separately, so the two always agree.
func buildResult(records []PhotonRecord, includeEve bool) Result {
	n := len(records)
	res := Result{
		AliceBits:        make([]photon.Bit, n),
		AliceBases:       make([]photon.Basis, n),
		BobBits:          make([]photon.Bit, n),
		BobBases:         make([]photon.Basis, n),
		EveBits:          make([]*photon.Bit, n),
		EveBases:         make([]*photon.Basis, n),
		EveInterceptions: make([]bool, n),
		IncludeEve:       includeEve,
	}
	for i, r := range records {
		res.AliceBits[i], res.AliceBases[i] = r.AliceBit, r.AliceBasis
		res.BobBits[i], res.BobBases[i] = r.BobBit, r.BobBasis
		res.EveBits[i], res.EveBases[i] = r.EveBit, r.EveBasis
		res.EveInterceptions[i] = r.EveIntercepted
	}

	s := sift(records)
	res.MatchingBases = s.matching.Bools()
	res.FinalKey = make([]photon.Bit, 0, s.key.Size())
	for _, b := range s.key.Bools() {
		res.FinalKey = append(res.FinalKey, bitOf(b))
	}
	if s.sifted > 0 {
		res.ErrorRate = float64(s.errors) / float64(s.sifted)
		res.QuantumFidelity = 1 - res.ErrorRate
	}
	if n > 0 {
		res.TransmissionEfficiency = float64(len(res.FinalKey)) / float64(n)
	}
	return res
}

func bitOf(b bool) photon.Bit {
	if b {
		return 1
	}
	return 0
}
