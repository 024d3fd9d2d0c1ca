package bb84

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// A BatchOpts describes a set of independent runs sharing one parameterization.
type BatchOpts struct {
	// Experiment labels every record produced by the batch.
	Experiment string

	Params Parameters

	// Runs is the number of simulations to perform. Must be positive.
	Runs int

	// BaseSeed seeds run i with BaseSeed+i, so a batch is reproducible
	// regardless of how its runs are scheduled.
	BaseSeed int64

	// Workers bounds the number of concurrent runs. Defaults to GOMAXPROCS.
	Workers int
}

// A BatchSummary aggregates metrics across the runs of a batch.
type BatchSummary struct {
	Runs int

	MeanErrorRate, StdErrorRate   float64
	MeanEfficiency, StdEfficiency float64
	MeanFidelity                  float64
	MeanKeyBits, StdKeyBits       float64
}

// RunBatch performs opts.Runs simulations, fanning them out across workers.
// Records are returned in run order. The first failing run cancels the rest
// and its error is returned.
func (e *Engine) RunBatch(ctx context.Context, opts BatchOpts) ([]BatchRecord, BatchSummary, error) {
	if opts.Runs <= 0 {
		return nil, BatchSummary{}, &ValidationError{Field: "runs", Value: opts.Runs, Reason: "must be positive"}
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, BatchSummary{}, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	records := make([]BatchRecord, opts.Runs)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < opts.Runs; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seed := opts.BaseSeed + int64(i)
			res, err := e.Simulate(opts.Params, NewSeededSource(seed))
			if err != nil {
				return err
			}
			records[i] = BatchRecord{
				Experiment: opts.Experiment,
				Run:        i,
				Seed:       seed,
				Params:     opts.Params,
				Result:     res,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			e.log.Debug().Str("experiment", opts.Experiment).Msg("batch cancelled")
		}
		return nil, BatchSummary{}, err
	}
	sum := Summarize(records)
	e.log.Debug().
		Str("experiment", opts.Experiment).
		Int("runs", sum.Runs).
		Float64("mean_error_rate", sum.MeanErrorRate).
		Float64("mean_efficiency", sum.MeanEfficiency).
		Msg("batch complete")
	return records, sum, nil
}

// Summarize computes the mean and standard deviation of each metric over
// records. Standard deviations are zero for fewer than two records.
func Summarize(records []BatchRecord) BatchSummary {
	n := len(records)
	if n == 0 {
		return BatchSummary{}
	}
	errRates := make([]float64, n)
	effs := make([]float64, n)
	fids := make([]float64, n)
	keyBits := make([]float64, n)
	for i, rec := range records {
		errRates[i] = rec.Result.ErrorRate
		effs[i] = rec.Result.TransmissionEfficiency
		fids[i] = rec.Result.QuantumFidelity
		keyBits[i] = float64(len(rec.Result.FinalKey))
	}
	s := BatchSummary{Runs: n, MeanFidelity: stat.Mean(fids, nil)}
	s.MeanErrorRate, s.StdErrorRate = meanStd(errRates)
	s.MeanEfficiency, s.StdEfficiency = meanStd(effs)
	s.MeanKeyBits, s.StdKeyBits = meanStd(keyBits)
	return s
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) < 2 {
		return stat.Mean(xs, nil), 0
	}
	return stat.MeanStdDev(xs, nil)
}
