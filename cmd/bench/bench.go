// bench.go runs a batch of BB84 simulations for each entry in the cartesian
// product of a collection of different tuning parameters, e.g. eavesdropper
// interception rate and detector noise, and outputs a CSV of summary
// statistics for each different combination, e.g. mean error rate and key
// length.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/alan-christopher/bb84sim/bb84"
	"github.com/alan-christopher/bb84sim/internal/config"
	"github.com/alan-christopher/bb84sim/internal/logger"
	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
)

var (
	numQubits  = flag.IntSlice("numQubits", []int{bb84.DefaultNumQubits, 1000}, "The photons Alice sends per run.")
	includeEve = flag.BoolSlice("includeEve", []bool{false, true}, "Whether an eavesdropper is present.")
	eveRate    = flag.Float64Slice("eveRate", []float64{bb84.DefaultEveInterceptionRate}, "The percentage of photons Eve intercepts.")
	noise      = flag.Float64Slice("noise", []float64{bb84.DefaultNoiseLevel}, "The probability that Bob's detector flips an outcome.")
	runs       = flag.Int("runs", 100, "The simulations to run per parameterization.")
	seed       = flag.Int64("seed", 0, "Base seed; run i of each batch uses seed+i. Defaults to BB84_SEED, else the clock.")
	workers    = flag.Int("workers", 0, "Concurrent runs per batch. Defaults to BB84_WORKERS.")
	stream     = flag.String("stream", "", "If set, write every run as a framed protobuf record to this file.")
)

var (
	inputs = []string{"numQubits", "includeEve", "eveRate", "noise"}
	// TODO: consider using reflection to pull this out of the Experiment data
	//   type.
	columns = []string{"ID", "NumQubits", "IncludeEve", "EveRate", "Noise", "Runs",
		"MeanErrorRate", "StdErrorRate", "MeanEfficiency", "StdEfficiency",
		"MeanFidelity", "MeanKeyBits", "StdKeyBits", "Succeeded"}
)

// An Experiment packages together the result of benchmarking a single
// parameterization for easy formatting.
type Experiment struct {
	ID string

	// Fields corresponding to experiment parameters
	NumQubits  int
	IncludeEve bool
	EveRate    float64
	Noise      float64
	Runs       int

	// Fields corresponding to experiment results
	MeanErrorRate, StdErrorRate   float64
	MeanEfficiency, StdEfficiency float64
	MeanFidelity                  float64
	MeanKeyBits, StdKeyBits       float64
	Succeeded                     bool
}

func main() {
	flag.Parse()
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(logger.Config{Level: "info"})
		boot.Fatal().Err(err).Msg("Loading configuration")
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	if !flag.CommandLine.Changed("seed") {
		*seed = cfg.Seed
	}
	if *workers <= 0 {
		*workers = cfg.Workers
	}

	var rw *bb84.RecordWriter
	if *stream != "" {
		f, err := os.Create(*stream)
		if err != nil {
			log.Fatal().Err(err).Str("path", *stream).Msg("Opening record stream")
		}
		defer f.Close()
		rw = bb84.NewRecordWriter(f)
	}

	engine := bb84.NewEngine(bb84.EngineOpts{PhysicsAvailable: cfg.PhysicsBackend, Logger: &log})
	fmt.Println(header())
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	var args [][]interface{}
	for _, inp := range inputs {
		vals, err := lookupInput(flag.CommandLine, inp)
		if err != nil {
			log.Fatal().Err(err).Str("input", inp).Msg("Reading sweep input")
		}
		args = append(args, vals)
	}
	applyCartesian(func(args []interface{}) {
		exp := &Experiment{
			ID:         uuid.NewString(),
			NumQubits:  args[inpIndex("numQubits")].(int),
			IncludeEve: args[inpIndex("includeEve")].(bool),
			EveRate:    args[inpIndex("eveRate")].(float64),
			Noise:      args[inpIndex("noise")].(float64),
			Runs:       *runs,
		}
		if err := bench(engine, exp, rw); err != nil {
			log.Error().Err(err).Str("experiment", exp.ID).Msgf("Benching %+v", *exp)
		}
		if err := tmpl.Execute(os.Stdout, exp); err != nil {
			log.Fatal().Err(err).Msg("BUG: could not fill in line template")
		}
	}, args)
}

func inpIndex(v string) int {
	for i, inp := range inputs {
		if inp == v {
			return i
		}
	}
	return -1
}

func bench(engine *bb84.Engine, exp *Experiment, rw *bb84.RecordWriter) error {
	records, sum, err := engine.RunBatch(context.Background(), bb84.BatchOpts{
		Experiment: exp.ID,
		Params: bb84.Parameters{
			NumQubits:           exp.NumQubits,
			IncludeEve:          exp.IncludeEve,
			EveInterceptionRate: exp.EveRate,
			NoiseLevel:          exp.Noise,
		},
		Runs:     exp.Runs,
		BaseSeed: *seed,
		Workers:  *workers,
	})
	if err != nil {
		return err
	}
	exp.MeanErrorRate, exp.StdErrorRate = sum.MeanErrorRate, sum.StdErrorRate
	exp.MeanEfficiency, exp.StdEfficiency = sum.MeanEfficiency, sum.StdEfficiency
	exp.MeanFidelity = sum.MeanFidelity
	exp.MeanKeyBits, exp.StdKeyBits = sum.MeanKeyBits, sum.StdKeyBits
	exp.Succeeded = true
	if rw != nil {
		for _, rec := range records {
			if err := rw.Write(rec); err != nil {
				return fmt.Errorf("streaming run %d: %w", rec.Run, err)
			}
		}
	}
	return nil
}

func header() string {
	return strings.Join(columns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}

// lookupInput returns the values of the slice flag name. Every input needs at
// least one value, since the sweep is the cartesian product of all of them.
func lookupInput(fs *flag.FlagSet, name string) ([]interface{}, error) {
	var r []interface{}
	if v, err := fs.GetIntSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := fs.GetFloat64Slice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := fs.GetBoolSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else {
		return nil, fmt.Errorf("unknown type for input %q", name)
	}
	if len(r) == 0 {
		return nil, fmt.Errorf("input %q has no values", name)
	}
	return r, nil
}

func applyCartesian(f func([]interface{}), args [][]interface{}) {
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]interface{}, len(args))
		r := make([][]interface{}, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]interface{}, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
