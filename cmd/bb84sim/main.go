// bb84sim runs a single BB84 simulation and writes the encoded result to
// stdout. Parameters come from flags, or from a JSON file given by --params;
// flags explicitly set on the command line override the file.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alan-christopher/bb84sim/bb84"
	"github.com/alan-christopher/bb84sim/internal/config"
	"github.com/alan-christopher/bb84sim/internal/logger"
	flag "github.com/spf13/pflag"
)

var (
	paramsFile = flag.String("params", "", "JSON file of simulation parameters.")
	numQubits  = flag.Int("numQubits", bb84.DefaultNumQubits, "The number of photons Alice sends.")
	includeEve = flag.Bool("includeEve", false, "Whether an intercept-resend eavesdropper is present.")
	eveRate    = flag.Float64("eveInterceptionRate", bb84.DefaultEveInterceptionRate, "The percentage of photons Eve intercepts.")
	noise      = flag.Float64("noiseLevel", bb84.DefaultNoiseLevel, "The probability that Bob's detector flips an outcome.")
	seed       = flag.Int64("seed", 0, "Seed for the simulation's randomness. Defaults to BB84_SEED, else the clock.")
	format     = flag.String("format", string(bb84.EncodingJSON), "Output encoding: json, msgpack or proto.")
	physics    = flag.Bool("physics", true, "Allow the state-vector backend for short runs. Also gated by BB84_PHYSICS_BACKEND.")
)

func main() {
	flag.Parse()
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(logger.Config{Level: "info"})
		boot.Fatal().Err(err).Msg("Loading configuration")
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	params, err := loadParams()
	if err != nil {
		log.Fatal().Err(err).Msg("Loading parameters")
	}
	s := cfg.Seed
	if flag.CommandLine.Changed("seed") {
		s = *seed
	}
	engine := bb84.NewEngine(bb84.EngineOpts{
		PhysicsAvailable: *physics && cfg.PhysicsBackend,
		Logger:           &log,
	})
	res, err := engine.Simulate(params, bb84.NewSeededSource(s))
	if err != nil {
		log.Fatal().Err(err).Int64("seed", s).Msg("Simulating")
	}
	out, err := res.Encode(bb84.Encoding(*format))
	if err != nil {
		log.Fatal().Err(err).Msg("Encoding result")
	}
	if _, err := os.Stdout.Write(out); err != nil {
		log.Fatal().Err(err).Msg("Writing result")
	}
	if *format == string(bb84.EncodingJSON) {
		fmt.Println()
	}
	log.Info().
		Int64("seed", s).
		Str("backend", res.Backend).
		Int("key_bits", len(res.FinalKey)).
		Str("key_hex", hex.EncodeToString(res.Key().Data())).
		Float64("error_rate", res.ErrorRate).
		Msg("Simulation complete")
}

func loadParams() (bb84.Parameters, error) {
	p := bb84.DefaultParameters()
	if *paramsFile != "" {
		data, err := os.ReadFile(*paramsFile)
		if err != nil {
			return p, err
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("parsing %s: %w", *paramsFile, err)
		}
	}
	fs := flag.CommandLine
	if *paramsFile == "" || fs.Changed("numQubits") {
		p.NumQubits = *numQubits
	}
	if *paramsFile == "" || fs.Changed("includeEve") {
		p.IncludeEve = *includeEve
	}
	if *paramsFile == "" || fs.Changed("eveInterceptionRate") {
		p.EveInterceptionRate = *eveRate
	}
	if *paramsFile == "" || fs.Changed("noiseLevel") {
		p.NoiseLevel = *noise
	}
	return p, p.Validate()
}
