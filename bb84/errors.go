package bb84

import "fmt"

// A ValidationError reports simulation parameters which cannot be used.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// A SimulationError reports a failure inside a photon backend. Photon is the
// index of the photon being processed and Stage names the pipeline step, e.g.
// "bob measure".
type SimulationError struct {
	Photon  int
	Stage   string
	Backend string
	Err     error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("photon %d: %s (%s backend): %v", e.Photon, e.Stage, e.Backend, e.Err)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}
