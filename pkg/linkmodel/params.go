// Package linkmodel builds the constraint system for a fluid model of a
// shared network link carrying one or more congestion-controlled flows.
// It declares the symbolic variables of a bounded trace and the
// arithmetic invariants connecting them, against the facade package's
// solver contract; the production SMT binding behind that contract is
// an external collaborator this package never imports directly.
package linkmodel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params is the immutable scalar configuration shared by every
// component that builds constraints for a trace.
type Params struct {
	// C is the link capacity, in data units per time unit.
	C float64 `yaml:"c"`
	// R is the propagation delay.
	R float64 `yaml:"r"`
	// D is the maximum permitted gap between consecutive observation
	// timestamps.
	D float64 `yaml:"d"`
	// T is the number of observation points in the trace.
	T int `yaml:"t"`
	// F is the number of congestion-controlled flows sharing the link.
	F int `yaml:"f"`
	// Compose selects between the two waste-vs-arrival regimes of
	// §4.4: true bounds A-L by the capacity curve, false bounds it by
	// the current service plus a slack epsilon.
	Compose bool `yaml:"compose"`
	// InfBuf selects infinite buffering (no loss ever) when true, or
	// the finite-buffer loss regime when false.
	InfBuf bool `yaml:"inf_buf"`
	// BufSize, when InfBuf is false and BufSize > 0, pins the buffer
	// variable to a concrete value; left symbolic (zero) otherwise.
	BufSize float64 `yaml:"buf_size"`
	// UnsatCore requests that every top-level conjunct be asserted
	// under a label, at the cost of slower solving.
	UnsatCore bool `yaml:"unsat_core"`
}

// Validate reports whether p is internally consistent. It never
// touches a solver: a builder must never allocate a single symbol
// against an invalid parameter block.
func (p Params) Validate() error {
	if p.C <= 0 {
		return fmt.Errorf("linkmodel: C must be strictly positive, got %v", p.C)
	}
	if p.R <= 0 {
		return fmt.Errorf("linkmodel: R must be strictly positive, got %v", p.R)
	}
	if p.D <= 0 {
		return fmt.Errorf("linkmodel: D must be strictly positive, got %v", p.D)
	}
	if p.T < 2 {
		return fmt.Errorf("linkmodel: T must be at least 2, got %d", p.T)
	}
	if p.F < 1 {
		return fmt.Errorf("linkmodel: F must be at least 1, got %d", p.F)
	}
	if p.InfBuf && p.BufSize != 0 {
		return fmt.Errorf("linkmodel: buf_size must not be supplied when inf_buf is true")
	}
	if !p.InfBuf && p.BufSize < 0 {
		return fmt.Errorf("linkmodel: buf_size must be positive when supplied, got %v", p.BufSize)
	}
	return nil
}

// hasBuf reports whether the finite-buffer variable exists for p, per
// the optional-state rule: the buffer variable exists iff inf_buf is false.
func (p Params) hasBuf() bool { return !p.InfBuf }

// hasEpsilon reports whether the slack variable exists for p, per
// the optional-state rule: epsilon exists iff compose is false.
func (p Params) hasEpsilon() bool { return !p.Compose }

// LoadParams reads a YAML scenario file into a Params and validates it,
// mirroring how a caller pins a controller to concrete values without
// recompiling the builder.
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("linkmodel: reading params file %s: %w", path, err)
	}
	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("linkmodel: parsing params file %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// MustValidate panics if p is invalid. It exists only for example and
// scenario code, never for library code, reserving panics for
// programmer errors discovered at a package-internal boundary.
func (p Params) MustValidate() {
	if err := p.Validate(); err != nil {
		panic(err)
	}
}
