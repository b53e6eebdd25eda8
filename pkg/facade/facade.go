// Package facade declares the boundary between the fluid-model constraint
// builder and the solver that discharges it. The builder (package
// linkmodel) only ever talks to the small interface declared here: fresh
// real-valued symbols, a linear-arithmetic expression tree built from
// those symbols, and a satisfiability check. The production solver behind
// this interface — a full decision procedure for linear real arithmetic —
// is an external collaborator; this package never implements one. The
// only implementation shipped in this module, internal/gridsat, is a
// bounded reference procedure good enough for this module's own tests.
package facade

import (
	"context"
	"math/big"
)

// Var is a handle to a declared real-valued symbol. Implementations
// compare equal iff they name the same symbol.
type Var interface {
	Name() string
}

// Facade is the solver-side contract the constraint builder is written
// against. All constraint addition is append-only: there is no Retract.
type Facade interface {
	// RealVar allocates a fresh real-valued symbol under name. Calling
	// RealVar twice with the same name must return the same Var.
	RealVar(name string) Var

	// Assert adds c to the solver's conjunction of constraints, unlabeled.
	Assert(c Constraint)

	// AssertLabeled adds c under a label, so it can appear in an unsat
	// core. Only meaningful when the facade was constructed with unsat
	// core support enabled; otherwise behaves exactly like Assert.
	AssertLabeled(label string, c Constraint)

	// CheckSat runs the satisfiability check. It blocks until a result is
	// available or ctx is cancelled. A cancelled ctx surfaces as a non-nil
	// error, never as Unknown.
	CheckSat(ctx context.Context) (Result, error)
}

// Satisfiable is the three-way outcome of a satisfiability check.
type Satisfiable int

const (
	// Unknown means the solver could not decide within its resource
	// budget — a timeout or resource-exhaustion outcome, surfaced as-is.
	Unknown Satisfiable = iota
	Sat
	Unsat
)

func (s Satisfiable) String() string {
	switch s {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Result is the outcome of a CheckSat call.
type Result struct {
	Satisfiable Satisfiable

	// Model maps every declared variable's name to its value. Populated
	// only when Satisfiable == Sat. A name absent from a Sat model is a
	// post-sat extraction mismatch the caller must detect explicitly
	// rather than substitute a default for (see MissingVariableError in
	// package linkmodel).
	Model map[string]*big.Rat

	// UnsatCore holds the labels of the conjuncts the solver used to
	// prove unsatisfiability. Populated only when Satisfiable == Unsat
	// and the facade was built with unsat-core support enabled.
	UnsatCore []string
}

// Value looks up a variable's value in a Sat result.
func (r Result) Value(v Var) (*big.Rat, bool) {
	if r.Model == nil {
		return nil, false
	}
	val, ok := r.Model[v.Name()]
	return val, ok
}
