package linkmodel

import "fmt"

// Centralized symbol-naming helpers. Every constraint-emitting component
// threads names through these constructors rather than formatting its
// own, so the full variable universe carries one consistent scheme and
// the solver's model record maps back to a coherent name for every
// declared symbol.

func aggName(t int, field string) string {
	return fmt.Sprintf("t%d_%s", t, field)
}

func flowName(t, f int, field string) string {
	return fmt.Sprintf("t%d_f%d_%s", t, f, field)
}

func deltaName(t int) string {
	return fmt.Sprintf("t%d_dt", t)
}

func epsilonName() string { return "epsilon" }

func bufName() string { return "buf" }
