package linkmodel

import "fmt"

// MissingVariableError reports that a solver's sat model omitted a
// variable this package declared — a known quirk of some bindings.
// Callers should treat the value as genuinely unknown rather than
// receiving a silent zero substitution.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("linkmodel: solver model omitted declared variable %q", e.Name)
}
