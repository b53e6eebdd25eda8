package gridsat

import "github.com/arnegrim/linkmodel/pkg/facade"

// negate builds a constraint equivalent to ¬c. The facade's public
// algebra deliberately has no negation operator — only +, -, ·, ≤, <,
// =, ∧, ∨, ⇒ are exposed — so this stays package-private: it exists
// purely to let the search guide an Implies branch ("antecedent false")
// without asserting a connective callers were never given. The search's
// final acceptance test re-checks the original, un-negated constraint
// tree exactly, so a mistake here can only hurt completeness, never
// soundness.
func negate(c facade.Constraint) facade.Constraint {
	switch v := c.(type) {
	case facade.LeqC:
		return facade.Lt(v.Y, v.X)
	case facade.LtC:
		return facade.Leq(v.Y, v.X)
	case facade.EqC:
		return facade.Or(facade.Lt(v.X, v.Y), facade.Lt(v.Y, v.X))
	case facade.AndC:
		negated := make([]facade.Constraint, len(v.Operands))
		for i, op := range v.Operands {
			negated[i] = negate(op)
		}
		return facade.Or(negated...)
	case facade.OrC:
		negated := make([]facade.Constraint, len(v.Operands))
		for i, op := range v.Operands {
			negated[i] = negate(op)
		}
		return facade.And(negated...)
	case facade.ImpliesC:
		return facade.And(v.Antecedent, negate(v.Consequent))
	default:
		return nil
	}
}
