package facade

import (
	"fmt"
	"math/big"
)

// Expr is a linear real-arithmetic expression built from variables,
// rational constants, addition, negation, and multiplication by a
// constant. It never contains a product of two variables — that would
// leave linear arithmetic, which is exactly what the piecewise-linear
// multiplier (see linkmodel.Piecewise) exists to avoid.
type Expr interface {
	isExpr()
}

// ConstExpr is a rational literal.
type ConstExpr struct{ Value *big.Rat }

func (ConstExpr) isExpr() {}

// Const builds a constant expression from an int64 numerator over 1.
func Const(n int64) ConstExpr { return ConstExpr{Value: big.NewRat(n, 1)} }

// ConstF builds a constant expression from a float64, matching the
// precision a caller typically has on hand (e.g. a config-file value).
func ConstF(f float64) ConstExpr {
	r := new(big.Rat)
	r.SetFloat64(f)
	return ConstExpr{Value: r}
}

// Rat builds a constant expression from an exact numerator/denominator.
func Rat(num, den int64) ConstExpr { return ConstExpr{Value: big.NewRat(num, den)} }

// VarExpr refers to a declared variable.
type VarExpr struct{ V Var }

func (VarExpr) isExpr() {}

// VE wraps a Var as an expression.
func VE(v Var) VarExpr { return VarExpr{V: v} }

// AddExpr is the sum of two or more expressions.
type AddExpr struct{ Terms []Expr }

func (AddExpr) isExpr() {}

// Add builds a sum expression.
func Add(terms ...Expr) AddExpr { return AddExpr{Terms: terms} }

// Sub builds a-b as a sum of a and the negation of b.
func Sub(a, b Expr) AddExpr { return AddExpr{Terms: []Expr{a, Neg(b)}} }

// NegExpr negates an expression.
type NegExpr struct{ X Expr }

func (NegExpr) isExpr() {}

// Neg builds the negation of x.
func Neg(x Expr) NegExpr { return NegExpr{X: x} }

// MulExpr multiplies an expression by a rational constant. Multiplying
// two non-constant expressions has no representation here by design.
type MulExpr struct {
	Coef *big.Rat
	X    Expr
}

func (MulExpr) isExpr() {}

// Mul scales x by coef.
func Mul(coef *big.Rat, x Expr) MulExpr { return MulExpr{Coef: coef, X: x} }

// MulF scales x by a float64 constant.
func MulF(coef float64, x Expr) MulExpr {
	r := new(big.Rat)
	r.SetFloat64(coef)
	return MulExpr{Coef: r, X: x}
}

// Constraint is a boolean-valued formula over Exprs: the atomic
// comparisons (≤, <, =) and the connectives (∧, ∨, ⇒).
type Constraint interface {
	isConstraint()
}

// LeqC is x ≤ y.
type LeqC struct{ X, Y Expr }

func (LeqC) isConstraint() {}

// Leq builds x ≤ y.
func Leq(x, y Expr) LeqC { return LeqC{X: x, Y: y} }

// LtC is x < y.
type LtC struct{ X, Y Expr }

func (LtC) isConstraint() {}

// Lt builds x < y.
func Lt(x, y Expr) LtC { return LtC{X: x, Y: y} }

// EqC is x = y.
type EqC struct{ X, Y Expr }

func (EqC) isConstraint() {}

// Eq builds x = y.
func Eq(x, y Expr) EqC { return EqC{X: x, Y: y} }

// Geq builds x ≥ y, as sugar for y ≤ x.
func Geq(x, y Expr) LeqC { return LeqC{X: y, Y: x} }

// Gt builds x > y, as sugar for y < x.
func Gt(x, y Expr) LtC { return LtC{X: y, Y: x} }

// AndC is the conjunction of its operands.
type AndC struct{ Operands []Constraint }

func (AndC) isConstraint() {}

// And builds a conjunction, dropping the trivial wrapper for a single
// operand.
func And(cs ...Constraint) Constraint {
	if len(cs) == 1 {
		return cs[0]
	}
	return AndC{Operands: cs}
}

// OrC is the disjunction of its operands.
type OrC struct{ Operands []Constraint }

func (OrC) isConstraint() {}

// Or builds a disjunction, dropping the trivial wrapper for a single
// operand.
func Or(cs ...Constraint) Constraint {
	if len(cs) == 1 {
		return cs[0]
	}
	return OrC{Operands: cs}
}

// ImpliesC is Antecedent ⇒ Consequent.
type ImpliesC struct {
	Antecedent Constraint
	Consequent Constraint
}

func (ImpliesC) isConstraint() {}

// Implies builds antecedent ⇒ consequent.
func Implies(antecedent, consequent Constraint) ImpliesC {
	return ImpliesC{Antecedent: antecedent, Consequent: consequent}
}

// String renders a constraint for diagnostics and unsat-core reporting.
// It is not used by any solver — purely a debugging aid, mirroring the
// teacher's IntervalOperation.String() convention for enum-shaped types.
func String(c Constraint) string {
	switch v := c.(type) {
	case LeqC:
		return fmt.Sprintf("(%s <= %s)", exprString(v.X), exprString(v.Y))
	case LtC:
		return fmt.Sprintf("(%s < %s)", exprString(v.X), exprString(v.Y))
	case EqC:
		return fmt.Sprintf("(%s = %s)", exprString(v.X), exprString(v.Y))
	case AndC:
		return joinConstraints(v.Operands, " & ")
	case OrC:
		return joinConstraints(v.Operands, " | ")
	case ImpliesC:
		return fmt.Sprintf("(%s => %s)", String(v.Antecedent), String(v.Consequent))
	default:
		return "<unknown constraint>"
	}
}

func joinConstraints(cs []Constraint, sep string) string {
	out := "("
	for i, c := range cs {
		if i > 0 {
			out += sep
		}
		out += String(c)
	}
	return out + ")"
}

func exprString(e Expr) string {
	switch v := e.(type) {
	case ConstExpr:
		return v.Value.RatString()
	case VarExpr:
		return v.V.Name()
	case AddExpr:
		out := "("
		for i, t := range v.Terms {
			if i > 0 {
				out += " + "
			}
			out += exprString(t)
		}
		return out + ")"
	case NegExpr:
		return fmt.Sprintf("-%s", exprString(v.X))
	case MulExpr:
		return fmt.Sprintf("(%s * %s)", v.Coef.RatString(), exprString(v.X))
	default:
		return "<unknown expr>"
	}
}
